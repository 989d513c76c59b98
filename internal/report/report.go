// Package report assembles the deterministic breakdown a pricing call
// returns: per-sub-period cost lines, per-dimension session totals,
// and grand totals, with VAT applied and OCPI presentation rounding
// performed only at emission (§4.6). All internal math up to this
// point carries full decimal precision.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/money"
	"ocpi-tariffs/internal/ocpi"
)

// Line is one priced dimension within one sub-period.
type Line struct {
	Dimension     ocpi.DimensionType
	ElementIndex  int
	Price         money.Price
	VAT           *decimal.Decimal
	Volume        money.Volume
	BilledVolume  money.Volume
	CostExclVAT   money.Money
	CostInclVAT   money.Money
	NoMatch       bool // true for a zero-cost NoMatchingTariff gap line
}

// PeriodReport captures one sub-period's cost lines.
type PeriodReport struct {
	SubPeriod calendar.Interval
	Lines     []Line
}

// DimensionTotal is a session-aggregate total for one dimension.
type DimensionTotal struct {
	Dimension    ocpi.DimensionType
	Volume       money.Volume
	BilledVolume money.Volume
	CostExclVAT  money.Money
	CostInclVAT  money.Money
}

// Report is the final, deterministic pricing breakdown.
type Report struct {
	CdrID        string
	TariffID     string
	Currency     string
	Periods      []PeriodReport
	Totals       []DimensionTotal
	TotalExclVAT money.Money
	TotalInclVAT money.Money
	Capped       bool
}

// Builder incrementally assembles a Report as the Pricer walks a CDR.
type Builder struct {
	cdrID, tariffID, currency string
	periods                  []PeriodReport
}

// NewBuilder starts a Report for the given CDR/Tariff identity.
func NewBuilder(cdrID, tariffID, currency string) *Builder {
	return &Builder{cdrID: cdrID, tariffID: tariffID, currency: currency}
}

// AddPeriod appends one sub-period's cost lines.
func (b *Builder) AddPeriod(p PeriodReport) {
	b.periods = append(b.periods, p)
}

// Finalize computes per-dimension and grand totals, applies optional
// min/max price caps (excl.-VAT basis, per §3's PriceCap shape), and
// rounds every monetary field to scale decimal places using banker's
// rounding. Internal totals are summed at full precision first.
func (b *Builder) Finalize(minCap, maxCap *money.PriceCap, scale int32) (*Report, error) {
	sorted := make([]PeriodReport, len(b.periods))
	copy(sorted, b.periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubPeriod.Start.Before(sorted[j].SubPeriod.Start)
	})

	totalsByDim := make(map[ocpi.DimensionType]*DimensionTotal)
	var order []ocpi.DimensionType

	grandExcl := money.Zero
	grandIncl := money.Zero

	for _, p := range sorted {
		for _, line := range p.Lines {
			dt, ok := totalsByDim[line.Dimension]
			if !ok {
				dt = &DimensionTotal{Dimension: line.Dimension}
				totalsByDim[line.Dimension] = dt
				order = append(order, line.Dimension)
			}
			var err error
			dt.Volume, err = dt.Volume.Add(line.Volume)
			if err != nil {
				return nil, err
			}
			dt.BilledVolume, err = dt.BilledVolume.Add(line.BilledVolume)
			if err != nil {
				return nil, err
			}
			dt.CostExclVAT, err = dt.CostExclVAT.Add(line.CostExclVAT)
			if err != nil {
				return nil, err
			}
			dt.CostInclVAT, err = dt.CostInclVAT.Add(line.CostInclVAT)
			if err != nil {
				return nil, err
			}

			grandExcl, err = grandExcl.Add(line.CostExclVAT)
			if err != nil {
				return nil, err
			}
			grandIncl, err = grandIncl.Add(line.CostInclVAT)
			if err != nil {
				return nil, err
			}
		}
	}

	adjustedExcl, clamped := money.ClampCaps(grandExcl, minCap, maxCap)
	adjustedIncl := adjustedExcl
	if clamped {
		// VAT is a proportional surcharge; when the cap clamps the
		// excl.-VAT total, the incl.-VAT figure tracks the cap's own
		// incl.-VAT figure rather than re-deriving a blended rate.
		if maxCap != nil && grandExcl.Decimal().GreaterThan(maxCap.ExclVat.Decimal()) {
			adjustedIncl = maxCap.InclVat
		}
		if minCap != nil && adjustedExcl.Decimal().Equal(minCap.ExclVat.Decimal()) {
			adjustedIncl = minCap.InclVat
		}
	} else {
		adjustedIncl = grandIncl
	}

	totals := make([]DimensionTotal, 0, len(order))
	for _, dim := range order {
		dt := totalsByDim[dim]
		totals = append(totals, DimensionTotal{
			Dimension:    dt.Dimension,
			Volume:       dt.Volume.RoundBank(money.VolumeScale),
			BilledVolume: dt.BilledVolume.RoundBank(money.VolumeScale),
			CostExclVAT:  dt.CostExclVAT.RoundBank(scale),
			CostInclVAT:  dt.CostInclVAT.RoundBank(scale),
		})
	}

	for i := range sorted {
		lines := make([]Line, len(sorted[i].Lines))
		for j, line := range sorted[i].Lines {
			line.CostExclVAT = line.CostExclVAT.RoundBank(scale)
			line.CostInclVAT = line.CostInclVAT.RoundBank(scale)
			lines[j] = line
		}
		sorted[i].Lines = lines
	}

	return &Report{
		CdrID:        b.cdrID,
		TariffID:     b.tariffID,
		Currency:     b.currency,
		Periods:      sorted,
		Totals:       totals,
		TotalExclVAT: adjustedExcl.RoundBank(scale),
		TotalInclVAT: adjustedIncl.RoundBank(scale),
		Capped:       clamped,
	}, nil
}
