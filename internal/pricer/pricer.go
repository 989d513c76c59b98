// Package pricer orchestrates the pricing algorithm of §4.5: it walks
// a CDR period by period, subdivides each into maximal sub-periods,
// evaluates tariff-element restrictions to pick the winning element
// per dimension, accumulates billable volumes, and assembles the
// session Report. Pricer.Calculate is stateless; all per-call state
// lives on the SessionLedger it constructs.
package pricer

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ocpi-tariffs/internal/accumulate"
	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/money"
	"ocpi-tariffs/internal/ocpi"
	"ocpi-tariffs/internal/period"
	"ocpi-tariffs/internal/report"
	"ocpi-tariffs/internal/restriction"
)

// Pricer prices a CDR against a Tariff in a configured IANA zone.
type Pricer struct {
	Zone *time.Location
}

// New returns a Pricer bound to zone.
func New(zone *time.Location) *Pricer {
	return &Pricer{Zone: zone}
}

// Calculate runs the pricing algorithm of §4.5 against cdr and tariff,
// returning the assembled Report or a fatal *ocpi.Error.
func (p *Pricer) Calculate(cdr *ocpi.Cdr, tariff *ocpi.Tariff) (*report.Report, error) {
	sessionStart, sessionEnd, err := p.sessionBounds(cdr)
	if err != nil {
		return nil, err
	}

	ledger := newLedger()
	log.Debug().Str("trace_id", ledger.TraceID.String()).Str("cdr_id", cdr.ID).Msg("pricing session started")

	periods := newPeriodCollector()

	for i, cp := range cdr.ChargingPeriods {
		start, err := parseInstant(cp.StartDateTime)
		if err != nil {
			return nil, ocpi.NewError(ocpi.InvalidInput, fmt.Sprintf("charging period %d: %v", i, err))
		}

		var end time.Time
		if i+1 < len(cdr.ChargingPeriods) {
			end, err = parseInstant(cdr.ChargingPeriods[i+1].StartDateTime)
			if err != nil {
				return nil, ocpi.NewError(ocpi.InvalidInput, fmt.Sprintf("charging period %d: %v", i+1, err))
			}
		} else {
			end = sessionEnd
		}
		if !end.After(start) {
			return nil, ocpi.NewError(ocpi.InvalidInput, fmt.Sprintf("charging period %d: non-monotonic period bounds", i))
		}
		if i == 0 && start.Before(sessionStart) {
			return nil, ocpi.NewError(ocpi.InvalidInput, "first charging period starts before session start_date_time")
		}

		periodInterval := calendar.Interval{Start: start, End: end}
		if err := p.walkPeriod(ledger, periods, cp, periodInterval, tariff.Elements); err != nil {
			return nil, err
		}
	}

	if err := ledger.tracker.CloseAll(); err != nil {
		return nil, wrapOverflow(err)
	}
	if err := periods.mergeBilled(ledger.tracker.Results()); err != nil {
		return nil, wrapOverflow(err)
	}

	builder := report.NewBuilder(cdr.ID, tariff.ID, tariff.Currency)
	for _, pr := range periods.finalize() {
		builder.AddPeriod(pr)
	}

	rep, err := builder.Finalize(priceCapOf(tariff.MinPrice), priceCapOf(tariff.MaxPrice), money.PresentationScale)
	if err != nil {
		return nil, wrapOverflow(err)
	}
	return rep, nil
}

func (p *Pricer) sessionBounds(cdr *ocpi.Cdr) (start, end time.Time, err error) {
	start, err = parseInstant(cdr.StartDateTime)
	if err != nil {
		return time.Time{}, time.Time{}, ocpi.NewError(ocpi.InvalidInput, fmt.Sprintf("start_date_time: %v", err))
	}
	end, err = parseInstant(cdr.EndDateTime)
	if err != nil {
		return time.Time{}, time.Time{}, ocpi.NewError(ocpi.InvalidInput, fmt.Sprintf("end_date_time: %v", err))
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ocpi.NewError(ocpi.InvalidInput, "end_date_time does not follow start_date_time")
	}
	if len(cdr.ChargingPeriods) == 0 {
		return time.Time{}, time.Time{}, ocpi.NewError(ocpi.InvalidInput, "cdr has no charging periods")
	}
	return start, end, nil
}

// walkPeriod subdivides one ChargingPeriod and prices each resulting
// sub-period per §4.5 step 2.
func (p *Pricer) walkPeriod(ledger *SessionLedger, periods *periodCollector, cp ocpi.ChargingPeriod, iv calendar.Interval, elements []ocpi.TariffElement) error {
	subPeriods, err := period.Subdivide(iv, elements, p.Zone)
	if err != nil {
		return ocpi.NewError(ocpi.InvalidInput, fmt.Sprintf("subdividing period: %v", err))
	}

	periodSeconds := decimalSecondsOf(iv.Duration())

	energyDim, hasEnergy := cp.Dimension(ocpi.DimensionEnergy)
	_, hasTimeDim := cp.Dimension(ocpi.DimensionTime)
	_, hasParking := cp.Dimension(ocpi.DimensionParkingTime)
	_, hasReservation := cp.Dimension(ocpi.DimensionReservation)
	currentDim, hasCurrent := cp.Dimension(ocpi.DimensionCurrent)
	powerDim, hasPower := cp.Dimension(ocpi.DimensionPower)

	isCharging := hasTimeDim || (hasEnergy && energyDim.Volume.Sign() > 0)

	for _, sub := range subPeriods {
		fraction := decimalSecondsOf(sub.Duration()).DivRound(periodSeconds, 20)

		snap := restriction.Snapshot{
			CumEnergy:   ledger.CumEnergy,
			CumDuration: ledger.CumDuration,
			Reservation: hasReservation,
		}
		if hasCurrent {
			v := currentDim.Volume
			snap.Current = &v
		}
		if hasPower {
			v := powerDim.Volume
			snap.Power = &v
		}

		activeKeys := map[accumulate.Key]bool{}
		pr := periods.get(sub)

		if hasEnergy {
			share, err := money.KWh(energyDim.Volume).Mul(fraction)
			if err != nil {
				return wrapOverflow(err)
			}
			if err := p.priceDimension(ledger, pr, activeKeys, elements, sub, snap, ocpi.DimensionEnergy, share); err != nil {
				return err
			}
			ledger.CumEnergy, err = ledger.CumEnergy.Add(share)
			if err != nil {
				return wrapOverflow(err)
			}
		}

		if isCharging {
			duration := money.HoursFromDuration(sub.Duration())
			if err := p.priceDimension(ledger, pr, activeKeys, elements, sub, snap, ocpi.DimensionTime, duration); err != nil {
				return err
			}
			var err error
			ledger.CumDuration, err = ledger.CumDuration.Add(duration)
			if err != nil {
				return wrapOverflow(err)
			}
		}

		if hasParking {
			duration := money.HoursFromDuration(sub.Duration())
			if err := p.priceDimension(ledger, pr, activeKeys, elements, sub, snap, ocpi.DimensionParkingTime, duration); err != nil {
				return err
			}
		}

		if !ledger.FlatApplied {
			idx, comp, found, err := firstMatch(elements, sub, p.Zone, snap, ocpi.DimensionFlat)
			if err != nil {
				return err
			}
			if found {
				cost := money.PriceFromDecimal(comp.Price)
				flatCost, err := cost.MulVolume(money.Count(1))
				if err != nil {
					return wrapOverflow(err)
				}
				flatIncl, err := flatCost.WithVAT(comp.VAT)
				if err != nil {
					return wrapOverflow(err)
				}
				pr.Lines = append(pr.Lines, report.Line{
					Dimension:    ocpi.DimensionFlat,
					ElementIndex: idx,
					Price:        cost,
					VAT:          comp.VAT,
					Volume:       money.Count(1),
					BilledVolume: money.Count(1),
					CostExclVAT:  flatCost,
					CostInclVAT:  flatIncl,
				})
				ledger.FlatApplied = true
			}
		}

		if err := ledger.tracker.CloseExcept(activeKeys); err != nil {
			return wrapOverflow(err)
		}
	}

	return nil
}

// priceDimension scans elements in order for the first whose
// restriction holds over sub and which defines dim, recording the
// resulting run entry; if none match and the measured volume is
// nonzero, it surfaces a non-fatal NoMatchingTariff gap line per §7.
func (p *Pricer) priceDimension(ledger *SessionLedger, pr *report.PeriodReport, activeKeys map[accumulate.Key]bool, elements []ocpi.TariffElement, sub calendar.Interval, snap restriction.Snapshot, dim ocpi.DimensionType, measured money.Volume) error {
	idx, comp, found, err := firstMatch(elements, sub, p.Zone, snap, dim)
	if err != nil {
		return err
	}
	if found {
		key := accumulate.Key{ElementIndex: idx, Dimension: dim}
		ledger.tracker.Record(key, accumulate.Entry{
			SubPeriod: sub,
			Measured:  measured,
			StepSize:  comp.StepSize,
			Price:     money.PriceFromDecimal(comp.Price),
			VAT:       comp.VAT,
		})
		activeKeys[key] = true
		return nil
	}

	if measured.IsZero() {
		return nil
	}

	log.Warn().
		Str("trace_id", ledger.TraceID.String()).
		Str("dimension", string(dim)).
		Time("sub_period_start", sub.Start).
		Msg("no tariff element matches dimension with reported volume")

	pr.Lines = append(pr.Lines, report.Line{
		Dimension:    dim,
		Volume:       measured,
		BilledVolume: money.ZeroVolume,
		CostExclVAT:  money.Zero,
		CostInclVAT:  money.Zero,
		NoMatch:      true,
	})
	return nil
}

// firstMatch scans elements in document order and returns the first
// whose restriction holds over the whole of sub and which defines a
// PriceComponent for dim. An element whose restriction holds but whose
// components do not cover dim does not block later elements (§4.5
// tie-break rule).
func firstMatch(elements []ocpi.TariffElement, sub calendar.Interval, zone *time.Location, snap restriction.Snapshot, dim ocpi.DimensionType) (int, ocpi.PriceComponent, bool, error) {
	for i, el := range elements {
		holding, err := restriction.Evaluate(sub, el.Restriction, zone, snap)
		if err != nil {
			return 0, ocpi.PriceComponent{}, false, ocpi.NewError(ocpi.InvalidInput, err.Error())
		}
		if !coversFully(holding, sub) {
			continue
		}
		for _, comp := range el.PriceComponents {
			if comp.Type == dim {
				return i, comp, true, nil
			}
		}
	}
	return 0, ocpi.PriceComponent{}, false, nil
}

// coversFully reports whether holding consists of exactly one interval
// equal to sub. period.Subdivide pre-splits at every element's
// calendar-gate edges, so a restriction that applies at all within sub
// must apply to the whole of it; this is a consistency check, not a
// further split (interpolation inside a sub-period is out of scope).
func coversFully(holding []calendar.Interval, sub calendar.Interval) bool {
	if len(holding) != 1 {
		return false
	}
	return holding[0].Start.Equal(sub.Start) && holding[0].End.Equal(sub.End)
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// decimalSecondsOf converts a time.Duration to an exact decimal number
// of seconds via its integer nanosecond count, never through a
// floating-point intermediate, per the "no floating point anywhere
// monetary" design rule — this value prorates ENERGY volume.
func decimalSecondsOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(d.Nanoseconds()).Div(decimal.NewFromInt(1_000_000_000))
}

func priceCapOf(c *ocpi.PriceCap) *money.PriceCap {
	if c == nil {
		return nil
	}
	return &money.PriceCap{
		ExclVat: money.MoneyFromDecimal(c.ExclVat),
		InclVat: money.MoneyFromDecimal(c.InclVat),
	}
}

func wrapOverflow(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, money.ErrOverflow) {
		return ocpi.NewError(ocpi.Overflow, err.Error())
	}
	var typed *ocpi.Error
	if errors.As(err, &typed) {
		return typed
	}
	return ocpi.NewError(ocpi.InternalInconsistency, err.Error())
}

type periodCollector struct {
	byStart map[int64]*report.PeriodReport
	order   []int64
}

func newPeriodCollector() *periodCollector {
	return &periodCollector{byStart: make(map[int64]*report.PeriodReport)}
}

func (c *periodCollector) get(sub calendar.Interval) *report.PeriodReport {
	key := sub.Start.UnixNano()
	pr, ok := c.byStart[key]
	if !ok {
		pr = &report.PeriodReport{SubPeriod: sub}
		c.byStart[key] = pr
		c.order = append(c.order, key)
	}
	return pr
}

// mergeBilled attaches finalized, step-size-rounded dimension entries
// back onto their originating sub-period's report.
func (c *periodCollector) mergeBilled(billed []accumulate.Billed) error {
	for _, b := range billed {
		pr := c.get(b.SubPeriod)
		cost, err := b.Price.MulVolume(b.Billed)
		if err != nil {
			return err
		}
		costIncl, err := cost.WithVAT(b.VAT)
		if err != nil {
			return err
		}
		pr.Lines = append(pr.Lines, report.Line{
			Dimension:    b.Key.Dimension,
			ElementIndex: b.Key.ElementIndex,
			Price:        b.Price,
			VAT:          b.VAT,
			Volume:       b.Measured,
			BilledVolume: b.Billed,
			CostExclVAT:  cost,
			CostInclVAT:  costIncl,
		})
	}
	return nil
}

// finalize returns every collected PeriodReport with its lines sorted
// into a stable order, so that report output does not depend on the
// order billed entries were merged in.
func (c *periodCollector) finalize() []report.PeriodReport {
	out := make([]report.PeriodReport, 0, len(c.order))
	for _, key := range c.order {
		pr := c.byStart[key]
		sort.SliceStable(pr.Lines, func(i, j int) bool {
			if pr.Lines[i].Dimension != pr.Lines[j].Dimension {
				return pr.Lines[i].Dimension < pr.Lines[j].Dimension
			}
			return pr.Lines[i].ElementIndex < pr.Lines[j].ElementIndex
		})
		out = append(out, *pr)
	}
	return out
}
