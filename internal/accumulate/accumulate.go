// Package accumulate tracks, per dimension, the billable volume
// accumulated across a session's sub-periods and applies step_size
// billing per §4.4: the billed volume equals the measured volume for
// every sub-period except the last sub-period of a price-component's
// contiguous activation run, which absorbs the run's step-size
// round-up remainder. This keeps the sum of per-sub-period billed
// volumes equal to the step-rounded session total (the Conservation
// property), while every non-final line still reports its own
// measured volume.
//
// "Last active sub-period" is only known in retrospect — detected by
// the component's key going unselected on the following sub-period, or
// by the session ending — so entries are recorded provisionally during
// the walk and patched in a terminal pass, per the teacher's
// provisional-capping-then-aggregate pattern in capping.go.
package accumulate

import (
	"sort"

	"github.com/shopspring/decimal"

	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/money"
	"ocpi-tariffs/internal/ocpi"
)

// Key identifies which price component "owns" a run: the tariff
// element that won the dimension, and which dimension. The same
// element can independently win ENERGY and TIME in the same
// sub-period; each is tracked as its own run.
type Key struct {
	ElementIndex int
	Dimension    ocpi.DimensionType
}

// Entry is one sub-period's provisional contribution to a run.
type Entry struct {
	SubPeriod calendar.Interval
	Measured  money.Volume
	StepSize  int
	Price     money.Price
	VAT       *decimal.Decimal
}

// Billed is a finalized, step-size-rounded entry ready for pricing.
type Billed struct {
	Key       Key
	SubPeriod calendar.Interval
	Measured  money.Volume
	Billed    money.Volume
	Price     money.Price
	VAT       *decimal.Decimal
}

type run struct {
	key     Key
	entries []Entry
}

// Tracker accumulates runs across a session's sub-periods. It is
// call-scoped: one Tracker lives for the duration of one Pricer.Calculate
// invocation and is never shared.
type Tracker struct {
	open   map[Key]*run
	billed []Billed
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{open: make(map[Key]*run)}
}

// Record appends entry to the open run for key, starting a new run if
// none is open.
func (t *Tracker) Record(key Key, entry Entry) {
	r, ok := t.open[key]
	if !ok {
		r = &run{key: key}
		t.open[key] = r
	}
	r.entries = append(r.entries, entry)
}

// CloseExcept finalizes (step-rounds and moves to results) every open
// run whose key is not in stillActive — those runs did not win their
// dimension on the current sub-period, so their last entry was the
// final sub-period of that run.
func (t *Tracker) CloseExcept(stillActive map[Key]bool) error {
	for _, key := range t.sortedOpenKeys() {
		if stillActive[key] {
			continue
		}
		if err := t.finalize(t.open[key]); err != nil {
			return err
		}
		delete(t.open, key)
	}
	return nil
}

// CloseAll finalizes every remaining open run; call once after the
// last ChargingPeriod has been walked.
func (t *Tracker) CloseAll() error {
	for _, key := range t.sortedOpenKeys() {
		if err := t.finalize(t.open[key]); err != nil {
			return err
		}
		delete(t.open, key)
	}
	return nil
}

// sortedOpenKeys returns the open runs' keys in a fixed order so
// finalization (and therefore the order Results() appends entries) does
// not depend on Go's randomized map iteration, preserving determinism.
func (t *Tracker) sortedOpenKeys() []Key {
	keys := make([]Key, 0, len(t.open))
	for k := range t.open {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ElementIndex != keys[j].ElementIndex {
			return keys[i].ElementIndex < keys[j].ElementIndex
		}
		return keys[i].Dimension < keys[j].Dimension
	})
	return keys
}

// Results returns every finalized entry recorded so far, in the order
// runs were closed (not session order; callers that need session order
// should sort by SubPeriod.Start).
func (t *Tracker) Results() []Billed {
	return t.billed
}

func (t *Tracker) finalize(r *run) error {
	if len(r.entries) == 0 {
		return nil
	}

	total := money.ZeroVolume
	for _, e := range r.entries {
		var err error
		total, err = total.Add(e.Measured)
		if err != nil {
			return err
		}
	}

	last := r.entries[len(r.entries)-1]
	billedTotal, err := ceilForDimension(total, r.key.Dimension, last.StepSize)
	if err != nil {
		return err
	}
	remainder, err := billedTotal.Sub(total)
	if err != nil {
		return err
	}

	for i, e := range r.entries {
		billedVolume := e.Measured
		if i == len(r.entries)-1 {
			var err error
			billedVolume, err = e.Measured.Add(remainder)
			if err != nil {
				return err
			}
		}
		t.billed = append(t.billed, Billed{
			Key:       r.key,
			SubPeriod: e.SubPeriod,
			Measured:  e.Measured,
			Billed:    billedVolume,
			Price:     e.Price,
			VAT:       e.VAT,
		})
	}
	return nil
}

func ceilForDimension(v money.Volume, dim ocpi.DimensionType, stepSize int) (money.Volume, error) {
	switch dim {
	case ocpi.DimensionEnergy:
		return v.CeilToStepWh(stepSize)
	case ocpi.DimensionTime, ocpi.DimensionParkingTime:
		return v.CeilToStepSeconds(stepSize)
	default:
		return v, nil
	}
}
