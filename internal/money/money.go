// Package money provides exact decimal arithmetic and typed physical
// quantities (money, energy, power, duration) for the pricing engine.
//
// All values wrap shopspring/decimal.Decimal, which is itself
// arbitrary-precision and never overflows; the saturation ceiling
// (MaxMagnitude) and ErrOverflow below are this package's own added
// invariant, not a property of the underlying decimal library.
package money

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrOverflow is returned when an arithmetic result exceeds MaxMagnitude.
var ErrOverflow = errors.New("money: arithmetic overflow")

// MaxMagnitude is the saturation ceiling applied after every operation.
// 10^15 comfortably exceeds any plausible single-session cost or volume.
var MaxMagnitude = decimal.New(1, 15)

// PresentationScale is the OCPI presentation scale for money (2dp).
const PresentationScale = 2

// InternalScale is the OCPI internal money scale (4dp). This package
// does not round to it: money is carried at full precision until
// presentation rounding.
const InternalScale = 4

// VolumeScale is the scale energy/duration volumes are presented at
// (4dp); they are carried at full precision until then.
const VolumeScale = 4

func checkMagnitude(d decimal.Decimal) error {
	if d.Abs().GreaterThan(MaxMagnitude) {
		return fmt.Errorf("%w: magnitude %s exceeds ceiling", ErrOverflow, d.String())
	}
	return nil
}

// Money represents a monetary amount in the tariff/CDR currency.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity for Money.
var Zero = Money{d: decimal.Zero}

// NewMoney builds a Money from a decimal string, e.g. "0.25".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Money{d: d}, checkMagnitude(d)
}

// MoneyFromDecimal wraps an already-parsed decimal as Money.
func MoneyFromDecimal(d decimal.Decimal) Money { return Money{d: d} }

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Add returns m+o, saturation-checked.
func (m Money) Add(o Money) (Money, error) {
	r := m.d.Add(o.d)
	return Money{d: r}, checkMagnitude(r)
}

// Sub returns m-o, saturation-checked.
func (m Money) Sub(o Money) (Money, error) {
	r := m.d.Sub(o.d)
	return Money{d: r}, checkMagnitude(r)
}

// WithVAT returns m scaled by (1 + vatPercent/100). A nil vatPercent
// (no VAT) returns m unchanged.
func (m Money) WithVAT(vatPercent *decimal.Decimal) (Money, error) {
	if vatPercent == nil {
		return m, nil
	}
	factor := decimal.NewFromInt(1).Add(vatPercent.Div(decimal.NewFromInt(100)))
	r := m.d.Mul(factor)
	return Money{d: r}, checkMagnitude(r)
}

// RoundBank rounds m to scale decimal places using banker's rounding
// (half-to-even), the OCPI presentation rounding rule.
func (m Money) RoundBank(scale int32) Money {
	return Money{d: m.d.RoundBank(scale)}
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool { return m.d.IsZero() }

// String renders m at full internal precision.
func (m Money) String() string { return m.d.String() }

// Price is a per-unit rate (currency per kWh, per hour, etc).
type Price struct {
	d decimal.Decimal
}

// NewPrice builds a Price from a decimal string.
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("money: invalid price %q: %w", s, err)
	}
	return Price{d: d}, checkMagnitude(d)
}

// PriceFromDecimal wraps an already-parsed decimal as Price.
func PriceFromDecimal(d decimal.Decimal) Price { return Price{d: d} }

// MulVolume computes Money = Price x Volume. This is the only
// multiplication this package exposes between a rate and a quantity;
// there is deliberately no generic Mul to prevent mixing units
// (kWh x hours is not meaningful in this domain).
func (p Price) MulVolume(v Volume) (Money, error) {
	r := p.d.Mul(v.d)
	return Money{d: r}, checkMagnitude(r)
}

// Volume is a generic, unit-erased measured quantity (kWh, hours,
// sessions...). KWh and Hours below are thin, named constructors over
// the same representation so the accumulator package can share one
// volume-accumulation routine across dimensions while call sites stay
// self-documenting.
type Volume struct {
	d decimal.Decimal
}

// ZeroVolume is the additive identity for Volume.
var ZeroVolume = Volume{d: decimal.Zero}

// KWh constructs a Volume representing a quantity of energy in kWh.
func KWh(d decimal.Decimal) Volume { return Volume{d: d} }

// Hours constructs a Volume representing a duration in hours.
func Hours(d decimal.Decimal) Volume { return Volume{d: d} }

// HoursFromDuration converts a time.Duration to a decimal number of
// hours via its integer nanosecond count, never through a
// floating-point intermediate. A quotient that does not terminate is
// rounded to the decimal library's default division precision.
func HoursFromDuration(d time.Duration) Volume {
	return Volume{d: decimal.NewFromInt(d.Nanoseconds()).Div(decimal.NewFromInt(3600 * 1_000_000_000))}
}

// Count constructs a dimensionless Volume for count-based dimensions
// such as FLAT, which is applied once per session rather than measured.
func Count(n int64) Volume { return Volume{d: decimal.NewFromInt(n)} }

// Decimal exposes the underlying decimal value.
func (v Volume) Decimal() decimal.Decimal { return v.d }

// Add returns v+o, saturation-checked.
func (v Volume) Add(o Volume) (Volume, error) {
	r := v.d.Add(o.d)
	return Volume{d: r}, checkMagnitude(r)
}

// Sub returns v-o, saturation-checked. Negative results are permitted;
// callers that require non-negativity must check explicitly.
func (v Volume) Sub(o Volume) (Volume, error) {
	r := v.d.Sub(o.d)
	return Volume{d: r}, checkMagnitude(r)
}

// Mul scales v by a dimensionless decimal factor, used for prorating a
// period's total volume by a sub-interval's duration share.
func (v Volume) Mul(factor decimal.Decimal) (Volume, error) {
	r := v.d.Mul(factor)
	return Volume{d: r}, checkMagnitude(r)
}

// IsZero reports whether v is exactly zero.
func (v Volume) IsZero() bool { return v.d.IsZero() }

// IsNegative reports whether v is less than zero.
func (v Volume) IsNegative() bool { return v.d.IsNegative() }

// GreaterThanOrEqual reports whether v >= o.
func (v Volume) GreaterThanOrEqual(o Volume) bool { return v.d.GreaterThanOrEqual(o.d) }

// LessThan reports whether v < o.
func (v Volume) LessThan(o Volume) bool { return v.d.LessThan(o.d) }

// RoundBank rounds v to scale decimal places using banker's rounding.
func (v Volume) RoundBank(scale int32) Volume {
	return Volume{d: v.d.RoundBank(scale)}
}

// String renders v at full internal precision.
func (v Volume) String() string { return v.d.String() }

// CeilToStepWh rounds a kWh volume up to the next multiple of stepWh
// watt-hours. A stepSize of 0 means no rounding (billed == measured);
// this must never divide by the step, so it is checked first.
func (v Volume) CeilToStepWh(stepWh int) (Volume, error) {
	if stepWh <= 0 {
		return v, nil
	}
	return v.ceilToStepOfUnit(decimal.NewFromInt(1000), int64(stepWh))
}

// CeilToStepSeconds rounds an Hours volume up to the next multiple of
// stepSeconds seconds. A stepSize of 0 means no rounding.
func (v Volume) CeilToStepSeconds(stepSeconds int) (Volume, error) {
	if stepSeconds <= 0 {
		return v, nil
	}
	return v.ceilToStepOfUnit(decimal.NewFromInt(3600), int64(stepSeconds))
}

// ceilToStepOfUnit converts v to the step's native unit (Wh for energy,
// seconds for time) via unitsPerV, rounds up to the next multiple of
// step in that unit, then converts back.
func (v Volume) ceilToStepOfUnit(unitsPerV decimal.Decimal, step int64) (Volume, error) {
	inUnits := v.d.Mul(unitsPerV)
	stepDec := decimal.NewFromInt(step)
	quotient := inUnits.Div(stepDec)
	ceiled := quotient.Ceil()
	billedUnits := ceiled.Mul(stepDec)
	r := billedUnits.Div(unitsPerV)
	return Volume{d: r}, checkMagnitude(r)
}

// PriceCap mirrors OCPI's PriceType shape for min_price/max_price: an
// amount expressed both excluding and including VAT.
type PriceCap struct {
	ExclVat Money
	InclVat Money
}

// ClampCaps clamps an aggregate total against an optional min and max
// PriceCap, applied to the excl.-VAT total only; the incl.-VAT figure
// is left to the caller. Nil caps are no-ops. Modeled on the
// teacher's ApplyCapping: compute the adjusted value and whether a
// clamp occurred.
func ClampCaps(total Money, min, max *PriceCap) (adjusted Money, clamped bool) {
	adjusted = total
	if max != nil && adjusted.d.GreaterThan(max.ExclVat.d) {
		adjusted = max.ExclVat
		clamped = true
	}
	if min != nil && adjusted.d.LessThan(min.ExclVat.d) {
		adjusted = min.ExclVat
		clamped = true
	}
	return adjusted, clamped
}
