// Package ocpi carries the OCPI 2.2.1 domain types this engine prices
// against (Tariff, TariffElement, PriceComponent, TariffRestriction,
// Cdr, ChargingPeriod, CdrDimension) and their JSON ingestion. JSON
// ingestion is an external collaborator per this engine's scope: kept
// deliberately thin, struct-tag validated, with no OCPI 2.1.1
// up-conversion.
package ocpi

import (
	"github.com/shopspring/decimal"
)

// DimensionType is one of the billable dimensions a PriceComponent or
// CdrDimension can carry.
type DimensionType string

const (
	DimensionEnergy      DimensionType = "ENERGY"
	DimensionTime        DimensionType = "TIME"
	DimensionParkingTime DimensionType = "PARKING_TIME"
	DimensionFlat        DimensionType = "FLAT"
	DimensionCurrent     DimensionType = "CURRENT"
	DimensionPower       DimensionType = "POWER"
	DimensionReservation DimensionType = "RESERVATION"
)

// Weekday mirrors OCPI's DayOfWeek enum, spelled out rather than
// mapped onto time.Weekday so restriction JSON round-trips verbatim.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// PriceComponent is a price per unit of a single dimension, with
// optional VAT and a step_size billing increment.
type PriceComponent struct {
	Type     DimensionType    `json:"type" validate:"required"`
	Price    decimal.Decimal  `json:"price" validate:"required"`
	VAT      *decimal.Decimal `json:"vat,omitempty"`
	StepSize int              `json:"step_size" validate:"gte=0"`
}

// TariffRestriction is the conjunction of gates that must all hold for
// the owning TariffElement to be active over a sub-interval.
type TariffRestriction struct {
	StartTime    *string          `json:"start_time,omitempty"`    // "HH:MM" local
	EndTime      *string          `json:"end_time,omitempty"`      // "HH:MM" local, may wrap past midnight
	StartDate    *string          `json:"start_date,omitempty"`    // "YYYY-MM-DD" local, inclusive
	EndDate      *string          `json:"end_date,omitempty"`      // "YYYY-MM-DD" local, exclusive
	DayOfWeek    []Weekday        `json:"day_of_week,omitempty"`
	MinKWh       *decimal.Decimal `json:"min_kwh,omitempty"`
	MaxKWh       *decimal.Decimal `json:"max_kwh,omitempty"`
	MinCurrent   *decimal.Decimal `json:"min_current,omitempty"`
	MaxCurrent   *decimal.Decimal `json:"max_current,omitempty"`
	MinPower     *decimal.Decimal `json:"min_power,omitempty"`
	MaxPower     *decimal.Decimal `json:"max_power,omitempty"`
	MinDuration  *int             `json:"min_duration,omitempty"` // seconds
	MaxDuration  *int             `json:"max_duration,omitempty"` // seconds
	Reservation  *bool            `json:"reservation,omitempty"`
}

// TariffElement bundles an ordered set of PriceComponents gated by one
// optional TariffRestriction. An element with no restriction is always
// active. Ordering among elements in a Tariff is significant: the
// first element whose restriction currently holds governs each
// dimension it defines.
type TariffElement struct {
	PriceComponents []PriceComponent   `json:"price_components" validate:"required,min=1,dive"`
	Restriction     *TariffRestriction `json:"restriction,omitempty"`
}

// PriceCap mirrors OCPI's PriceType: an amount expressed both
// excluding and including VAT.
type PriceCap struct {
	ExclVat decimal.Decimal `json:"excl_vat" validate:"required"`
	InclVat decimal.Decimal `json:"incl_vat" validate:"required"`
}

// EnergyMix is accepted on ingestion as informational metadata; it
// never affects pricing and is not carried into the Report.
type EnergyMix struct {
	IsGreenEnergy bool `json:"is_green_energy"`
}

// Tariff is the ordered sequence of pricing elements applicable to a
// session, plus currency and optional price caps and display metadata.
type Tariff struct {
	ID        string          `json:"id" validate:"required"`
	Currency  string          `json:"currency" validate:"required,len=3"`
	Elements  []TariffElement `json:"elements" validate:"required,min=1,dive"`
	MinPrice  *PriceCap       `json:"min_price,omitempty"`
	MaxPrice  *PriceCap       `json:"max_price,omitempty"`
	EnergyMix *EnergyMix      `json:"energy_mix,omitempty"`
	TariffAltText []DisplayText `json:"tariff_alt_text,omitempty"`
	TariffAltURL  *string       `json:"tariff_alt_url,omitempty"`
}

// DisplayText is an OCPI language/text pair; accepted on ingestion,
// never priced, and not carried into the Report.
type DisplayText struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// CdrDimension is one reported measurement within a ChargingPeriod.
type CdrDimension struct {
	Type   DimensionType   `json:"type" validate:"required"`
	Volume decimal.Decimal `json:"volume" validate:"required"`
}

// ChargingPeriod is a span of a session's CDR starting at
// StartDateTime and ending where the next period begins (or, for the
// final period, at the session's end). Periods are assumed
// well-formed: any point of price change within a session must
// already be a period boundary.
type ChargingPeriod struct {
	StartDateTime string         `json:"start_date_time" validate:"required"`
	Dimensions    []CdrDimension `json:"dimensions" validate:"required,min=1,dive"`
	TariffID      *string        `json:"tariff_id,omitempty"`
}

// Cdr is the authoritative record of a charging session: metadata plus
// the ordered sequence of ChargingPeriods.
type Cdr struct {
	Version         string           `json:"version" validate:"required"`
	ID              string           `json:"id" validate:"required"`
	StartDateTime   string           `json:"start_date_time" validate:"required"`
	EndDateTime     string           `json:"end_date_time" validate:"required"`
	Currency        string           `json:"currency" validate:"required,len=3"`
	ChargingPeriods []ChargingPeriod `json:"charging_periods" validate:"required,min=1,dive"`
	Tariffs         []Tariff         `json:"tariffs,omitempty"`
	TotalEnergy     decimal.Decimal  `json:"total_energy"`
	TotalTime       decimal.Decimal  `json:"total_time"` // hours
	TotalCost       *PriceCap        `json:"total_cost,omitempty"`
}

// Dimension returns the first CdrDimension of the given type on the
// period, and whether one was present.
func (p ChargingPeriod) Dimension(t DimensionType) (CdrDimension, bool) {
	for _, d := range p.Dimensions {
		if d.Type == t {
			return d, true
		}
	}
	return CdrDimension{}, false
}

// HasDimension reports whether the period carries a dimension of type t.
func (p ChargingPeriod) HasDimension(t DimensionType) bool {
	_, ok := p.Dimension(t)
	return ok
}
