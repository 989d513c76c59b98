// Package tariffpricing is the public façade over the OCPI tariff
// pricing engine. It wraps the internal pipeline (period subdivision,
// restriction evaluation, step-size accumulation, report assembly)
// behind two entry points: Price, for a caller that already knows
// which Tariff applies, and PriceSession, for a caller holding a CDR
// whose embedded Tariffs must be tried in order.
package tariffpricing

import (
	"time"

	"ocpi-tariffs/internal/ocpi"
	"ocpi-tariffs/internal/pricer"
	"ocpi-tariffs/internal/report"
)

// Price computes the full cost breakdown of cdr against tariff,
// evaluating all local-time restrictions in zone. It returns a fatal
// *ocpi.Error for malformed input, arithmetic overflow, or an internal
// ledger inconsistency; a dimension with no matching tariff element is
// not fatal and instead surfaces as a zero-cost line in the Report.
func Price(cdr *ocpi.Cdr, tariff *ocpi.Tariff, zone *time.Location) (*report.Report, error) {
	if cdr == nil {
		return nil, ocpi.NewError(ocpi.InvalidInput, "cdr is nil")
	}
	if tariff == nil {
		return nil, ocpi.NewError(ocpi.InvalidInput, "tariff is nil")
	}
	if zone == nil {
		return nil, ocpi.NewError(ocpi.UnknownZone, "zone is nil")
	}
	return pricer.New(zone).Calculate(cdr, tariff)
}

// PriceSession prices cdr against each of its own embedded Tariffs, in
// order, returning the first Report that prices without a fatal
// error. It returns an ocpi.NoMatchingTariff error if cdr carries no
// Tariffs, or if every embedded Tariff fails with a fatal error.
func PriceSession(cdr *ocpi.Cdr, zone *time.Location) (*report.Report, error) {
	if cdr == nil {
		return nil, ocpi.NewError(ocpi.InvalidInput, "cdr is nil")
	}
	if len(cdr.Tariffs) == 0 {
		return nil, ocpi.NewError(ocpi.NoMatchingTariff, "cdr carries no embedded tariffs")
	}

	var lastErr error
	for i := range cdr.Tariffs {
		rep, err := Price(cdr, &cdr.Tariffs[i], zone)
		if err == nil {
			return rep, nil
		}
		lastErr = err
	}
	return nil, ocpi.NewError(ocpi.NoMatchingTariff, "no embedded tariff priced this session: "+lastErr.Error())
}
