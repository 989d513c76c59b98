package tariffpricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tariffpricing "ocpi-tariffs"
	"ocpi-tariffs/internal/ocpi"
)

func priceComponent(dim ocpi.DimensionType, price string, stepSize int) ocpi.PriceComponent {
	return ocpi.PriceComponent{Type: dim, Price: decimal.RequireFromString(price), StepSize: stepSize}
}

func TestPrice_SimpleEnergyTariff(t *testing.T) {
	zone := time.UTC
	tariff := &ocpi.Tariff{
		ID:       "t1",
		Currency: "EUR",
		Elements: []ocpi.TariffElement{
			{PriceComponents: []ocpi.PriceComponent{priceComponent(ocpi.DimensionEnergy, "0.25", 0)}},
		},
	}
	cdr := &ocpi.Cdr{
		ID: "cdr-1", Version: "2.2.1", Currency: "EUR",
		StartDateTime: "2024-06-01T10:00:00Z",
		EndDateTime:   "2024-06-01T11:00:00Z",
		ChargingPeriods: []ocpi.ChargingPeriod{
			{StartDateTime: "2024-06-01T10:00:00Z", Dimensions: []ocpi.CdrDimension{
				{Type: ocpi.DimensionEnergy, Volume: decimal.RequireFromString("4")},
			}},
		},
	}

	rep, err := tariffpricing.Price(cdr, tariff, zone)
	require.NoError(t, err)
	assert.True(t, rep.TotalExclVAT.Decimal().Equal(decimal.RequireFromString("1.00")))
}

func TestPrice_NilArgumentsAreRejected(t *testing.T) {
	_, err := tariffpricing.Price(nil, &ocpi.Tariff{}, time.UTC)
	require.Error(t, err)

	_, err = tariffpricing.Price(&ocpi.Cdr{}, nil, time.UTC)
	require.Error(t, err)

	_, err = tariffpricing.Price(&ocpi.Cdr{}, &ocpi.Tariff{}, nil)
	require.Error(t, err)
}

func TestPriceSession_TriesEmbeddedTariffsInOrder(t *testing.T) {
	zone := time.UTC
	// badTariff's TIME rate is large enough that pricing one hour of
	// charging overflows money.MaxMagnitude, so Price fails fatally and
	// PriceSession must move on to the next embedded tariff.
	badTariff := ocpi.Tariff{
		ID:       "bad",
		Currency: "EUR",
		Elements: []ocpi.TariffElement{
			{PriceComponents: []ocpi.PriceComponent{priceComponent(ocpi.DimensionTime, "9999999999999999", 0)}},
		},
	}
	goodTariff := ocpi.Tariff{
		ID:       "good",
		Currency: "EUR",
		Elements: []ocpi.TariffElement{
			{PriceComponents: []ocpi.PriceComponent{priceComponent(ocpi.DimensionEnergy, "0.25", 0)}},
		},
	}
	cdr := &ocpi.Cdr{
		ID: "cdr-2", Version: "2.2.1", Currency: "EUR",
		StartDateTime: "2024-06-01T10:00:00Z",
		EndDateTime:   "2024-06-01T11:00:00Z",
		ChargingPeriods: []ocpi.ChargingPeriod{
			{StartDateTime: "2024-06-01T10:00:00Z", Dimensions: []ocpi.CdrDimension{
				{Type: ocpi.DimensionEnergy, Volume: decimal.RequireFromString("4")},
			}},
		},
		Tariffs: []ocpi.Tariff{badTariff, goodTariff},
	}

	rep, err := tariffpricing.PriceSession(cdr, zone)
	require.NoError(t, err)
	assert.Equal(t, "good", rep.TariffID)
}

func TestPriceSession_NoEmbeddedTariffsIsNoMatchingTariff(t *testing.T) {
	cdr := &ocpi.Cdr{
		ID: "cdr-3", Version: "2.2.1", Currency: "EUR",
		StartDateTime: "2024-06-01T10:00:00Z",
		EndDateTime:   "2024-06-01T11:00:00Z",
		ChargingPeriods: []ocpi.ChargingPeriod{
			{StartDateTime: "2024-06-01T10:00:00Z", Dimensions: []ocpi.CdrDimension{
				{Type: ocpi.DimensionEnergy, Volume: decimal.RequireFromString("4")},
			}},
		},
	}

	_, err := tariffpricing.PriceSession(cdr, time.UTC)
	require.Error(t, err)
	typed, ok := err.(*ocpi.Error)
	require.True(t, ok)
	assert.Equal(t, ocpi.NoMatchingTariff, typed.Kind)
}
