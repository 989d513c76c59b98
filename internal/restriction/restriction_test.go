package restriction_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/money"
	"ocpi-tariffs/internal/ocpi"
	"ocpi-tariffs/internal/restriction"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	z, err := time.LoadLocation(name)
	require.NoError(t, err)
	return z
}

func TestEvaluate_NilRestrictionAlwaysActive(t *testing.T) {
	zone := mustZone(t, "UTC")
	iv := calendar.Interval{
		Start: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	}
	got, err := restriction.Evaluate(iv, nil, zone, restriction.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, []calendar.Interval{iv}, got)
}

func TestEvaluate_TimeWindowWrapsMidnight(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	start := "21:00"
	end := "07:00"
	r := &ocpi.TariffRestriction{StartTime: &start, EndTime: &end}

	// 20:00 CET -> 22:00 CET (winter, CET = UTC+1)
	iv := calendar.Interval{
		Start: time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 10, 21, 0, 0, 0, time.UTC),
	}
	got, err := restriction.Evaluate(iv, r, zone, restriction.Snapshot{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	// only 21:00-22:00 local is within the window
	assert.Equal(t, time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC), got[0].Start)
	assert.Equal(t, iv.End, got[0].End)
}

func TestEvaluate_MinKWhThreshold(t *testing.T) {
	zone := mustZone(t, "UTC")
	min := decimal.RequireFromString("5")
	r := &ocpi.TariffRestriction{MinKWh: &min}
	iv := calendar.Interval{
		Start: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	}

	below, err := restriction.Evaluate(iv, r, zone, restriction.Snapshot{CumEnergy: money.KWh(decimal.RequireFromString("4"))})
	require.NoError(t, err)
	assert.Nil(t, below)

	atThreshold, err := restriction.Evaluate(iv, r, zone, restriction.Snapshot{CumEnergy: money.KWh(decimal.RequireFromString("5"))})
	require.NoError(t, err)
	assert.Equal(t, []calendar.Interval{iv}, atThreshold)
}

func TestEvaluate_MaxKWhExclusive(t *testing.T) {
	zone := mustZone(t, "UTC")
	max := decimal.RequireFromString("10")
	r := &ocpi.TariffRestriction{MaxKWh: &max}
	iv := calendar.Interval{
		Start: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	}

	atMax, err := restriction.Evaluate(iv, r, zone, restriction.Snapshot{CumEnergy: money.KWh(decimal.RequireFromString("10"))})
	require.NoError(t, err)
	assert.Nil(t, atMax)

	belowMax, err := restriction.Evaluate(iv, r, zone, restriction.Snapshot{CumEnergy: money.KWh(decimal.RequireFromString("9.99"))})
	require.NoError(t, err)
	assert.Equal(t, []calendar.Interval{iv}, belowMax)
}

func TestEvaluate_DayOfWeek(t *testing.T) {
	zone := mustZone(t, "UTC")
	r := &ocpi.TariffRestriction{DayOfWeek: []ocpi.Weekday{ocpi.Saturday, ocpi.Sunday}}

	// 2024-06-03 is a Monday.
	monday := calendar.Interval{
		Start: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC),
	}
	got, err := restriction.Evaluate(monday, r, zone, restriction.Snapshot{})
	require.NoError(t, err)
	assert.Nil(t, got)

	// 2024-06-08 is a Saturday.
	saturday := calendar.Interval{
		Start: time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 8, 11, 0, 0, 0, time.UTC),
	}
	got, err = restriction.Evaluate(saturday, r, zone, restriction.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, []calendar.Interval{saturday}, got)
}

func TestEvaluate_Reservation(t *testing.T) {
	zone := mustZone(t, "UTC")
	want := true
	r := &ocpi.TariffRestriction{Reservation: &want}
	iv := calendar.Interval{
		Start: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	}

	notReserved, err := restriction.Evaluate(iv, r, zone, restriction.Snapshot{Reservation: false})
	require.NoError(t, err)
	assert.Nil(t, notReserved)

	reserved, err := restriction.Evaluate(iv, r, zone, restriction.Snapshot{Reservation: true})
	require.NoError(t, err)
	assert.Equal(t, []calendar.Interval{iv}, reserved)
}
