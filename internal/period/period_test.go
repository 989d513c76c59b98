package period_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/ocpi"
	"ocpi-tariffs/internal/period"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	z, err := time.LoadLocation(name)
	require.NoError(t, err)
	return z
}

func TestSubdivide_NoRestrictionsNoSplit(t *testing.T) {
	zone := mustZone(t, "UTC")
	p := calendar.Interval{
		Start: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	}
	got, err := period.Subdivide(p, []ocpi.TariffElement{{}}, zone)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p, got[0])
}

func TestSubdivide_SplitsAtRestrictionTimeEdge(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	start := "21:00"
	p := calendar.Interval{
		// 20:00 CET -> 22:00 CET
		Start: time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 10, 21, 0, 0, 0, time.UTC),
	}
	elements := []ocpi.TariffElement{
		{Restriction: &ocpi.TariffRestriction{StartTime: &start}},
	}

	got, err := period.Subdivide(p, elements, zone)
	require.NoError(t, err)
	require.Len(t, got, 2)
	cut := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, p.Start, got[0].Start)
	assert.Equal(t, cut, got[0].End)
	assert.Equal(t, cut, got[1].Start)
	assert.Equal(t, p.End, got[1].End)
}

func TestSubdivide_SplitsAtLocalMidnight(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	p := calendar.Interval{
		Start: time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC), // 20:00 CEST
		End:   time.Date(2024, 6, 2, 20, 0, 0, 0, time.UTC), // 22:00 CEST next day
	}
	got, err := period.Subdivide(p, nil, zone)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].End, got[1].Start)
}

func TestSubdivide_DeduplicatesCoincidentCuts(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	start := "21:00"
	p := calendar.Interval{
		Start: time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 10, 21, 0, 0, 0, time.UTC),
	}
	// two elements sharing the same time edge should not produce a
	// degenerate zero-length interval.
	elements := []ocpi.TariffElement{
		{Restriction: &ocpi.TariffRestriction{StartTime: &start}},
		{Restriction: &ocpi.TariffRestriction{StartTime: &start}},
	}

	got, err := period.Subdivide(p, elements, zone)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
