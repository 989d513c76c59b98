package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocpi-tariffs/internal/calendar"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	zone, err := time.LoadLocation(name)
	require.NoError(t, err)
	return zone
}

func TestSplit_SingleDayNoSplit(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	got := calendar.Split(start, end, zone)
	require.Len(t, got, 1)
	assert.Equal(t, start, got[0].Start)
	assert.Equal(t, end, got[0].End)
}

func TestSplit_CrossesLocalMidnight(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	// 2024-06-01 20:00 CEST -> 2024-06-02 22:00 CEST local; UTC offset is +02:00 in summer.
	start := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC) // 20:00 local
	end := time.Date(2024, 6, 2, 20, 0, 0, 0, time.UTC)   // 22:00 local next day

	got := calendar.Split(start, end, zone)
	require.Len(t, got, 2)
	assert.Equal(t, start, got[0].Start)
	assert.Equal(t, end, got[len(got)-1].End)
	// the cut lands at local midnight
	assert.Equal(t, got[0].End, got[1].Start)
	cut := calendar.Convert(got[0].End, zone)
	assert.Equal(t, 0, cut.MinutesOfDay)
}

func TestSplit_ConservesTotalDuration(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	// spans DST spring-forward (2024-03-31 02:00 CET -> 03:00 CEST).
	start := time.Date(2024, 3, 31, 0, 30, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 3, 30, 0, 0, time.UTC)

	got := calendar.Split(start, end, zone)
	var total time.Duration
	for _, iv := range got {
		total += iv.Duration()
	}
	assert.Equal(t, end.Sub(start), total)
}

func TestSplit_EmptyRange(t *testing.T) {
	zone := mustZone(t, "UTC")
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	got := calendar.Split(start, start, zone)
	assert.Nil(t, got)
}

func TestConvert_Weekday(t *testing.T) {
	zone := mustZone(t, "Europe/Amsterdam")
	instant := time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC) // Tuesday 00:00 local (still Monday in UTC)
	got := calendar.Convert(instant, zone)
	assert.Equal(t, time.Tuesday, got.Weekday)
	assert.Equal(t, 0, got.MinutesOfDay)
}
