// Package period subdivides a CDR's ChargingPeriod into the maximal
// sub-periods over which the set of winning tariff elements is
// constant, by merging the calendar's local-midnight cut points with
// every tariff element's calendar-gate cut points (§4.2, §4.5.2).
// Threshold-gate evaluation itself (min_kwh, min_duration, ...) is the
// Restriction Evaluator's concern, applied per sub-period once it is
// known; this package only finds where the cuts must go.
package period

import (
	"sort"
	"time"

	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/ocpi"
	"ocpi-tariffs/internal/restriction"
)

// Subdivide returns the ordered, non-overlapping sub-intervals of
// [period.Start, period.End) over which no element's restriction
// transitions between holding and not holding — i.e. the maximal
// intervals a single pass of restriction evaluation can treat as one
// unit per §4.3/§4.5.
func Subdivide(period calendar.Interval, elements []ocpi.TariffElement, zone *time.Location) ([]calendar.Interval, error) {
	cuts := calendarCuts(period, zone)

	for _, el := range elements {
		elCuts, err := restriction.CalendarCutPoints(period, el.Restriction, zone)
		if err != nil {
			return nil, err
		}
		cuts = append(cuts, elCuts...)
	}

	return buildIntervals(period, cuts), nil
}

// calendarCuts returns the local-midnight boundaries within period,
// which always split a sub-period regardless of any restriction (day
// identity changes at midnight).
func calendarCuts(period calendar.Interval, zone *time.Location) []time.Time {
	dayChunks := calendar.Split(period.Start, period.End, zone)
	var cuts []time.Time
	for i, chunk := range dayChunks {
		if i == 0 {
			continue
		}
		cuts = append(cuts, chunk.Start)
	}
	return cuts
}

// buildIntervals merges cuts (which may contain duplicates and need
// not be sorted), clips them to period bounds, and produces the
// resulting consecutive sub-intervals.
func buildIntervals(period calendar.Interval, cuts []time.Time) []calendar.Interval {
	filtered := cuts[:0:0]
	for _, c := range cuts {
		if c.After(period.Start) && c.Before(period.End) {
			filtered = append(filtered, c)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Before(filtered[j]) })

	points := make([]time.Time, 0, len(filtered)+2)
	points = append(points, period.Start)
	var last time.Time = period.Start
	for _, c := range filtered {
		if c.Equal(last) {
			continue
		}
		points = append(points, c)
		last = c
	}
	points = append(points, period.End)

	intervals := make([]calendar.Interval, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		if points[i].Equal(points[i+1]) {
			continue
		}
		intervals = append(intervals, calendar.Interval{Start: points[i], End: points[i+1]})
	}
	return intervals
}
