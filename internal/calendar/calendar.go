// Package calendar converts between UTC instants and local wall-clock
// values in a configured IANA zone, and enumerates the maximal
// sub-intervals of a UTC interval over which the local calendar date
// is constant. Time-of-day window edges (a restriction's start_time/
// end_time) are not split here; that is the Restriction Evaluator's
// concern, which further subdivides a Calendar-split interval.
package calendar

import (
	"time"
)

// LocalClock is the local wall-clock decomposition of a UTC instant in
// a given zone, derived via time.Time.In(zone) — never by arithmetic
// on raw minute offsets, so DST transitions are handled correctly by
// the standard library's zone database.
type LocalClock struct {
	Weekday      time.Weekday
	Year         int
	Month        time.Month
	Day          int
	MinutesOfDay int // 0-1439, local wall-clock minutes since local midnight
}

// Convert derives the local wall-clock decomposition of instant in zone.
func Convert(instant time.Time, zone *time.Location) LocalClock {
	local := instant.In(zone)
	return LocalClock{
		Weekday:      local.Weekday(),
		Year:         local.Year(),
		Month:        local.Month(),
		Day:          local.Day(),
		MinutesOfDay: local.Hour()*60 + local.Minute(),
	}
}

// Interval is a half-open UTC time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the exact UTC duration of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Split enumerates the maximal sub-intervals of [start, end) over
// which the local calendar date (in zone) is constant — i.e. it cuts
// at each local midnight. The cut points are computed by walking from
// the first local midnight strictly after start, one calendar day at a
// time, stopping once a cut would land at or after end; this composes
// a finite ordered set of cut points with [start, end) rather than
// iterating minute-by-minute.
func Split(start, end time.Time, zone *time.Location) []Interval {
	if !end.After(start) {
		return nil
	}

	var intervals []Interval
	cursor := start
	for {
		nextMidnight := nextLocalMidnight(cursor, zone)
		if !nextMidnight.Before(end) {
			intervals = append(intervals, Interval{Start: cursor, End: end})
			return intervals
		}
		intervals = append(intervals, Interval{Start: cursor, End: nextMidnight})
		cursor = nextMidnight
	}
}

// LoadZone resolves an IANA zone identifier (e.g. "Europe/Amsterdam").
// Callers needing the engine's UnknownZone error kind should wrap a
// non-nil error themselves; this package has no dependency on the
// error-kind vocabulary that lives in internal/ocpi.
func LoadZone(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}

// nextLocalMidnight returns the UTC instant of the next local midnight
// strictly after t in zone.
func nextLocalMidnight(t time.Time, zone *time.Location) time.Time {
	local := t.In(zone)
	y, m, d := local.Date()
	midnightToday := time.Date(y, m, d, 0, 0, 0, 0, zone)
	if midnightToday.After(local) {
		return midnightToday
	}
	return time.Date(y, m, d+1, 0, 0, 0, 0, zone)
}
