// Package restriction evaluates an OCPI TariffRestriction against a
// candidate sub-interval, producing the ordered list of sub-intervals
// of activation per §4.3: calendar gates (time-of-day, date window,
// weekday) further subdivide the interval; consumption and
// current/power thresholds either hold for the whole interval or not
// at all, since periods are assumed well-formed (no threshold
// crossing occurs mid-interval without already being a period
// boundary).
package restriction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/money"
	"ocpi-tariffs/internal/ocpi"
)

// Snapshot is the ledger/period state the evaluator tests
// non-calendar gates against: cumulative session energy and
// chargeable duration at the start of the candidate interval, and the
// period's single reported current/power and reservation flag.
type Snapshot struct {
	CumEnergy   money.Volume
	CumDuration money.Volume
	Current     *decimal.Decimal
	Power       *decimal.Decimal
	Reservation bool
}

// Evaluate returns the ordered sub-intervals of interval during which
// every gate of r holds. A nil restriction is always active and
// returns interval unchanged.
func Evaluate(interval calendar.Interval, r *ocpi.TariffRestriction, zone *time.Location, snap Snapshot) ([]calendar.Interval, error) {
	if r == nil {
		return []calendar.Interval{interval}, nil
	}

	if !thresholdsHold(r, snap) {
		return nil, nil
	}

	return splitByCalendarGates(interval, r, zone)
}

// thresholdsHold evaluates the non-calendar gates, each of which
// either holds for the whole candidate interval or not at all.
// min_* is inclusive, max_* is exclusive, per OCPI convention.
func thresholdsHold(r *ocpi.TariffRestriction, snap Snapshot) bool {
	cumEnergy := snap.CumEnergy.Decimal()
	if r.MinKWh != nil && cumEnergy.LessThan(*r.MinKWh) {
		return false
	}
	if r.MaxKWh != nil && !cumEnergy.LessThan(*r.MaxKWh) {
		return false
	}

	cumDuration := snap.CumDuration.Decimal()
	if r.MinDuration != nil {
		minHours := decimal.NewFromInt(int64(*r.MinDuration)).Div(decimal.NewFromInt(3600))
		if cumDuration.LessThan(minHours) {
			return false
		}
	}
	if r.MaxDuration != nil {
		maxHours := decimal.NewFromInt(int64(*r.MaxDuration)).Div(decimal.NewFromInt(3600))
		if !cumDuration.LessThan(maxHours) {
			return false
		}
	}

	if r.MinCurrent != nil {
		if snap.Current == nil || snap.Current.LessThan(*r.MinCurrent) {
			return false
		}
	}
	if r.MaxCurrent != nil {
		if snap.Current == nil || !snap.Current.LessThan(*r.MaxCurrent) {
			return false
		}
	}
	if r.MinPower != nil {
		if snap.Power == nil || snap.Power.LessThan(*r.MinPower) {
			return false
		}
	}
	if r.MaxPower != nil {
		if snap.Power == nil || !snap.Power.LessThan(*r.MaxPower) {
			return false
		}
	}

	if r.Reservation != nil && *r.Reservation != snap.Reservation {
		return false
	}

	return true
}

// CalendarCutPoints returns the instants strictly inside interval at
// which r's calendar gates (day_of_week, date window, time-of-day
// window) transition between holding and not holding. The Period
// Subdivider merges these across every element of a Tariff to find
// the maximal sub-intervals over which the whole element set is
// constant; threshold gates never contribute cut points because they
// hold for a whole candidate interval or not at all (§4.3).
func CalendarCutPoints(interval calendar.Interval, r *ocpi.TariffRestriction, zone *time.Location) ([]time.Time, error) {
	if r == nil {
		return nil, nil
	}
	holding, err := splitByCalendarGates(interval, r, zone)
	if err != nil {
		return nil, err
	}

	var cuts []time.Time
	for _, iv := range holding {
		if iv.Start.After(interval.Start) {
			cuts = append(cuts, iv.Start)
		}
		if iv.End.Before(interval.End) {
			cuts = append(cuts, iv.End)
		}
	}
	return cuts, nil
}

// splitByCalendarGates applies the day_of_week / start_date-end_date /
// start_time-end_time gates, which are evaluated over time and further
// subdivide the interval. It first splits at local midnight (a
// constant-date chunk can be tested against day_of_week and the date
// window as a whole), then, within each surviving day chunk, further
// splits at the time-of-day window edges.
func splitByCalendarGates(interval calendar.Interval, r *ocpi.TariffRestriction, zone *time.Location) ([]calendar.Interval, error) {
	dayChunks := calendar.Split(interval.Start, interval.End, zone)

	var result []calendar.Interval
	for _, chunk := range dayChunks {
		clock := calendar.Convert(chunk.Start, zone)

		if !weekdayAllowed(clock.Weekday, r.DayOfWeek) {
			continue
		}
		inDateWindow, err := dateWindowHolds(clock, r)
		if err != nil {
			return nil, err
		}
		if !inDateWindow {
			continue
		}

		windows, err := timeOfDayWindows(chunk, clock, r, zone)
		if err != nil {
			return nil, err
		}
		result = append(result, windows...)
	}

	return mergeAdjacent(result), nil
}

func weekdayAllowed(day time.Weekday, allowed []ocpi.Weekday) bool {
	if len(allowed) == 0 {
		return true
	}
	want, ok := weekdayName(day)
	if !ok {
		return false
	}
	for _, w := range allowed {
		if w == want {
			return true
		}
	}
	return false
}

func weekdayName(day time.Weekday) (ocpi.Weekday, bool) {
	switch day {
	case time.Monday:
		return ocpi.Monday, true
	case time.Tuesday:
		return ocpi.Tuesday, true
	case time.Wednesday:
		return ocpi.Wednesday, true
	case time.Thursday:
		return ocpi.Thursday, true
	case time.Friday:
		return ocpi.Friday, true
	case time.Saturday:
		return ocpi.Saturday, true
	case time.Sunday:
		return ocpi.Sunday, true
	default:
		return "", false
	}
}

// dateWindowHolds checks start_date (inclusive) / end_date (exclusive)
// against the chunk's local date.
func dateWindowHolds(clock calendar.LocalClock, r *ocpi.TariffRestriction) (bool, error) {
	if r.StartDate == nil && r.EndDate == nil {
		return true, nil
	}
	date := time.Date(clock.Year, clock.Month, clock.Day, 0, 0, 0, 0, time.UTC)
	if r.StartDate != nil {
		start, err := time.Parse("2006-01-02", *r.StartDate)
		if err != nil {
			return false, fmt.Errorf("restriction: invalid start_date %q: %w", *r.StartDate, err)
		}
		if date.Before(start) {
			return false, nil
		}
	}
	if r.EndDate != nil {
		end, err := time.Parse("2006-01-02", *r.EndDate)
		if err != nil {
			return false, fmt.Errorf("restriction: invalid end_date %q: %w", *r.EndDate, err)
		}
		if !date.Before(end) {
			return false, nil
		}
	}
	return true, nil
}

// timeOfDayWindows returns the sub-intervals of chunk (a single local
// calendar day) that fall within r's start_time/end_time window,
// which may wrap past midnight (e.g. 22:00-06:00 means 22:00-24:00
// union 00:00-06:00 of each selected day).
func timeOfDayWindows(chunk calendar.Interval, clock calendar.LocalClock, r *ocpi.TariffRestriction, zone *time.Location) ([]calendar.Interval, error) {
	if r.StartTime == nil && r.EndTime == nil {
		return []calendar.Interval{chunk}, nil
	}

	startMin, err := parseClockMinutes(r.StartTime, 0)
	if err != nil {
		return nil, err
	}
	endMin, err := parseClockMinutes(r.EndTime, 24*60)
	if err != nil {
		return nil, err
	}

	// local wall-clock instant of the chunk's day at minutes past
	// midnight; time.Date resolves it in zone, so DST days are handled
	// (1440 normalizes to the next local midnight).
	at := func(minutes int) time.Time {
		return time.Date(clock.Year, clock.Month, clock.Day, 0, minutes, 0, 0, zone)
	}

	var windows []calendar.Interval
	if startMin <= endMin {
		windows = append(windows, calendar.Interval{Start: at(startMin), End: at(endMin)})
	} else {
		// wraps past midnight: [start,24:00) union [00:00,end)
		windows = append(windows,
			calendar.Interval{Start: at(startMin), End: at(24 * 60)},
			calendar.Interval{Start: at(0), End: at(endMin)},
		)
	}

	var result []calendar.Interval
	for _, w := range windows {
		if iv, ok := intersect(chunk, w); ok {
			result = append(result, iv)
		}
	}
	return result, nil
}

func parseClockMinutes(s *string, fallback int) (int, error) {
	if s == nil {
		return fallback, nil
	}
	t, err := time.Parse("15:04", *s)
	if err != nil {
		return 0, fmt.Errorf("restriction: invalid time %q: %w", *s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func intersect(a, b calendar.Interval) (calendar.Interval, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return calendar.Interval{}, false
	}
	return calendar.Interval{Start: start, End: end}, true
}

// mergeAdjacent coalesces touching intervals produced across day-chunk
// boundaries (e.g. an overnight window's tail on one day and head on
// the next) into single intervals.
func mergeAdjacent(intervals []calendar.Interval) []calendar.Interval {
	if len(intervals) == 0 {
		return nil
	}
	merged := []calendar.Interval{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if iv.Start.Equal(last.End) {
			last.End = iv.End
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
