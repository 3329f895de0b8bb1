package model

import (
	"fmt"
	"time"
)

// DateRange is an immutable interval [start, end]. A range without an end is
// ongoing and extends indefinitely into the future.
type DateRange struct {
	start  time.Time
	end    time.Time
	hasEnd bool
}

// NewDateRange validates and builds a range. A nil end makes the range ongoing.
func NewDateRange(start time.Time, end *time.Time) (DateRange, error) {
	if end == nil {
		return DateRange{start: start}, nil
	}
	if end.Before(start) {
		return DateRange{}, ErrEndBeforeStart
	}
	return DateRange{start: start, end: *end, hasEnd: true}, nil
}

// NewClosedDateRange builds a range with both bounds present.
func NewClosedDateRange(start, end time.Time) (DateRange, error) {
	return NewDateRange(start, &end)
}

// NewOngoingDateRange builds a range with no end.
func NewOngoingDateRange(start time.Time) DateRange {
	return DateRange{start: start}
}

// Start returns the inclusive lower bound.
func (r DateRange) Start() time.Time {
	return r.start
}

// End returns the inclusive upper bound; ok is false for ongoing ranges.
func (r DateRange) End() (end time.Time, ok bool) {
	return r.end, r.hasEnd
}

// EndPtr returns a copy of the end bound, or nil when ongoing.
func (r DateRange) EndPtr() *time.Time {
	if !r.hasEnd {
		return nil
	}
	end := r.end
	return &end
}

// Contains reports whether t falls inside the range. Both bounds are inclusive.
func (r DateRange) Contains(t time.Time) bool {
	if t.Before(r.start) {
		return false
	}
	return !r.hasEnd || !t.After(r.end)
}

// IsOngoing reports whether the range has no end.
func (r DateRange) IsOngoing() bool {
	return !r.hasEnd
}

// HasEnded reports whether the end lies in the past.
func (r DateRange) HasEnded() bool {
	return r.hasEnd && r.end.Before(now())
}

// DurationInDays returns the number of whole days between start and end.
// ok is false for ongoing ranges, which have no duration.
func (r DateRange) DurationInDays() (days int, ok bool) {
	if !r.hasEnd {
		return 0, false
	}
	return int(r.end.Sub(r.start) / (24 * time.Hour)), true
}

// DurationInSeconds returns the length of the range in seconds; ok is false for ongoing ranges.
func (r DateRange) DurationInSeconds() (seconds float64, ok bool) {
	if !r.hasEnd {
		return 0, false
	}
	return r.end.Sub(r.start).Seconds(), true
}

// Equal reports whether both ranges describe the same instants.
func (r DateRange) Equal(other DateRange) bool {
	if !r.start.Equal(other.start) || r.hasEnd != other.hasEnd {
		return false
	}
	return !r.hasEnd || r.end.Equal(other.end)
}

// Formatted renders "Jan 2, 2006 - Jan 31, 2006" or "From Jan 2, 2006 (ongoing)".
func (r DateRange) Formatted() string {
	const layout = "Jan 2, 2006"
	if !r.hasEnd {
		return fmt.Sprintf("From %s (ongoing)", r.start.Format(layout))
	}
	return r.start.Format(layout) + " - " + r.end.Format(layout)
}

// ShortFormatted renders "Mar 1 - 31" within a month, "Mar 1 - Apr 2" across months.
func (r DateRange) ShortFormatted() string {
	const layout = "Jan 2"
	if !r.hasEnd {
		return "From " + r.start.Format(layout)
	}
	if r.start.Year() == r.end.Year() && r.start.Month() == r.end.Month() {
		return fmt.Sprintf("%s - %d", r.start.Format(layout), r.end.Day())
	}
	return r.start.Format(layout) + " - " + r.end.Format(layout)
}

func (r DateRange) String() string {
	return r.Formatted()
}

// endOfDay returns the last representable instant of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// monthRange covers a whole calendar month, ending on its last instant.
func monthRange(year int, month time.Month, loc *time.Location) (DateRange, error) {
	if month < time.January || month > time.December {
		return DateRange{}, ErrInvalidDateRange
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return NewClosedDateRange(start, end)
}

// CurrentMonth returns the range covering the current calendar month.
func CurrentMonth() (DateRange, error) {
	t := now()
	return monthRange(t.Year(), t.Month(), t.Location())
}

// LastMonth returns the range covering the previous calendar month.
func LastMonth() (DateRange, error) {
	t := now()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, -1, 0)
	return monthRange(first.Year(), first.Month(), t.Location())
}

// Month returns the range covering month of year in the local time zone.
func Month(year int, month time.Month) (DateRange, error) {
	return monthRange(year, month, time.Local)
}

// LastDays returns the range from n days ago up to now.
func LastDays(n int) (DateRange, error) {
	if n < 0 {
		return DateRange{}, ErrInvalidDateRange
	}
	end := now()
	return NewClosedDateRange(end.AddDate(0, 0, -n), end)
}

// Year returns the range covering a calendar year in the local time zone.
func Year(year int) (DateRange, error) {
	if year < 1 || year > 9999 {
		return DateRange{}, ErrInvalidDateRange
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	return NewClosedDateRange(start, endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local)))
}
