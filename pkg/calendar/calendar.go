package calendar

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// Layout is the only accepted textual date form.
const Layout = "2006-01-02"

// InvalidWeekday is returned by Weekday for dates that do not parse.
const InvalidWeekday = -1

// ErrInvalidDate is returned by ParseDate for malformed or impossible dates
var ErrInvalidDate = errors.New("calendar: invalid date")

// Date is a calendar day in YYYY-MM-DD form. Values built through ParseDate
// are always valid; the zero value is the empty (invalid) date.
//
// Because the layout is fixed-width and zero-padded, lexical order equals
// chronological order.
type Date string

// ParseDate validates text and returns it as a Date
func ParseDate(text string) (Date, error) {
	if !IsValidDate(text) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	return Date(text), nil
}

// IsValidDate reports whether text is YYYY-MM-DD and names a real day.
// time.Parse rejects out-of-range days such as 2024-02-30.
func IsValidDate(text string) bool {
	if len(text) != len(Layout) {
		return false
	}
	t, err := time.Parse(Layout, text)
	if err != nil {
		return false
	}
	return t.Format(Layout) == text
}

// Valid reports whether d is a real calendar day
func (d Date) Valid() bool {
	return IsValidDate(string(d))
}

func (d Date) String() string {
	return string(d)
}

// Time returns midnight UTC of d. ok is false for invalid dates.
func (d Date) Time() (time.Time, bool) {
	t, err := time.Parse(Layout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Weekday returns 0 (Sunday) through 6 (Saturday), or InvalidWeekday.
func Weekday(d Date) int {
	t, ok := d.Time()
	if !ok {
		return InvalidWeekday
	}
	return int(t.Weekday())
}

// Range yields every date from start to end inclusive in ascending order.
// The sequence is empty when either bound is invalid or start > end, and it
// can be ranged over any number of times.
func Range(start, end Date) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		from, ok := start.Time()
		if !ok {
			return
		}
		to, ok := end.Time()
		if !ok || from.After(to) {
			return
		}
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if !yield(Date(day.Format(Layout))) {
				return
			}
		}
	}
}

// Days collects Range into a slice
func Days(start, end Date) []Date {
	var out []Date
	for d := range Range(start, end) {
		out = append(out, d)
	}
	return out
}

// Intersect returns the overlap of [aStart,aEnd] and [bStart,bEnd].
// ok is false when any bound is invalid, either range is empty, or the
// ranges do not meet.
func Intersect(aStart, aEnd, bStart, bEnd Date) (start, end Date, ok bool) {
	if !aStart.Valid() || !aEnd.Valid() || !bStart.Valid() || !bEnd.Valid() {
		return "", "", false
	}
	if aStart > aEnd || bStart > bEnd {
		return "", "", false
	}
	start = aStart
	if bStart > start {
		start = bStart
	}
	end = aEnd
	if bEnd < end {
		end = bEnd
	}
	if start > end {
		return "", "", false
	}
	return start, end, true
}

// Contains reports whether d lies within [start,end]
func Contains(start, end, d Date) bool {
	return d.Valid() && start <= d && d <= end
}
