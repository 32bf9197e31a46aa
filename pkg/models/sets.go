package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
)

var (
	// ErrInvalidWeekday is returned for weekday values outside 0..6
	ErrInvalidWeekday = errors.New("models: weekday must be between 0 and 6")

	// ErrInvalidLocationID is returned for non-positive location ids
	ErrInvalidLocationID = errors.New("models: location id must be positive")
)

// Weekday is a validated day-of-week index, 0 = Sunday
type Weekday int

// ParseWeekday validates n as a weekday index
func ParseWeekday(n int) (Weekday, error) {
	if n < 0 || n > 6 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidWeekday, n)
	}
	return Weekday(n), nil
}

// WeekdaySet is a bitmask of weekdays
type WeekdaySet uint8

// Add returns the set with d included
func (s WeekdaySet) Add(d Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

// Has reports whether weekday index n is in the set. Out-of-range values
// are never members.
func (s WeekdaySet) Has(n int) bool {
	if n < 0 || n > 6 {
		return false
	}
	return s&(1<<uint(n)) != 0
}

// Days lists members in ascending order
func (s WeekdaySet) Days() []int {
	days := []int{}
	for n := 0; n <= 6; n++ {
		if s.Has(n) {
			days = append(days, n)
		}
	}
	return days
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Days())
}

// DateSet is a set of valid calendar dates
type DateSet map[calendar.Date]struct{}

// Add inserts d; invalid dates are rejected
func (s DateSet) Add(d calendar.Date) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", calendar.ErrInvalidDate, string(d))
	}
	s[d] = struct{}{}
	return nil
}

// Has reports membership; safe on a nil set
func (s DateSet) Has(d calendar.Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted lists members in ascending order
func (s DateSet) Sorted() []calendar.Date {
	out := make([]calendar.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s DateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// LocationSet is a set of positive location ids
type LocationSet map[int64]struct{}

// Add inserts id; non-positive ids are rejected
func (s LocationSet) Add(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLocationID, id)
	}
	s[id] = struct{}{}
	return nil
}

// Has reports membership; safe on a nil set
func (s LocationSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted lists members in ascending order
func (s LocationSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
