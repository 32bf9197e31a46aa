// Package audit re-checks a proposed assignment set from scratch. It shares
// the constraint predicates with the solver but none of its state.
package audit

import (
	"fmt"
	"sort"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
	"github.com/arnavshah/trip-planner-go/pkg/constraints"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

// Violation types
const (
	DuplicateCell       = "duplicate-cell"
	UnknownSlot         = "unknown-slot"
	InvalidDate         = "invalid-date"
	OutOfScope          = "out-of-scope"
	UnknownGroup        = "unknown-group"
	OutOfGroupRange     = "out-of-group-range"
	UnknownLocation     = "unknown-location"
	LocationUnavailable = "location-unavailable"
	InvalidParticipants = "invalid-participants"
	CapacityExceeded    = "capacity"
)

// Violation is one hard-constraint breach. Row is the index of the
// offending assignment, or -1 for aggregate violations such as capacity.
type Violation struct {
	Type       string        `json:"type"`
	Row        int           `json:"row"`
	GroupID    int64         `json:"groupId,omitempty"`
	LocationID int64         `json:"locationId,omitempty"`
	Date       calendar.Date `json:"date,omitempty"`
	TimeSlot   string        `json:"timeSlot,omitempty"`
	Detail     string        `json:"detail,omitempty"`
}

// Report is the validator output
type Report struct {
	HardViolations   []Violation           `json:"hardViolations"`
	MustVisitMissing []models.CoveragePair `json:"mustVisitMissing"`
}

// Feasible reports whether the assignment set breaks no hard constraint.
// Missing required visits are findings, not infeasibility.
func (r Report) Feasible() bool {
	return len(r.HardViolations) == 0
}

// Clean reports whether there is nothing at all to flag
func (r Report) Clean() bool {
	return r.Feasible() && len(r.MustVisitMissing) == 0
}

// Counts tallies violations by type
func (r Report) Counts() map[string]int {
	out := make(map[string]int)
	for _, v := range r.HardViolations {
		out[v.Type]++
	}
	return out
}

// Validate checks assignments against problem. It never panics on bad
// input; every check that cannot run for a row is itself a violation.
func Validate(p *models.Problem, assignments []models.Assignment) Report {
	report := Report{
		HardViolations:   []Violation{},
		MustVisitMissing: []models.CoveragePair{},
	}
	if p == nil {
		return report
	}

	seen := make(map[constraints.CellKey]int)
	usage := constraints.Usage{}
	coverage := constraints.Coverage{}

	for row, a := range assignments {
		flag := func(kind, detail string) {
			report.HardViolations = append(report.HardViolations, Violation{
				Type:       kind,
				Row:        row,
				GroupID:    a.GroupID,
				LocationID: a.LocationID,
				Date:       a.Date,
				TimeSlot:   a.TimeSlot,
				Detail:     detail,
			})
		}

		cell := constraints.CellOf(a)
		if first, dup := seen[cell]; dup {
			flag(DuplicateCell, fmt.Sprintf("cell %s already used by row %d", cell, first))
		} else {
			seen[cell] = row
		}

		window, slotOK := p.SlotWindows[a.TimeSlot]
		if !slotOK {
			flag(UnknownSlot, fmt.Sprintf("slot %q is not configured", a.TimeSlot))
		}

		dateOK := a.Date.Valid()
		if !dateOK {
			flag(InvalidDate, fmt.Sprintf("%q is not a calendar date", string(a.Date)))
		} else if !p.Scope.Contains(a.Date) {
			flag(OutOfScope, fmt.Sprintf("outside %s..%s", p.Scope.StartDate, p.Scope.EndDate))
		}

		group, groupOK := p.Groups[a.GroupID]
		if !groupOK {
			flag(UnknownGroup, "")
		} else if dateOK {
			start, end, ok := group.ActiveRange(p.Scope)
			if !ok || !calendar.Contains(start, end, a.Date) {
				flag(OutOfGroupRange, fmt.Sprintf("group active %s..%s", group.StartDate, group.EndDate))
			}
		}

		loc, locOK := p.Locations[a.LocationID]
		if !locOK {
			flag(UnknownLocation, "")
		} else if groupOK && slotOK && dateOK && !constraints.LocationAvailable(loc, group, a.Date, window) {
			flag(LocationUnavailable, "")
		}

		if a.ParticipantCount < 1 {
			flag(InvalidParticipants, fmt.Sprintf("participantCount %d", a.ParticipantCount))
		}

		usage.Add(a)
		coverage.Add(a)
	}

	report.HardViolations = append(report.HardViolations, capacityViolations(p, usage)...)

	for _, pair := range p.RequiredPairs() {
		if coverage.Count(pair.GroupID, pair.LocationID) == 0 {
			report.MustVisitMissing = append(report.MustVisitMissing, pair)
		}
	}
	return report
}

func capacityViolations(p *models.Problem, usage constraints.Usage) []Violation {
	keys := make([]constraints.UsageKey, 0, len(usage))
	for key := range usage {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	var out []Violation
	for _, key := range keys {
		loc, ok := p.Locations[key.LocationID]
		if !ok || loc.Unlimited() {
			continue
		}
		if used := usage[key]; used > loc.Capacity {
			out = append(out, Violation{
				Type:       CapacityExceeded,
				Row:        -1,
				LocationID: key.LocationID,
				Date:       key.Date,
				TimeSlot:   key.Slot,
				Detail:     fmt.Sprintf("%d participants, capacity %d", used, loc.Capacity),
			})
		}
	}
	return out
}
