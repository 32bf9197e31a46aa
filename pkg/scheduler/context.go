package scheduler

import (
	"github.com/arnavshah/trip-planner-go/pkg/constraints"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

// Context is the mutable scratch state of one solver run. Every phase
// function receives it explicitly; nothing is shared between runs.
type Context struct {
	problem   *models.Problem
	penalties Penalties
	rng       *LCG

	usage     constraints.Usage
	coverage  constraints.Coverage
	occupancy map[constraints.CellKey]models.Assignment
	evicted   []models.Assignment

	diag Diagnostics
}

// NewContext creates empty bookkeeping for problem
func NewContext(problem *models.Problem, opts Options) *Context {
	penalties := DefaultPenalties
	if opts.Penalties != nil {
		penalties = *opts.Penalties
	}
	return &Context{
		problem:   problem,
		penalties: penalties,
		rng:       NewLCG(opts.Seed),
		usage:     constraints.Usage{},
		coverage:  constraints.Coverage{},
		occupancy: make(map[constraints.CellKey]models.Assignment),
		diag: Diagnostics{
			RequiredUnplaced: []UnplacedRequirement{},
			Dropped:          []DroppedAssignment{},
		},
	}
}

// Occupant returns the assignment holding cell, if any
func (c *Context) Occupant(cell constraints.CellKey) (models.Assignment, bool) {
	a, ok := c.occupancy[cell]
	return a, ok
}

// Coverage returns how many placed assignments satisfy (groupID, locationID)
func (c *Context) Coverage(groupID, locationID int64) int {
	return c.coverage.Count(groupID, locationID)
}

// place checks every hard constraint for a and commits it. With
// allowReplace, an occupant of the same cell is evicted first and queued
// for reinsertion. The returned reason is empty on success.
func (c *Context) place(a models.Assignment, allowReplace bool) string {
	p := c.problem
	group, ok := p.Groups[a.GroupID]
	if !ok {
		return ReasonUnknownGroup
	}
	loc, ok := p.Locations[a.LocationID]
	if !ok {
		return ReasonUnknownLocation
	}
	window, ok := p.SlotWindows[a.TimeSlot]
	if !ok {
		return ReasonUnknownSlot
	}
	start, end, ok := group.ActiveRange(p.Scope)
	if !ok || a.Date < start || a.Date > end {
		return ReasonOutOfRange
	}
	if !constraints.LocationAvailable(loc, group, a.Date, window) {
		return ReasonUnavailable
	}

	cell := constraints.CellOf(a)
	occupant, occupied := c.occupancy[cell]
	if occupied && !allowReplace {
		return ReasonOccupied
	}
	replacing := 0
	if occupied && occupant.LocationID == a.LocationID {
		replacing = occupant.ParticipantCount
	}
	if !constraints.HasCapacity(c.usage, loc, a.Date, a.TimeSlot, a.ParticipantCount, replacing) {
		return ReasonCapacity
	}

	if occupied {
		c.evict(occupant)
	}
	c.commit(a)
	return ""
}

func (c *Context) commit(a models.Assignment) {
	c.occupancy[constraints.CellOf(a)] = a
	c.usage.Add(a)
	c.coverage.Add(a)
}

func (c *Context) evict(a models.Assignment) {
	delete(c.occupancy, constraints.CellOf(a))
	c.usage.Remove(a)
	c.coverage.Remove(a)
	c.evicted = append(c.evicted, a)
	c.diag.Replaced++
}

func (c *Context) drop(a models.Assignment, reason string) {
	c.diag.Dropped = append(c.diag.Dropped, DroppedAssignment{Assignment: a, Reason: reason})
}

func (c *Context) result() *Result {
	out := make([]models.Assignment, 0, len(c.occupancy))
	for _, a := range c.occupancy {
		out = append(out, a)
	}
	SortAssignments(c.problem, out)
	return &Result{Assignments: out, Diagnostics: c.diag}
}
