package scheduler

import (
	"sort"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
	"github.com/arnavshah/trip-planner-go/pkg/constraints"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

// seedExisting places the caller's existing assignments without replacement.
// Required visits go first so they win collisions against optional ones.
func seedExisting(c *Context) {
	p := c.problem
	existing := make([]models.Assignment, len(p.Existing))
	copy(existing, p.Existing)

	rank := func(a models.Assignment) int {
		if p.IsRequired(a.GroupID, a.LocationID) {
			return 0
		}
		return 1
	}
	sort.SliceStable(existing, func(i, j int) bool {
		a, b := existing[i], existing[j]
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		ai, _ := p.SlotIndex(a.TimeSlot)
		bi, _ := p.SlotIndex(b.TimeSlot)
		if ai != bi {
			return ai < bi
		}
		return a.LocationID < b.LocationID
	})

	for _, a := range existing {
		a.Source = models.SourceKeepExisting
		if reason := c.place(a, false); reason != "" {
			c.diag.DroppedExisting++
			c.drop(a, reason)
			continue
		}
		c.diag.KeptExisting++
	}
}

type candidate struct {
	assignment models.Assignment
	score      int
}

// placeRequired forces every uncovered required visit into the best cell of
// the group's range, evicting lower-priority occupants when needed.
func placeRequired(c *Context) {
	p := c.problem
	for _, pair := range p.RequiredPairs() {
		if c.Coverage(pair.GroupID, pair.LocationID) > 0 {
			continue
		}
		group, okG := p.Groups[pair.GroupID]
		loc, okL := p.Locations[pair.LocationID]
		if !okG || !okL {
			reason := ReasonUnknownGroup
			if okG {
				reason = ReasonUnknownLocation
			}
			c.diag.RequiredUnplaced = append(c.diag.RequiredUnplaced, UnplacedRequirement{CoveragePair: pair, Reason: reason})
			continue
		}

		best, ok := c.pick(candidates(c, group, loc))
		if !ok {
			c.diag.RequiredUnplaced = append(c.diag.RequiredUnplaced, UnplacedRequirement{CoveragePair: pair, Reason: ReasonNoCandidate})
			continue
		}
		if reason := c.place(best.assignment, true); reason != "" {
			// candidates are pre-filtered with the same checks
			c.diag.RequiredUnplaced = append(c.diag.RequiredUnplaced, UnplacedRequirement{CoveragePair: pair, Reason: reason})
			continue
		}
		c.diag.AddedRequired++
	}
}

// candidates enumerates every cell of the group's clamped range where loc
// is usable, scored by replacement penalty plus cell index.
func candidates(c *Context, group *models.Group, loc *models.Location) []candidate {
	p := c.problem
	start, end, ok := group.ActiveRange(p.Scope)
	if !ok {
		return nil
	}

	var out []candidate
	day := 0
	for date := range calendar.Range(start, end) {
		for si, slot := range p.SlotKeys {
			cellIndex := day*len(p.SlotKeys) + si
			if !constraints.LocationAvailable(loc, group, date, p.SlotWindows[slot]) {
				continue
			}

			penalty := 0
			cell := constraints.CellKey{GroupID: group.ID, Date: date, Slot: slot}
			if occupant, occupied := c.Occupant(cell); occupied {
				switch {
				case occupant.LocationID == loc.ID:
					// already a visit here; cannot happen while coverage is zero
					continue
				case p.IsRequired(group.ID, occupant.LocationID):
					if c.Coverage(group.ID, occupant.LocationID) <= 1 {
						continue
					}
					penalty = c.penalties.EvictRequired
				default:
					penalty = c.penalties.EvictOptional
				}
			}
			// an evicted occupant is always at another location, so it frees
			// nothing in loc's usage
			if !constraints.HasCapacity(c.usage, loc, date, slot, group.ParticipantCount, 0) {
				continue
			}

			out = append(out, candidate{
				assignment: models.Assignment{
					GroupID:          group.ID,
					LocationID:       loc.ID,
					Date:             date,
					TimeSlot:         slot,
					ParticipantCount: group.ParticipantCount,
					Source:           models.SourceAddRequired,
				},
				score: penalty + cellIndex,
			})
		}
		day++
	}
	return out
}

// pick returns the lowest-scored candidate. The generator is consulted only
// when several candidates share that score.
func (c *Context) pick(list []candidate) (candidate, bool) {
	if len(list) == 0 {
		return candidate{}, false
	}
	bestScore := list[0].score
	for _, cand := range list[1:] {
		if cand.score < bestScore {
			bestScore = cand.score
		}
	}
	var tied []candidate
	for _, cand := range list {
		if cand.score == bestScore {
			tied = append(tied, cand)
		}
	}
	return tied[c.rng.Intn(len(tied))], true
}

// reinsertEvicted retries evicted assignments in eviction order, same date
// first, then ascending dates, slots in priority order.
func reinsertEvicted(c *Context) {
	p := c.problem
	for _, a := range c.evicted {
		group, okG := p.Groups[a.GroupID]
		loc, okL := p.Locations[a.LocationID]
		if !okG || !okL {
			c.diag.ReinsertFailed++
			c.drop(a, ReasonReinsertFailed)
			continue
		}
		start, end, ok := group.ActiveRange(p.Scope)
		if !ok {
			c.diag.ReinsertFailed++
			c.drop(a, ReasonReinsertFailed)
			continue
		}

		dates := []calendar.Date{}
		if calendar.Contains(start, end, a.Date) {
			dates = append(dates, a.Date)
		}
		for d := range calendar.Range(start, end) {
			if d != a.Date {
				dates = append(dates, d)
			}
		}

		placed := false
		for _, date := range dates {
			for _, slot := range p.SlotKeys {
				cell := constraints.CellKey{GroupID: a.GroupID, Date: date, Slot: slot}
				if _, occupied := c.Occupant(cell); occupied {
					continue
				}
				if !constraints.LocationAvailable(loc, group, date, p.SlotWindows[slot]) {
					continue
				}
				if !constraints.HasCapacity(c.usage, loc, date, slot, a.ParticipantCount, 0) {
					continue
				}
				moved := a
				moved.Date = date
				moved.TimeSlot = slot
				moved.Source = models.SourceReinsertDropped
				c.commit(moved)
				placed = true
				break
			}
			if placed {
				break
			}
		}

		if placed {
			c.diag.Reinserted++
			continue
		}
		c.diag.ReinsertFailed++
		c.drop(a, ReasonReinsertFailed)
	}
}
