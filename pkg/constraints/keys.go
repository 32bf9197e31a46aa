package constraints

import (
	"fmt"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

// CellKey identifies one group's occupancy of a calendar cell.
// A group holds at most one assignment per CellKey.
type CellKey struct {
	GroupID int64
	Date    calendar.Date
	Slot    string
}

func (k CellKey) String() string {
	return fmt.Sprintf("%d|%s|%s", k.GroupID, k.Date, k.Slot)
}

// UsageKey identifies a location at a calendar cell for capacity accounting
type UsageKey struct {
	Date       calendar.Date
	Slot       string
	LocationID int64
}

func (k UsageKey) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Date, k.Slot, k.LocationID)
}

// CoverageKey identifies a (group, location) visit
type CoverageKey struct {
	GroupID    int64
	LocationID int64
}

func (k CoverageKey) String() string {
	return fmt.Sprintf("%d|%d", k.GroupID, k.LocationID)
}

// CellOf builds the occupancy key of an assignment
func CellOf(a models.Assignment) CellKey {
	return CellKey{GroupID: a.GroupID, Date: a.Date, Slot: a.TimeSlot}
}

// UsageOf builds the capacity key of an assignment
func UsageOf(a models.Assignment) UsageKey {
	return UsageKey{Date: a.Date, Slot: a.TimeSlot, LocationID: a.LocationID}
}

// CoverageOf builds the coverage key of an assignment
func CoverageOf(a models.Assignment) CoverageKey {
	return CoverageKey{GroupID: a.GroupID, LocationID: a.LocationID}
}

// Usage tallies participants per usage key
type Usage map[UsageKey]int

// Used returns the tally for k; safe on a nil map
func (u Usage) Used(k UsageKey) int {
	return u[k]
}

// Add records a's participants
func (u Usage) Add(a models.Assignment) {
	u[UsageOf(a)] += a.ParticipantCount
}

// Remove releases a's participants
func (u Usage) Remove(a models.Assignment) {
	k := UsageOf(a)
	u[k] -= a.ParticipantCount
	if u[k] <= 0 {
		delete(u, k)
	}
}

// Coverage counts assignments per (group, location)
type Coverage map[CoverageKey]int

// Count returns the coverage of (groupID, locationID)
func (c Coverage) Count(groupID, locationID int64) int {
	return c[CoverageKey{GroupID: groupID, LocationID: locationID}]
}

// Add counts a
func (c Coverage) Add(a models.Assignment) {
	c[CoverageOf(a)]++
}

// Remove uncounts a
func (c Coverage) Remove(a models.Assignment) {
	k := CoverageOf(a)
	c[k]--
	if c[k] <= 0 {
		delete(c, k)
	}
}
