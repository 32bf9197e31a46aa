package models

import (
	"sort"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
)

// AllGroups is the categorical tag that matches every group type
const AllGroups = "all"

// Built-in slot keys
const (
	SlotMorning   = "MORNING"
	SlotAfternoon = "AFTERNOON"
	SlotEvening   = "EVENING"
)

// Source tags the provenance of an output assignment
type Source string

const (
	SourceKeepExisting    Source = "keep-existing"
	SourceAddRequired     Source = "add-required"
	SourceReinsertDropped Source = "reinsert-dropped"
)

// Scope is the outer planning horizon of a run
type Scope struct {
	StartDate calendar.Date `json:"startDate"`
	EndDate   calendar.Date `json:"endDate"`
}

// Contains reports whether d falls inside the scope
func (s Scope) Contains(d calendar.Date) bool {
	return calendar.Contains(s.StartDate, s.EndDate, d)
}

// SlotWindow is a named time-of-day bucket in fractional hours
type SlotWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DefaultSlotWindows returns the built-in windows. Callers own the returned map.
func DefaultSlotWindows() map[string]SlotWindow {
	return map[string]SlotWindow{
		SlotMorning:   {Start: 6, End: 12},
		SlotAfternoon: {Start: 12, End: 18},
		SlotEvening:   {Start: 18, End: 20.75},
	}
}

// DefaultSlotKeys is the fallback slot list when none survive normalization
func DefaultSlotKeys() []string {
	return []string{SlotMorning, SlotAfternoon}
}

// Group represents a travelling party
type Group struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Type             string        `json:"type"`
	StartDate        calendar.Date `json:"startDate"`
	EndDate          calendar.Date `json:"endDate"`
	ParticipantCount int           `json:"participantCount"`
}

// ActiveRange clamps the group's own range to the scope
func (g *Group) ActiveRange(scope Scope) (start, end calendar.Date, ok bool) {
	return calendar.Intersect(g.StartDate, g.EndDate, scope.StartDate, scope.EndDate)
}

// HourWindow is an opening interval in fractional hours
type HourWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Covers reports whether the window fully contains [start,end]
func (w HourWindow) Covers(start, end float64) bool {
	return w.Start <= start && w.End >= end
}

// OpenHours holds per-weekday opening windows with an optional fallback.
// A nil *OpenHours on a Location means always open.
type OpenHours struct {
	Weekdays map[int][]HourWindow `json:"weekdays,omitempty"`
	Default  []HourWindow         `json:"default,omitempty"`
}

// Windows returns the windows configured for weekday, falling back to
// Default. ok is false when neither is configured.
func (o *OpenHours) Windows(weekday int) ([]HourWindow, bool) {
	if w, ok := o.Weekdays[weekday]; ok {
		return w, true
	}
	if o.Default != nil {
		return o.Default, true
	}
	return nil, false
}

// Location represents a bookable venue
type Location struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	TargetGroups    string     `json:"targetGroups"`
	IsActive        bool       `json:"isActive"`
	Capacity        int        `json:"capacity"` // 0 = unlimited
	BlockedWeekdays WeekdaySet `json:"blockedWeekdays"`
	ClosedDates     DateSet    `json:"closedDates"`
	OpenHours       *OpenHours `json:"openHours"`
}

// Unlimited reports whether the location has no capacity bound
func (l *Location) Unlimited() bool {
	return l.Capacity <= 0
}

// Assignment places a group at a location for one calendar cell
type Assignment struct {
	GroupID          int64         `json:"groupId"`
	LocationID       int64         `json:"locationId"`
	Date             calendar.Date `json:"date"`
	TimeSlot         string        `json:"timeSlot"`
	ParticipantCount int           `json:"participantCount"`
	Source           Source        `json:"source,omitempty"`
}

// CoveragePair identifies a required (group, location) visit
type CoveragePair struct {
	GroupID    int64 `json:"groupId"`
	LocationID int64 `json:"locationId"`
}

// DropCounts records how many input records the normalizer discarded
type DropCounts struct {
	Groups      int `json:"droppedGroups"`
	Locations   int `json:"droppedLocations"`
	Required    int `json:"droppedRequired"`
	Assignments int `json:"droppedAssignments"`
}

// Problem is the normalized, strongly-typed input of a planning run
type Problem struct {
	Scope       Scope
	SlotKeys    []string
	SlotWindows map[string]SlotWindow
	Groups      map[int64]*Group
	Locations   map[int64]*Location
	Required    map[int64]LocationSet
	Existing    []Assignment
	Dropped     DropCounts
}

// SlotIndex returns the priority index of slot in SlotKeys
func (p *Problem) SlotIndex(slot string) (int, bool) {
	for i, k := range p.SlotKeys {
		if k == slot {
			return i, true
		}
	}
	return -1, false
}

// GroupIDs returns the group ids in ascending order
func (p *Problem) GroupIDs() []int64 {
	ids := make([]int64, 0, len(p.Groups))
	for id := range p.Groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsRequired reports whether locationID is in groupID's required set
func (p *Problem) IsRequired(groupID, locationID int64) bool {
	return p.Required[groupID].Has(locationID)
}

// RequiredPairs lists every required (group, location) pair ordered by
// group id then location id.
func (p *Problem) RequiredPairs() []CoveragePair {
	groupIDs := make([]int64, 0, len(p.Required))
	for id := range p.Required {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	var pairs []CoveragePair
	for _, gid := range groupIDs {
		for _, lid := range p.Required[gid].Sorted() {
			pairs = append(pairs, CoveragePair{GroupID: gid, LocationID: lid})
		}
	}
	return pairs
}
