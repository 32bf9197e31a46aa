package constraints

import (
	"github.com/arnavshah/trip-planner-go/pkg/calendar"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

// GroupTypeAllowed checks the location's target-group tag against the group type
func GroupTypeAllowed(loc *models.Location, group *models.Group) bool {
	if loc.TargetGroups == "" || loc.TargetGroups == models.AllGroups {
		return true
	}
	return loc.TargetGroups == group.Type
}

// WithinOpenHours checks that some opening window on date's weekday fully
// covers the slot window. Locations without open hours are always open.
func WithinOpenHours(loc *models.Location, date calendar.Date, window models.SlotWindow) bool {
	if loc.OpenHours == nil {
		return true
	}
	weekday := calendar.Weekday(date)
	if weekday == calendar.InvalidWeekday {
		return false
	}
	windows, ok := loc.OpenHours.Windows(weekday)
	if !ok {
		return false
	}
	for _, w := range windows {
		if w.Covers(window.Start, window.End) {
			return true
		}
	}
	return false
}

// LocationAvailable reports whether group may use loc at (date, window).
// Dates whose weekday cannot be resolved fail closed.
func LocationAvailable(loc *models.Location, group *models.Group, date calendar.Date, window models.SlotWindow) bool {
	if loc == nil || group == nil || !loc.IsActive {
		return false
	}
	if !GroupTypeAllowed(loc, group) {
		return false
	}
	weekday := calendar.Weekday(date)
	if weekday == calendar.InvalidWeekday || loc.BlockedWeekdays.Has(weekday) {
		return false
	}
	if loc.ClosedDates.Has(date) {
		return false
	}
	return WithinOpenHours(loc, date, window)
}

// HasCapacity checks used - replacing + incoming against the location's
// capacity. replacing is the headcount of an occupant the caller intends to
// vacate from the same usage key first.
func HasCapacity(usage Usage, loc *models.Location, date calendar.Date, slot string, incoming, replacing int) bool {
	if loc.Unlimited() {
		return true
	}
	used := usage.Used(UsageKey{Date: date, Slot: slot, LocationID: loc.ID})
	return used-replacing+incoming <= loc.Capacity
}
