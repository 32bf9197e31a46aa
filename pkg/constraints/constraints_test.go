package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

var morning = models.SlotWindow{Start: 6, End: 12}

func openLocation() *models.Location {
	return &models.Location{ID: 10, Name: "Museum", TargetGroups: models.AllGroups, IsActive: true}
}

func primaryGroup() *models.Group {
	return &models.Group{ID: 1, Type: "primary", StartDate: "2025-09-22", EndDate: "2025-09-26", ParticipantCount: 48}
}

func TestGroupTypeAllowed(t *testing.T) {
	g := primaryGroup()
	tests := []struct {
		target string
		want   bool
	}{
		{target: "all", want: true},
		{target: "", want: true},
		{target: "primary", want: true},
		{target: "secondary", want: false},
	}
	for _, tt := range tests {
		loc := openLocation()
		loc.TargetGroups = tt.target
		assert.Equal(t, tt.want, GroupTypeAllowed(loc, g), "target %q", tt.target)
	}
}

func TestWithinOpenHours(t *testing.T) {
	monday := calendar.Date("2025-09-22")
	sunday := calendar.Date("2025-09-28")

	tests := []struct {
		name  string
		hours *models.OpenHours
		date  calendar.Date
		want  bool
	}{
		{name: "always open", hours: nil, date: monday, want: true},
		{
			name:  "weekday window covers slot",
			hours: &models.OpenHours{Weekdays: map[int][]models.HourWindow{1: {{Start: 8, End: 17}, {Start: 5, End: 12}}}},
			date:  monday,
			want:  true,
		},
		{
			name:  "window starts too late",
			hours: &models.OpenHours{Weekdays: map[int][]models.HourWindow{1: {{Start: 8, End: 17}}}},
			date:  monday,
			want:  false,
		},
		{
			name:  "falls back to default",
			hours: &models.OpenHours{Weekdays: map[int][]models.HourWindow{1: {{Start: 8, End: 17}}}, Default: []models.HourWindow{{Start: 0, End: 24}}},
			date:  sunday,
			want:  true,
		},
		{
			name:  "weekday entry beats default",
			hours: &models.OpenHours{Weekdays: map[int][]models.HourWindow{0: {}}, Default: []models.HourWindow{{Start: 0, End: 24}}},
			date:  sunday,
			want:  false,
		},
		{
			name:  "no entry and no default",
			hours: &models.OpenHours{Weekdays: map[int][]models.HourWindow{1: {{Start: 0, End: 24}}}},
			date:  sunday,
			want:  false,
		},
		{
			name:  "invalid date fails closed",
			hours: &models.OpenHours{Default: []models.HourWindow{{Start: 0, End: 24}}},
			date:  "2025-09-31",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := openLocation()
			loc.OpenHours = tt.hours
			assert.Equal(t, tt.want, WithinOpenHours(loc, tt.date, morning))
		})
	}
}

func TestLocationAvailable(t *testing.T) {
	g := primaryGroup()
	monday := calendar.Date("2025-09-22")

	assert.True(t, LocationAvailable(openLocation(), g, monday, morning))

	inactive := openLocation()
	inactive.IsActive = false
	assert.False(t, LocationAvailable(inactive, g, monday, morning))

	wrongType := openLocation()
	wrongType.TargetGroups = "secondary"
	assert.False(t, LocationAvailable(wrongType, g, monday, morning))

	blocked := openLocation()
	blocked.BlockedWeekdays = blocked.BlockedWeekdays.Add(1)
	assert.False(t, LocationAvailable(blocked, g, monday, morning))
	assert.True(t, LocationAvailable(blocked, g, "2025-09-23", morning))

	closed := openLocation()
	closed.ClosedDates = models.DateSet{}
	_ = closed.ClosedDates.Add(monday)
	assert.False(t, LocationAvailable(closed, g, monday, morning))

	assert.False(t, LocationAvailable(openLocation(), g, "not-a-date", morning))
	assert.False(t, LocationAvailable(nil, g, monday, morning))
}

func TestHasCapacity(t *testing.T) {
	loc := openLocation()
	date := calendar.Date("2025-09-22")
	usage := Usage{}
	usage.Add(models.Assignment{GroupID: 2, LocationID: loc.ID, Date: date, TimeSlot: "MORNING", ParticipantCount: 30})

	// unlimited
	assert.True(t, HasCapacity(usage, loc, date, "MORNING", 1000, 0))

	loc.Capacity = 50
	assert.True(t, HasCapacity(usage, loc, date, "MORNING", 20, 0))
	assert.False(t, HasCapacity(usage, loc, date, "MORNING", 21, 0))
	assert.True(t, HasCapacity(usage, loc, date, "MORNING", 48, 30), "vacating the occupant frees its headcount")
	assert.True(t, HasCapacity(usage, loc, date, "AFTERNOON", 50, 0))
	assert.False(t, HasCapacity(usage, loc, date, "AFTERNOON", 51, 0))
}

func TestUsageAndCoverage(t *testing.T) {
	a := models.Assignment{GroupID: 1, LocationID: 10, Date: "2025-09-22", TimeSlot: "MORNING", ParticipantCount: 12}
	usage := Usage{}
	usage.Add(a)
	usage.Add(a)
	assert.Equal(t, 24, usage.Used(UsageOf(a)))
	usage.Remove(a)
	usage.Remove(a)
	assert.Empty(t, usage)

	cov := Coverage{}
	cov.Add(a)
	assert.Equal(t, 1, cov.Count(1, 10))
	cov.Remove(a)
	assert.Equal(t, 0, cov.Count(1, 10))

	assert.Equal(t, "1|2025-09-22|MORNING", CellOf(a).String())
	assert.Equal(t, "2025-09-22|MORNING|10", UsageOf(a).String())
	assert.Equal(t, "1|10", CoverageOf(a).String())
}
