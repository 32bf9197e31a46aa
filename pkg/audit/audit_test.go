package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/trip-planner-go/pkg/models"
	"github.com/arnavshah/trip-planner-go/pkg/scheduler"
)

func problem(capacity int) *models.Problem {
	windows := models.DefaultSlotWindows()
	delete(windows, models.SlotEvening)
	return &models.Problem{
		Scope:       models.Scope{StartDate: "2025-09-22", EndDate: "2025-09-26"},
		SlotKeys:    models.DefaultSlotKeys(),
		SlotWindows: windows,
		Groups: map[int64]*models.Group{
			1: {ID: 1, Type: "primary", StartDate: "2025-09-22", EndDate: "2025-09-26", ParticipantCount: 48},
			2: {ID: 2, Type: "secondary", StartDate: "2025-09-24", EndDate: "2025-09-30", ParticipantCount: 20},
		},
		Locations: map[int64]*models.Location{
			10: {ID: 10, TargetGroups: models.AllGroups, IsActive: true, Capacity: capacity},
			11: {ID: 11, TargetGroups: "primary", IsActive: true},
		},
		Required: map[int64]models.LocationSet{1: {10: {}}},
	}
}

func TestValidate_CapacityViolation(t *testing.T) {
	p := problem(10)
	report := Validate(p, []models.Assignment{
		{GroupID: 1, LocationID: 10, Date: "2025-09-22", TimeSlot: models.SlotMorning, ParticipantCount: 48},
	})

	require.Len(t, report.HardViolations, 1)
	v := report.HardViolations[0]
	assert.Equal(t, CapacityExceeded, v.Type)
	assert.Equal(t, -1, v.Row)
	assert.Equal(t, int64(10), v.LocationID)
	assert.False(t, report.Feasible())
	assert.Empty(t, report.MustVisitMissing)
}

func TestValidate_CapacityIsPerUsageKey(t *testing.T) {
	p := problem(50)
	report := Validate(p, []models.Assignment{
		{GroupID: 1, LocationID: 10, Date: "2025-09-24", TimeSlot: models.SlotMorning, ParticipantCount: 48},
		{GroupID: 2, LocationID: 10, Date: "2025-09-24", TimeSlot: models.SlotMorning, ParticipantCount: 20},
		{GroupID: 2, LocationID: 10, Date: "2025-09-24", TimeSlot: models.SlotAfternoon, ParticipantCount: 20},
	})

	assert.Equal(t, map[string]int{CapacityExceeded: 1}, report.Counts())
	assert.Equal(t, models.SlotMorning, report.HardViolations[0].TimeSlot)
}

func TestValidate_RowViolations(t *testing.T) {
	p := problem(0)
	rows := []models.Assignment{
		{GroupID: 1, LocationID: 10, Date: "2025-09-22", TimeSlot: models.SlotMorning, ParticipantCount: 48},
		{GroupID: 1, LocationID: 10, Date: "2025-09-22", TimeSlot: models.SlotMorning, ParticipantCount: 48},
		{GroupID: 1, LocationID: 10, Date: "2025-09-22", TimeSlot: models.SlotEvening, ParticipantCount: 48},
		{GroupID: 1, LocationID: 10, Date: "2025-02-30", TimeSlot: models.SlotMorning, ParticipantCount: 48},
		{GroupID: 1, LocationID: 10, Date: "2025-10-01", TimeSlot: models.SlotMorning, ParticipantCount: 48},
		{GroupID: 9, LocationID: 10, Date: "2025-09-23", TimeSlot: models.SlotMorning, ParticipantCount: 5},
		{GroupID: 2, LocationID: 10, Date: "2025-09-22", TimeSlot: models.SlotAfternoon, ParticipantCount: 20},
		{GroupID: 1, LocationID: 99, Date: "2025-09-23", TimeSlot: models.SlotAfternoon, ParticipantCount: 48},
		{GroupID: 2, LocationID: 11, Date: "2025-09-25", TimeSlot: models.SlotMorning, ParticipantCount: 20},
		{GroupID: 1, LocationID: 11, Date: "2025-09-24", TimeSlot: models.SlotAfternoon, ParticipantCount: 0},
	}

	report := Validate(p, rows)

	byRow := map[int][]string{}
	for _, v := range report.HardViolations {
		byRow[v.Row] = append(byRow[v.Row], v.Type)
	}
	assert.NotContains(t, byRow, 0)
	assert.Equal(t, []string{DuplicateCell}, byRow[1])
	assert.Equal(t, []string{UnknownSlot}, byRow[2])
	assert.Equal(t, []string{InvalidDate}, byRow[3])
	assert.Equal(t, []string{OutOfScope, OutOfGroupRange}, byRow[4])
	assert.Equal(t, []string{UnknownGroup}, byRow[5])
	assert.Equal(t, []string{OutOfGroupRange}, byRow[6])
	assert.Equal(t, []string{UnknownLocation}, byRow[7])
	assert.Equal(t, []string{LocationUnavailable}, byRow[8])
	assert.Equal(t, []string{InvalidParticipants}, byRow[9])
}

func TestValidate_MustVisitMissing(t *testing.T) {
	p := problem(0)
	p.Required[2] = models.LocationSet{10: {}, 11: {}}

	report := Validate(p, []models.Assignment{
		{GroupID: 1, LocationID: 10, Date: "2025-09-22", TimeSlot: models.SlotMorning, ParticipantCount: 48},
	})

	assert.True(t, report.Feasible())
	assert.False(t, report.Clean())
	assert.Equal(t, []models.CoveragePair{
		{GroupID: 2, LocationID: 10},
		{GroupID: 2, LocationID: 11},
	}, report.MustVisitMissing)
}

func TestValidate_EmptyInput(t *testing.T) {
	report := Validate(problem(0), nil)
	assert.Empty(t, report.HardViolations)
	assert.Len(t, report.MustVisitMissing, 1)

	report = Validate(nil, nil)
	assert.True(t, report.Clean())
}

func TestValidate_AgreesWithSolver(t *testing.T) {
	p := problem(60)
	p.Required[2] = models.LocationSet{10: {}, 11: {}}
	p.Existing = []models.Assignment{
		{GroupID: 2, LocationID: 10, Date: "2025-09-24", TimeSlot: models.SlotMorning, ParticipantCount: 20},
		{GroupID: 1, LocationID: 11, Date: "2025-09-24", TimeSlot: models.SlotMorning, ParticipantCount: 48},
	}

	res := scheduler.Solve(p, scheduler.Options{})
	report := Validate(p, res.Assignments)

	assert.True(t, report.Feasible(), "violations: %+v", report.HardViolations)
	missing := map[models.CoveragePair]bool{}
	for _, m := range report.MustVisitMissing {
		missing[m] = true
	}
	for _, u := range res.Diagnostics.RequiredUnplaced {
		assert.True(t, missing[u.CoveragePair])
	}
	assert.Len(t, report.MustVisitMissing, len(res.Diagnostics.RequiredUnplaced))
}
