package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

const sampleJSON = `{
  "schema": "ec-planning-input@2",
  "scope": {"startDate": "2025-09-22", "endDate": "2025-09-26"},
  "rules": {"timeSlots": "morning, afternoon | NIGHT"},
  "data": {
    "groups": [
      {"id": 1, "name": "Year 5", "type": "primary", "startDate": "2025-09-22", "endDate": "2025-09-26", "studentCount": 40, "teacherCount": 8},
      {"id": "2", "startDate": "2025-09-23", "endDate": "2025-09-24", "participantCount": 12.7},
      {"id": 1, "startDate": "2025-09-22", "endDate": "2025-09-26"},
      {"id": -3, "startDate": "2025-09-22", "endDate": "2025-09-26"},
      {"id": 4, "startDate": "2025-09-26", "endDate": "2025-09-22"},
      "nonsense"
    ],
    "locations": [
      {"id": 10, "name": "Museum", "capacity": 60, "blockedWeekdays": "0，6", "closedDates": ["2025-09-24", "not-a-date"]},
      {"id": 11, "isActive": "false", "capacity": -5, "openHours": {"1": [[9, 17]], "3": [], "default": [{"start": 8, "end": 12}]}},
      {"id": 12, "blockedWeekdays": [1, 7, 2.5, "3"], "openHours": {"mon": [[9, 17]]}},
      {"id": 0}
    ],
    "requiredLocationsByGroup": {
      "1": {"locationIds": [10, 11, -1]},
      "2": "10;12",
      "x": [10]
    },
    "existingAssignments": [
      {"groupId": 1, "locationId": 10, "date": "2025-09-22", "timeSlot": "morning", "participantCount": 48},
      {"group_id": 1, "location_id": 11, "date": "2025-09-22", "slot": "MORNING"},
      {"groupId": 1, "locationId": 10, "date": "2025-09-22", "timeSlot": "EVENING"},
      {"groupId": 1, "locationId": 10, "date": "2025-02-30", "timeSlot": "MORNING"},
      {"groupId": 1, "locationId": 10, "date": "2025-09-23", "timeSlot": "MORNING", "participantCount": 0}
    ]
  }
}`

func mustNormalize(t *testing.T, src string) *models.Problem {
	t.Helper()
	doc, err := DecodeJSON([]byte(src))
	require.NoError(t, err)
	p, err := Normalize(doc)
	require.NoError(t, err)
	return p
}

func TestNormalize_Groups(t *testing.T) {
	p := mustNormalize(t, sampleJSON)

	require.Len(t, p.Groups, 2)
	g1 := p.Groups[1]
	assert.Equal(t, "Year 5", g1.Name)
	assert.Equal(t, "primary", g1.Type)
	assert.Equal(t, 48, g1.ParticipantCount)

	g2 := p.Groups[2]
	assert.Equal(t, "group-2", g2.Name)
	assert.Equal(t, models.AllGroups, g2.Type)
	assert.Equal(t, 12, g2.ParticipantCount)

	// duplicate, non-positive id, inverted range and non-object
	assert.Equal(t, 4, p.Dropped.Groups)
}

func TestNormalize_Locations(t *testing.T) {
	p := mustNormalize(t, sampleJSON)

	require.Len(t, p.Locations, 3)
	assert.Equal(t, 1, p.Dropped.Locations)

	museum := p.Locations[10]
	assert.True(t, museum.IsActive)
	assert.Equal(t, 60, museum.Capacity)
	assert.Equal(t, []int{0, 6}, museum.BlockedWeekdays.Days())
	assert.Equal(t, []calendar.Date{"2025-09-24"}, museum.ClosedDates.Sorted())
	assert.Nil(t, museum.OpenHours)

	hall := p.Locations[11]
	assert.False(t, hall.IsActive)
	assert.True(t, hall.Unlimited())
	require.NotNil(t, hall.OpenHours)
	mon, ok := hall.OpenHours.Windows(1)
	require.True(t, ok)
	assert.Equal(t, []models.HourWindow{{Start: 9, End: 17}}, mon)
	wed, ok := hall.OpenHours.Windows(3)
	require.True(t, ok)
	assert.Empty(t, wed)
	fri, ok := hall.OpenHours.Windows(5)
	require.True(t, ok)
	assert.Equal(t, []models.HourWindow{{Start: 8, End: 12}}, fri)

	park := p.Locations[12]
	assert.Equal(t, []int{1, 3}, park.BlockedWeekdays.Days())
	require.NotNil(t, park.OpenHours)
	_, ok = park.OpenHours.Windows(1)
	assert.False(t, ok, "no usable keys means always closed")
}

func TestNormalize_SlotsAndRequired(t *testing.T) {
	p := mustNormalize(t, sampleJSON)

	assert.Equal(t, []string{models.SlotMorning, models.SlotAfternoon}, p.SlotKeys)
	assert.Len(t, p.SlotWindows, 2)

	assert.Equal(t, []int64{10, 11}, p.Required[1].Sorted())
	assert.Equal(t, []int64{10, 12}, p.Required[2].Sorted())
	// bad group key and the negative location id
	assert.Equal(t, 2, p.Dropped.Required)
	assert.Equal(t, []models.CoveragePair{
		{GroupID: 1, LocationID: 10},
		{GroupID: 1, LocationID: 11},
		{GroupID: 2, LocationID: 10},
		{GroupID: 2, LocationID: 12},
	}, p.RequiredPairs())
}

func TestNormalize_ExistingAssignments(t *testing.T) {
	p := mustNormalize(t, sampleJSON)

	// colliding rows survive; the evening, bad date and zero count rows do not
	require.Len(t, p.Existing, 2)
	assert.Equal(t, 3, p.Dropped.Assignments)
	assert.Equal(t, models.Assignment{
		GroupID: 1, LocationID: 10, Date: "2025-09-22", TimeSlot: models.SlotMorning, ParticipantCount: 48,
	}, p.Existing[0])
	assert.Equal(t, int64(11), p.Existing[1].LocationID)
	assert.Equal(t, 1, p.Existing[1].ParticipantCount)
}

func TestNormalize_SlotOverrides(t *testing.T) {
	p := mustNormalize(t, `{
		"schema": "ec-planning-input@2",
		"scope": {"startDate": "2025-09-22", "endDate": "2025-09-22"},
		"rules": {
			"timeSlots": ["evening", "night", "evening"],
			"slotWindows": {"night": {"start": 21, "end": 23}, "bad": [5, 1]}
		}
	}`)

	assert.Equal(t, []string{models.SlotEvening, "NIGHT"}, p.SlotKeys)
	assert.Equal(t, models.SlotWindow{Start: 21, End: 23}, p.SlotWindows["NIGHT"])
	assert.Empty(t, p.Groups)
}

func TestNormalize_FallsBackToDefaultSlots(t *testing.T) {
	p := mustNormalize(t, `{
		"schema": "ec-planning-input@2",
		"scope": {"startDate": "2025-09-22", "endDate": "2025-09-22"},
		"rules": {"timeSlots": ["lunch"]}
	}`)

	assert.Equal(t, models.DefaultSlotKeys(), p.SlotKeys)
}

func TestNormalize_FatalErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"missing schema", `{"scope": {"startDate": "2025-09-22", "endDate": "2025-09-26"}}`, ErrUnsupportedSchema},
		{"wrong schema", `{"schema": "ec-planning-input@1", "scope": {"startDate": "2025-09-22", "endDate": "2025-09-26"}}`, ErrUnsupportedSchema},
		{"missing scope", `{"schema": "ec-planning-input@2"}`, ErrInvalidScope},
		{"bad date", `{"schema": "ec-planning-input@2", "scope": {"startDate": "2025-13-01", "endDate": "2025-09-26"}}`, ErrInvalidScope},
		{"inverted", `{"schema": "ec-planning-input@2", "scope": {"startDate": "2025-09-26", "endDate": "2025-09-22"}}`, ErrInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeJSON([]byte(tt.doc))
			require.NoError(t, err)
			_, err = Normalize(doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"schema": `))
	assert.ErrorIs(t, err, ErrMalformedDocument)

	_, err = Normalize(nil)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestDecodeYAML(t *testing.T) {
	src := `
schema: ec-planning-input@2
scope:
  startDate: 2025-09-22
  endDate: 2025-09-26
data:
  groups:
    - id: 1
      type: primary
      startDate: 2025-09-22
      endDate: 2025-09-26
      participantCount: 48
  locations:
    - id: 10
      capacity: 0
      closedDates: [2025-09-24]
  requiredLocationsByGroup:
    1: [10]
  existingAssignments:
    - groupId: 1
      locationId: 10
      date: 2025-09-23
      timeSlot: morning
`
	doc, err := DecodeYAML([]byte(src))
	require.NoError(t, err)
	p, err := Normalize(doc)
	require.NoError(t, err)

	assert.Equal(t, calendar.Date("2025-09-22"), p.Scope.StartDate)
	assert.Equal(t, calendar.Date("2025-09-26"), p.Scope.EndDate)
	require.Contains(t, p.Groups, int64(1))
	g := p.Groups[1]
	assert.Equal(t, 48, g.ParticipantCount)
	assert.Equal(t, calendar.Date("2025-09-22"), g.StartDate)
	assert.Equal(t, calendar.Date("2025-09-26"), g.EndDate)
	assert.True(t, p.IsRequired(1, 10))
	require.Contains(t, p.Locations, int64(10))
	assert.Equal(t, []calendar.Date{"2025-09-24"}, p.Locations[10].ClosedDates.Sorted())
	require.Len(t, p.Existing, 1)
	assert.Equal(t, calendar.Date("2025-09-23"), p.Existing[0].Date)
	assert.Zero(t, p.Dropped)

	_, err = DecodeYAML([]byte("- just\n- a list\n"))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestNormalize_LargeIDs(t *testing.T) {
	p := mustNormalize(t, `{
		"schema": "ec-planning-input@2",
		"scope": {"startDate": "2025-09-22", "endDate": "2025-09-22"},
		"data": {
			"groups": [
				{"id": 3000000000, "startDate": "2025-09-22", "endDate": "2025-09-22"},
				{"id": 100000000000000000, "startDate": "2025-09-22", "endDate": "2025-09-22"}
			],
			"locations": [{"id": 3000000001}, {"id": "4000000000"}],
			"requiredLocationsByGroup": {"3000000000": [3000000001]}
		}
	}`)

	assert.Contains(t, p.Groups, int64(3000000000))
	assert.Contains(t, p.Locations, int64(3000000001))
	assert.Contains(t, p.Locations, int64(4000000000))
	assert.True(t, p.IsRequired(3000000000, 3000000001))
	// beyond 2^53 the id cannot be represented exactly
	assert.Equal(t, 1, p.Dropped.Groups)
	assert.Zero(t, p.Dropped.Locations)
}
