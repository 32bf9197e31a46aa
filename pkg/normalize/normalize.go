package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
	"github.com/arnavshah/trip-planner-go/pkg/models"
)

const defaultOpenHoursKey = "default"

// Normalizer turns untrusted input documents into a models.Problem
type Normalizer struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates a Normalizer. A nil logger disables logging.
func New(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		validate: validator.New(),
		logger:   logger,
	}
}

// Normalize validates the fatal parts of doc (schema tag, scope) and
// canonicalizes every record, dropping the malformed ones individually.
func (n *Normalizer) Normalize(doc *Document) (*models.Problem, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	if doc.Schema == "" {
		return nil, fmt.Errorf("%w: schema tag is missing", ErrUnsupportedSchema)
	}
	if doc.Schema != InputSchema {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrUnsupportedSchema, doc.Schema, InputSchema)
	}

	scope, err := n.scope(doc.Scope)
	if err != nil {
		return nil, err
	}

	p := &models.Problem{
		Scope:     scope,
		Groups:    make(map[int64]*models.Group),
		Locations: make(map[int64]*models.Location),
		Required:  make(map[int64]models.LocationSet),
	}
	p.SlotKeys, p.SlotWindows = n.slots(doc.Rules)
	n.groups(p, doc.Data.Groups)
	n.locations(p, doc.Data.Locations)
	n.required(p, doc.Data.RequiredLocationsByGroup)
	n.existing(p, doc.Data.ExistingAssignments)

	n.logger.Debug("input normalized",
		zap.Int("groups", len(p.Groups)),
		zap.Int("locations", len(p.Locations)),
		zap.Int("existing", len(p.Existing)),
		zap.Strings("slots", p.SlotKeys),
		zap.Any("dropped", p.Dropped),
	)
	return p, nil
}

func (n *Normalizer) scope(doc ScopeDoc) (models.Scope, error) {
	if err := n.validate.Struct(doc); err != nil {
		return models.Scope{}, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	start, err := calendar.ParseDate(doc.StartDate)
	if err != nil {
		return models.Scope{}, fmt.Errorf("%w: startDate: %v", ErrInvalidScope, err)
	}
	end, err := calendar.ParseDate(doc.EndDate)
	if err != nil {
		return models.Scope{}, fmt.Errorf("%w: endDate: %v", ErrInvalidScope, err)
	}
	if start > end {
		return models.Scope{}, fmt.Errorf("%w: startDate %s is after endDate %s", ErrInvalidScope, start, end)
	}
	return models.Scope{StartDate: start, EndDate: end}, nil
}

func (n *Normalizer) slots(rules RulesDoc) ([]string, map[string]models.SlotWindow) {
	known := models.DefaultSlotWindows()
	if overrides, ok := rules.SlotWindows.(map[string]any); ok {
		for key, raw := range overrides {
			key = strings.ToUpper(strings.TrimSpace(key))
			w, ok := hourWindow(raw)
			if key == "" || !ok {
				n.logger.Debug("ignoring slot window override", zap.String("slot", key))
				continue
			}
			known[key] = models.SlotWindow{Start: w.Start, End: w.End}
		}
	}

	var keys []string
	seen := make(map[string]bool)
	for _, raw := range list(rules.TimeSlots) {
		key := strings.ToUpper(text(raw))
		if key == "" || seen[key] {
			continue
		}
		if _, ok := known[key]; !ok {
			n.logger.Debug("dropping slot without window", zap.String("slot", key))
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		keys = models.DefaultSlotKeys()
	}

	windows := make(map[string]models.SlotWindow, len(keys))
	for _, k := range keys {
		windows[k] = known[k]
	}
	return keys, windows
}

func (n *Normalizer) groups(p *models.Problem, raw any) {
	for i, item := range list(raw) {
		g, reason := group(item)
		if g == nil {
			p.Dropped.Groups++
			n.logger.Debug("dropping group", zap.Int("index", i), zap.String("reason", reason))
			continue
		}
		if _, dup := p.Groups[g.ID]; dup {
			p.Dropped.Groups++
			n.logger.Debug("dropping group", zap.Int("index", i), zap.String("reason", "duplicate id"))
			continue
		}
		p.Groups[g.ID] = g
	}
}

func group(item any) (*models.Group, string) {
	rec, ok := item.(map[string]any)
	if !ok {
		return nil, "not an object"
	}
	id, ok := positiveID(rec["id"])
	if !ok {
		return nil, "id is not a positive integer"
	}
	start, err := calendar.ParseDate(text(rec["startDate"]))
	if err != nil {
		return nil, "invalid startDate"
	}
	end, err := calendar.ParseDate(text(rec["endDate"]))
	if err != nil {
		return nil, "invalid endDate"
	}
	if start > end {
		return nil, "inverted date range"
	}

	count, ok := floorInt(rec["participantCount"])
	if !ok {
		students, _ := floorInt(rec["studentCount"])
		teachers, _ := floorInt(rec["teacherCount"])
		count = students + teachers
	}
	if count < 1 {
		count = 1
	}

	g := &models.Group{
		ID:               id,
		Name:             text(rec["name"]),
		Type:             text(rec["type"]),
		StartDate:        start,
		EndDate:          end,
		ParticipantCount: count,
	}
	if g.Name == "" {
		g.Name = fmt.Sprintf("group-%d", id)
	}
	if g.Type == "" {
		g.Type = models.AllGroups
	}
	return g, ""
}

func (n *Normalizer) locations(p *models.Problem, raw any) {
	for i, item := range list(raw) {
		rec, ok := item.(map[string]any)
		if !ok {
			p.Dropped.Locations++
			n.logger.Debug("dropping location", zap.Int("index", i), zap.String("reason", "not an object"))
			continue
		}
		id, ok := positiveID(rec["id"])
		if !ok {
			p.Dropped.Locations++
			n.logger.Debug("dropping location", zap.Int("index", i), zap.String("reason", "id is not a positive integer"))
			continue
		}
		if _, dup := p.Locations[id]; dup {
			p.Dropped.Locations++
			n.logger.Debug("dropping location", zap.Int("index", i), zap.String("reason", "duplicate id"))
			continue
		}
		p.Locations[id] = n.location(id, rec)
	}
}

func (n *Normalizer) location(id int64, rec map[string]any) *models.Location {
	loc := &models.Location{
		ID:           id,
		Name:         text(rec["name"]),
		TargetGroups: text(rec["targetGroups"]),
		IsActive:     boolean(rec["isActive"], true),
		ClosedDates:  models.DateSet{},
	}
	if loc.Name == "" {
		loc.Name = fmt.Sprintf("location-%d", id)
	}
	if loc.TargetGroups == "" {
		loc.TargetGroups = models.AllGroups
	}
	if capacity, ok := floorInt(rec["capacity"]); ok && capacity > 0 {
		loc.Capacity = capacity
	}

	for _, raw := range list(rec["blockedWeekdays"]) {
		f, ok := number(raw)
		if !ok || f != math.Trunc(f) || math.Abs(f) > 7 {
			n.logger.Debug("ignoring blocked weekday", zap.Int64("location", id), zap.Any("value", raw))
			continue
		}
		wd, err := models.ParseWeekday(int(f))
		if err != nil {
			n.logger.Debug("ignoring blocked weekday", zap.Int64("location", id), zap.Any("value", raw))
			continue
		}
		loc.BlockedWeekdays = loc.BlockedWeekdays.Add(wd)
	}

	for _, raw := range list(rec["closedDates"]) {
		if err := loc.ClosedDates.Add(calendar.Date(text(raw))); err != nil {
			n.logger.Debug("ignoring closed date", zap.Int64("location", id), zap.Error(err))
		}
	}

	if oh, ok := rec["openHours"].(map[string]any); ok {
		loc.OpenHours = openHours(oh)
	}
	return loc
}

func openHours(raw map[string]any) *models.OpenHours {
	oh := &models.OpenHours{Weekdays: make(map[int][]models.HourWindow)}
	for key, val := range raw {
		windows := hourWindows(val)
		key = strings.ToLower(strings.TrimSpace(key))
		if key == defaultOpenHoursKey {
			oh.Default = windows
			continue
		}
		day, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if _, err := models.ParseWeekday(day); err != nil {
			continue
		}
		oh.Weekdays[day] = windows
	}
	return oh
}

// hourWindows never returns nil so that an explicitly empty weekday entry
// still overrides the default.
func hourWindows(raw any) []models.HourWindow {
	out := []models.HourWindow{}
	for _, item := range list(raw) {
		if w, ok := hourWindow(item); ok {
			out = append(out, w)
		}
	}
	return out
}

// hourWindow accepts {start,end} objects or [start,end] pairs
func hourWindow(raw any) (models.HourWindow, bool) {
	var s, e any
	switch t := raw.(type) {
	case map[string]any:
		s, e = t["start"], t["end"]
	case []any:
		if len(t) != 2 {
			return models.HourWindow{}, false
		}
		s, e = t[0], t[1]
	default:
		return models.HourWindow{}, false
	}
	start, ok1 := number(s)
	end, ok2 := number(e)
	if !ok1 || !ok2 || start < 0 || end > 24 || start >= end {
		return models.HourWindow{}, false
	}
	return models.HourWindow{Start: start, End: end}, true
}

func (n *Normalizer) required(p *models.Problem, raw any) {
	byGroup, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for key, val := range byGroup {
		gid, ok := positiveID(key)
		if !ok {
			p.Dropped.Required++
			n.logger.Debug("dropping required set", zap.String("group", key))
			continue
		}
		ids := val
		if rec, ok := val.(map[string]any); ok {
			ids, _ = field(rec, "locationIds", "locations")
		}
		set := models.LocationSet{}
		for _, item := range list(ids) {
			lid, ok := positiveID(item)
			if !ok || set.Add(lid) != nil {
				p.Dropped.Required++
			}
		}
		if len(set) > 0 {
			p.Required[gid] = set
		}
	}
}

func (n *Normalizer) existing(p *models.Problem, raw any) {
	for i, item := range list(raw) {
		a, reason := n.assignment(p, item)
		if reason != "" {
			p.Dropped.Assignments++
			n.logger.Debug("dropping existing assignment", zap.Int("index", i), zap.String("reason", reason))
			continue
		}
		p.Existing = append(p.Existing, a)
	}
}

func (n *Normalizer) assignment(p *models.Problem, item any) (models.Assignment, string) {
	rec, ok := item.(map[string]any)
	if !ok {
		return models.Assignment{}, "not an object"
	}
	gv, _ := field(rec, "groupId", "group_id")
	gid, ok := positiveID(gv)
	if !ok {
		return models.Assignment{}, "groupId is not a positive integer"
	}
	lv, _ := field(rec, "locationId", "location_id")
	lid, ok := positiveID(lv)
	if !ok {
		return models.Assignment{}, "locationId is not a positive integer"
	}
	sv, _ := field(rec, "timeSlot", "slot", "time_slot")
	slot := strings.ToUpper(text(sv))
	if _, ok := p.SlotIndex(slot); !ok {
		return models.Assignment{}, "unrecognized time slot"
	}
	date, err := calendar.ParseDate(text(rec["date"]))
	if err != nil {
		return models.Assignment{}, "invalid date"
	}
	count := 1
	if v, ok := rec["participantCount"]; ok && v != nil {
		c, ok := floorInt(v)
		if !ok || c < 1 {
			return models.Assignment{}, "participantCount below 1"
		}
		count = c
	}
	return models.Assignment{
		GroupID:          gid,
		LocationID:       lid,
		Date:             date,
		TimeSlot:         slot,
		ParticipantCount: count,
	}, ""
}

// Normalize runs a default Normalizer
func Normalize(doc *Document) (*models.Problem, error) {
	return New(nil).Normalize(doc)
}
