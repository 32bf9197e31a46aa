package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arnavshah/trip-planner-go/pkg/calendar"
)

// InputSchema is the only accepted input schema tag
const InputSchema = "ec-planning-input@2"

// Document is the undecoded-shape input document. Record collections stay
// loosely typed so that one malformed record never fails the whole decode.
type Document struct {
	Schema string   `json:"schema"`
	Scope  ScopeDoc `json:"scope"`
	Rules  RulesDoc `json:"rules"`
	Data   DataDoc  `json:"data"`
}

// ScopeDoc is the planning horizon as supplied by the caller
type ScopeDoc struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// RulesDoc carries slot configuration
type RulesDoc struct {
	TimeSlots   any `json:"timeSlots,omitempty"`
	SlotWindows any `json:"slotWindows,omitempty"`
}

// DataDoc carries the entity records
type DataDoc struct {
	Groups                   any `json:"groups,omitempty"`
	Locations                any `json:"locations,omitempty"`
	RequiredLocationsByGroup any `json:"requiredLocationsByGroup,omitempty"`
	ExistingAssignments      any `json:"existingAssignments,omitempty"`
}

// DecodeJSON parses a JSON input document
func DecodeJSON(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &doc, nil
}

// DecodeYAML parses a YAML input document with the same shape as the JSON one
func DecodeYAML(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	top, ok := stringKeys(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformedDocument)
	}
	buf, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return DecodeJSON(buf)
}

// stringKeys rewrites yaml mappings with non-string keys (e.g. numeric
// group ids) into JSON-compatible maps. Unquoted dates come back from yaml
// as time.Time and are turned back into calendar dates.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = stringKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stringKeys(val)
		}
		return out
	case time.Time:
		if u := t.UTC(); u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
			return u.Format(calendar.Layout)
		}
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}
