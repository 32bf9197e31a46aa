package normalize

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// listDelimiters separate elements of string-encoded lists: comma,
// full-width comma, ideographic comma, semicolon and vertical bar.
const listDelimiters = ",，、;|"

// field returns the first present, non-nil value among keys
func field(rec map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// number coerces numbers and numeric strings; booleans are not numbers here
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		v = t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// maxID is the largest integer a JSON number carries exactly
const maxID = 1 << 53

// positiveID resolves v to a positive integer id
func positiveID(v any) (int64, bool) {
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || f <= 0 || f > maxID {
		return 0, false
	}
	return int64(f), true
}

// floorInt floors a numeric value
func floorInt(v any) (int, bool) {
	f, ok := number(v)
	if !ok || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(math.Floor(f)), true
}

func text(v any) string {
	return strings.TrimSpace(cast.ToString(v))
}

// boolean accepts bools, 0/1 and "true"/"false"; anything else yields def
func boolean(v any, def bool) bool {
	if v == nil {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// list accepts either a structured list or a delimited string
func list(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case string:
		parts := strings.FieldsFunc(t, func(r rune) bool {
			return strings.ContainsRune(listDelimiters, r)
		})
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []any{t}
	}
}
