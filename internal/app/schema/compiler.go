// Package schema compiles a user's habit configuration into the
// extraction schema consumed by the extractor, and validates
// configuration documents before they are accepted.
package schema

import (
	"sort"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// Compile turns the habit configuration into an extraction schema: one
// property per habit carrying type, description and numeric bounds,
// with every habit listed as required. Pure function, no state.
func Compile(habits map[string]domain.HabitDef) domain.HabitSchema {
	props := make(map[string]map[string]any, len(habits))
	required := make([]string, 0, len(habits))

	for name, def := range habits {
		prop := map[string]any{
			"type":        normalizeType(def["type"]),
			"description": def.Description(),
		}
		if v, ok := def["minimum"]; ok {
			prop["minimum"] = v
		}
		if v, ok := def["maximum"]; ok {
			prop["maximum"] = v
		}
		props[name] = prop
		required = append(required, name)
	}
	sort.Strings(required)

	return domain.HabitSchema{
		Properties: props,
		Required:   required,
	}
}

// normalizeType coerces the "type" keyword to a string or a list of
// strings, mirroring what the extractor's function-calling API expects.
func normalizeType(raw any) any {
	switch t := raw.(type) {
	case string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return ""
	}
}
