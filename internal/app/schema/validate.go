package schema

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// reminderTimePattern accepts 24h wall-clock times, "HH:MM".
var reminderTimePattern = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

// validTypes are the primitive types the extractor's function-calling
// schema understands.
var validTypes = map[string]bool{
	"object":  true,
	"array":   true,
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"null":    true,
}

// allowedFields lists, per type, the schema keywords permitted on a
// habit besides "type" and "description".
var allowedFields = map[string][]string{
	"object":  {"properties", "required"},
	"array":   {"items", "minItems", "maxItems"},
	"string":  {"minLength", "maxLength", "pattern", "enum"},
	"number":  {"minimum", "maximum", "enum"},
	"integer": {"minimum", "maximum", "enum"},
	"boolean": {"enum"},
	"null":    {},
}

// ValidateConfig checks a parsed configuration document: structural
// shape first, then per-habit semantic rules. The returned slice holds
// every problem found, in a stable order; empty means valid.
func ValidateConfig(cfg domain.UserConfig) []string {
	var errs []string

	if len(cfg.Habits) == 0 {
		errs = append(errs, "'habits' must be a non-empty object")
	}
	if cfg.ReminderTime != "" && !reminderTimePattern.MatchString(cfg.ReminderTime) {
		errs = append(errs, fmt.Sprintf("'reminder_time' %q must match HH:MM", cfg.ReminderTime))
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("'timezone' %q is not a valid IANA timezone", cfg.Timezone))
		}
	}

	names := make([]string, 0, len(cfg.Habits))
	for name := range cfg.Habits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		errs = append(errs, validateHabit(name, cfg.Habits[name])...)
	}

	return errs
}

func validateHabit(name string, def domain.HabitDef) []string {
	var errs []string

	types := def.Types()
	if _, present := def["type"]; !present {
		errs = append(errs, fmt.Sprintf("habit %q: 'type' is required", name))
	} else if len(types) == 0 {
		errs = append(errs, fmt.Sprintf("habit %q: 'type' must be a string or a list of strings", name))
	}
	for _, t := range types {
		if !validTypes[t] {
			errs = append(errs, fmt.Sprintf("habit %q: invalid type %q", name, t))
		}
	}

	if _, ok := def["description"].(string); !ok {
		errs = append(errs, fmt.Sprintf("habit %q: 'description' is required and must be a string", name))
	}

	allowed := map[string]bool{}
	for _, t := range types {
		for _, f := range allowedFields[t] {
			allowed[f] = true
		}
	}

	keys := make([]string, 0, len(def))
	for k := range def {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "type" || key == "description" {
			continue
		}
		if !allowed[key] {
			errs = append(errs, fmt.Sprintf("habit %q: field %q is not allowed for type(s) %v", name, key, types))
			continue
		}
		errs = append(errs, validateField(name, key, def[key])...)
	}

	return errs
}

func validateField(habit, key string, val any) []string {
	switch key {
	case "minimum", "maximum":
		if !isNumber(val) {
			return []string{fmt.Sprintf("habit %q: %q must be a number", habit, key)}
		}
	case "enum":
		if _, ok := val.([]any); !ok {
			return []string{fmt.Sprintf("habit %q: 'enum' must be a list", habit)}
		}
	case "pattern":
		if _, ok := val.(string); !ok {
			return []string{fmt.Sprintf("habit %q: 'pattern' must be a string", habit)}
		}
	case "properties", "items":
		if _, ok := val.(map[string]any); !ok {
			return []string{fmt.Sprintf("habit %q: %q must be an object", habit, key)}
		}
	case "required":
		list, ok := val.([]any)
		if !ok {
			return []string{fmt.Sprintf("habit %q: 'required' must be a list of strings", habit)}
		}
		for _, v := range list {
			if _, ok := v.(string); !ok {
				return []string{fmt.Sprintf("habit %q: 'required' must be a list of strings", habit)}
			}
		}
	case "minItems", "maxItems", "minLength", "maxLength":
		if !isInteger(val) {
			return []string{fmt.Sprintf("habit %q: %q must be an integer", habit, key)}
		}
	}
	return nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	default:
		return false
	}
}

// isInteger accepts whole-valued float64s because JSON numbers decode
// to float64.
func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == float64(int64(n))
	default:
		return false
	}
}
