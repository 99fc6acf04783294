package domain

import "sort"

// HabitDef is one habit's configuration entry as the user supplied it:
// a JSON-schema-flavored object with "type", "description" and a
// type-dependent set of extra keywords (minimum, maximum, enum, ...).
// It stays map-backed because validation and schema compilation both
// need to see exactly the keys the user wrote.
type HabitDef map[string]any

// Types normalizes the "type" keyword to a list of type names.
func (d HabitDef) Types() []string {
	switch t := d["type"].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Description returns the "description" keyword, or "" if absent.
func (d HabitDef) Description() string {
	s, _ := d["description"].(string)
	return s
}

// UserConfig is the user-supplied configuration document.
type UserConfig struct {
	Habits       map[string]HabitDef `json:"habits"`
	ReminderTime string              `json:"reminder_time,omitempty"`
	Timezone     string              `json:"timezone,omitempty"`
}

// HabitNames returns the configured habit names in a stable order.
func (c UserConfig) HabitNames() []string {
	names := make([]string, 0, len(c.Habits))
	for name := range c.Habits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UserSettings is everything persisted per user: the linked sheet, the
// habit configuration and the reminder timezone.
type UserSettings struct {
	SheetID  string     `json:"sheet_id"`
	Config   UserConfig `json:"config"`
	Timezone string     `json:"timezone"`
}

// SetupComplete reports whether the user has both linked a sheet and
// saved a valid configuration at least once. Flow-initiating commands
// are rejected until then.
func (s *UserSettings) SetupComplete() bool {
	return s != nil && s.SheetID != "" && len(s.Config.Habits) > 0
}
