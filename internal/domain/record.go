package domain

// HabitRecord is one confirmed submission headed for the raw log.
// DateTime and Date are already formatted with DateTimeLayout and
// DateLayout; Fields maps habit names to extracted values.
type HabitRecord struct {
	DateTime string
	Date     string
	RawInput string
	Fields   map[string]any
}

// HabitSchema is the extraction schema compiled from a user's habit
// configuration: one property per habit, all of them required.
// Recomputed when the configuration changes, otherwise shared read-only.
type HabitSchema struct {
	Properties map[string]map[string]any
	Required   []string
}
