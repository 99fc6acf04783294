// Package syncer keeps the raw diary log and its derived daily view
// consistent: header reconciliation, header-aligned row building and a
// full aggregate rebuild on every append.
package syncer

import "strings"

// Worksheet names inside a user's spreadsheet.
const (
	WorksheetRaw   = "Diary Raw"
	WorksheetDiary = "Diary"
)

// FixedColumns are the leading raw-log columns, always in this order.
var FixedColumns = []string{"datetime", "date", "raw_input"}

// ReconcileHeader enforces the fixed leading columns (inserting,
// relocating and deduplicating them as needed) and appends any habit
// name not already present, preserving the rest of the existing order.
// Columns are never removed: dropping a habit from the configuration
// keeps its historical column. Idempotent.
func ReconcileHeader(existing []string, habitNames []string) []string {
	header := make([]string, 0, len(FixedColumns)+len(existing)+len(habitNames))
	header = append(header, FixedColumns...)

	for _, col := range existing {
		if isFixedColumn(col) {
			continue
		}
		if !containsColumn(header, col) {
			header = append(header, col)
		}
	}

	for _, name := range habitNames {
		if !containsColumn(header, name) {
			header = append(header, name)
		}
	}

	return header
}

// HeadersEqual reports whether two headers match column for column.
func HeadersEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isFixedColumn(col string) bool {
	lower := strings.ToLower(col)
	for _, fixed := range FixedColumns {
		if lower == fixed {
			return true
		}
	}
	return false
}

// Habit columns match case-sensitively; only the fixed three are
// matched case-insensitively, mirroring how the sheet is repaired.
func containsColumn(header []string, col string) bool {
	for _, h := range header {
		if h == col {
			return true
		}
	}
	return false
}
