package syncer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// BuildRow aligns a record to the current header: fixed columns come
// from the record's metadata, habit columns from its extracted fields,
// and anything the record does not know about stays empty. A record
// extracted against an older, narrower schema therefore still appends
// cleanly.
func BuildRow(header []string, rec domain.HabitRecord) []string {
	row := make([]string, len(header))
	for i, col := range header {
		switch strings.ToLower(col) {
		case "datetime":
			row[i] = rec.DateTime
		case "date":
			row[i] = rec.Date
		case "raw_input":
			row[i] = rec.RawInput
		default:
			if v, ok := rec.Fields[col]; ok {
				row[i] = formatValue(v)
			}
		}
	}
	return row
}

// formatValue renders an extracted value as a cell. Strings pass
// through; numbers avoid float artifacts; composites become JSON.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []any, map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}
