package syncer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// RebuildAggregate derives the daily view from the raw data rows: one
// row per distinct date, keeping the row with the maximum datetime.
// Equal datetimes resolve to the later append. Output is sorted
// ascending by datetime. The datetime layout is zero-padded, so plain
// string comparison is chronological comparison.
//
// This is a full rebuild on purpose: O(n) per append is cheap at
// per-user diary volumes and immune to incremental-update drift.
func RebuildAggregate(dataRows [][]string, header []string) ([][]string, error) {
	idxDT := indexOfColumn(header, "datetime")
	idxDate := indexOfColumn(header, "date")
	if idxDT < 0 || idxDate < 0 {
		return nil, fmt.Errorf("header is missing the datetime or date column")
	}

	type entry struct {
		row []string
		dt  string
		seq int
	}

	latest := make(map[string]entry)
	for seq, row := range dataRows {
		if len(row) <= idxDT || len(row) <= idxDate {
			continue
		}
		dt := row[idxDT]
		if _, err := time.Parse(domain.DateTimeLayout, dt); err != nil {
			continue
		}
		day := row[idxDate]
		// >= keeps the later append on equal datetimes.
		if cur, ok := latest[day]; !ok || dt >= cur.dt {
			latest[day] = entry{row: row, dt: dt, seq: seq}
		}
	}

	out := make([]entry, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].dt != out[j].dt {
			return out[i].dt < out[j].dt
		}
		return out[i].seq < out[j].seq
	})

	rows := make([][]string, 0, len(out))
	for _, e := range out {
		rows = append(rows, e.row)
	}
	return rows, nil
}

func indexOfColumn(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}
