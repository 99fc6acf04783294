package syncer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndemidenko/habitbot/internal/app/syncer"
	"github.com/ndemidenko/habitbot/internal/domain"
)

var testHeader = []string{"datetime", "date", "raw_input", "mood"}

func TestRebuildAggregateLatestPerDay(t *testing.T) {
	rows := [][]string{
		{"2024-01-01 08:00:00", "2024-01-01", "morning", "ok"},
		{"2024-01-01 20:00:00", "2024-01-01", "evening", "good"},
	}

	agg, err := syncer.RebuildAggregate(rows, testHeader)
	require.NoError(t, err)
	require.Len(t, agg, 1)
	assert.Equal(t, rows[1], agg[0])
}

func TestRebuildAggregateOneRowPerDate(t *testing.T) {
	rows := [][]string{
		{"2024-01-02 09:00:00", "2024-01-02", "a", ""},
		{"2024-01-01 23:59:59", "2024-01-01", "b", ""},
		{"2024-01-02 07:00:00", "2024-01-02", "c", ""},
		{"2024-01-03 01:00:00", "2024-01-03", "d", ""},
	}

	agg, err := syncer.RebuildAggregate(rows, testHeader)
	require.NoError(t, err)
	require.Len(t, agg, 3)

	// Sorted ascending by datetime.
	assert.Equal(t, "2024-01-01 23:59:59", agg[0][0])
	assert.Equal(t, "2024-01-02 09:00:00", agg[1][0])
	assert.Equal(t, "2024-01-03 01:00:00", agg[2][0])
}

func TestRebuildAggregateTieBreakLastAppendWins(t *testing.T) {
	rows := [][]string{
		{"2024-01-01 10:00:00", "2024-01-01", "first", ""},
		{"2024-01-01 10:00:00", "2024-01-01", "second", ""},
	}

	agg, err := syncer.RebuildAggregate(rows, testHeader)
	require.NoError(t, err)
	require.Len(t, agg, 1)
	assert.Equal(t, "second", agg[0][2])
}

func TestRebuildAggregateSkipsMalformedRows(t *testing.T) {
	rows := [][]string{
		{"not-a-datetime", "2024-01-01", "bad", ""},
		{"2024-01-01 10:00:00"}, // short row
		{"2024-01-01 11:00:00", "2024-01-01", "good", ""},
	}

	agg, err := syncer.RebuildAggregate(rows, testHeader)
	require.NoError(t, err)
	require.Len(t, agg, 1)
	assert.Equal(t, "good", agg[0][2])
}

func TestRebuildAggregateBackdatedEntry(t *testing.T) {
	// A later submission targeting an earlier calendar date still wins
	// its own date and sorts by datetime, not by date.
	rows := [][]string{
		{"2024-01-05 09:00:00", "2024-01-05", "fifth", ""},
		{"2024-01-06 09:00:00", "2024-01-02", "backdated", ""},
	}

	agg, err := syncer.RebuildAggregate(rows, testHeader)
	require.NoError(t, err)
	require.Len(t, agg, 2)
	assert.Equal(t, "fifth", agg[0][2])
	assert.Equal(t, "backdated", agg[1][2])
}

func TestRebuildAggregateMissingColumns(t *testing.T) {
	_, err := syncer.RebuildAggregate(nil, []string{"raw_input", "mood"})
	assert.Error(t, err)
}

func TestBuildRowAlignsToHeader(t *testing.T) {
	header := []string{"datetime", "date", "raw_input", "mood", "sleep_hours", "exercise"}
	rec := domain.HabitRecord{
		DateTime: "2024-01-01 08:00:00",
		Date:     "2024-01-01",
		RawInput: "slept well",
		Fields: map[string]any{
			"mood":        "good",
			"sleep_hours": 7.5,
			// no "exercise": extracted against an older schema
		},
	}

	row := syncer.BuildRow(header, rec)
	assert.Equal(t, []string{"2024-01-01 08:00:00", "2024-01-01", "slept well", "good", "7.5", ""}, row)
}

func TestBuildRowValueFormatting(t *testing.T) {
	header := []string{"datetime", "date", "raw_input", "count", "done", "tags", "skipped"}
	rec := domain.HabitRecord{
		DateTime: "2024-01-01 08:00:00",
		Date:     "2024-01-01",
		RawInput: "x",
		Fields: map[string]any{
			"count":   3.0,
			"done":    true,
			"tags":    []any{"a", "b"},
			"skipped": nil,
		},
	}

	row := syncer.BuildRow(header, rec)
	assert.Equal(t, "3", row[3])
	assert.Equal(t, "true", row[4])
	assert.Equal(t, `["a","b"]`, row[5])
	assert.Equal(t, "", row[6])
}
