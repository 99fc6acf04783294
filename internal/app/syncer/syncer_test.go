package syncer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndemidenko/habitbot/internal/adapters/storage/memory"
	"github.com/ndemidenko/habitbot/internal/app/syncer"
	"github.com/ndemidenko/habitbot/internal/domain"
)

const sheetID = "sheet-1"

func newSyncedSheet(t *testing.T) (*syncer.Syncer, *memory.TableStore) {
	t.Helper()

	tables := memory.NewTableStore()
	s := syncer.New(tables)
	require.NoError(t, s.EnsureWorksheets(context.Background(), sheetID))
	return s, tables
}

func TestEnsureWorksheetsBootstrap(t *testing.T) {
	_, tables := newSyncedSheet(t)
	ctx := context.Background()

	raw, err := tables.ReadHeader(ctx, sheetID, syncer.WorksheetRaw)
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "date", "raw_input"}, raw)

	dreams, err := tables.ReadHeader(ctx, sheetID, "Dreams")
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "date", "raw_input", "dream"}, dreams)

	thoughts, err := tables.ReadHeader(ctx, sheetID, "Thoughts")
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "date", "raw_input", "thought"}, thoughts)
}

func TestRecordAppendsAndRebuildsDiary(t *testing.T) {
	s, tables := newSyncedSheet(t)
	ctx := context.Background()
	habits := []string{"mood", "sleep_hours"}

	out, err := s.Record(ctx, sheetID, habits, domain.HabitRecord{
		DateTime: "2024-01-01 08:00:00",
		Date:     "2024-01-01",
		RawInput: "morning entry",
		Fields:   map[string]any{"mood": "ok", "sleep_hours": 6.0},
	})
	require.NoError(t, err)
	require.NoError(t, out.AggregateErr)

	out, err = s.Record(ctx, sheetID, habits, domain.HabitRecord{
		DateTime: "2024-01-01 20:00:00",
		Date:     "2024-01-01",
		RawInput: "evening entry",
		Fields:   map[string]any{"mood": "good", "sleep_hours": 6.0},
	})
	require.NoError(t, err)
	require.NoError(t, out.AggregateErr)

	raw, err := tables.ReadAllRows(ctx, sheetID, syncer.WorksheetRaw)
	require.NoError(t, err)
	require.Len(t, raw, 3) // header + 2 appends
	assert.Equal(t, []string{"datetime", "date", "raw_input", "mood", "sleep_hours"}, raw[0])

	diary, err := tables.ReadAllRows(ctx, sheetID, syncer.WorksheetDiary)
	require.NoError(t, err)
	require.Len(t, diary, 2) // header + one row per day
	assert.Equal(t, "evening entry", diary[1][2])
}

func TestRecordRoundTripKeepsFields(t *testing.T) {
	s, tables := newSyncedSheet(t)
	ctx := context.Background()

	rec := domain.HabitRecord{
		DateTime: "2024-02-10 21:30:00",
		Date:     "2024-02-10",
		RawInput: "ran and read",
		Fields:   map[string]any{"exercise": "run", "pages": 40.0},
	}
	out, err := s.Record(ctx, sheetID, []string{"exercise", "pages"}, rec)
	require.NoError(t, err)
	require.NoError(t, out.AggregateErr)

	diary, err := tables.ReadAllRows(ctx, sheetID, syncer.WorksheetDiary)
	require.NoError(t, err)
	require.Len(t, diary, 2)

	header, row := diary[0], diary[1]
	byName := map[string]string{}
	for i, col := range header {
		byName[col] = row[i]
	}
	assert.Equal(t, "ran and read", byName["raw_input"])
	assert.Equal(t, "run", byName["exercise"])
	assert.Equal(t, "40", byName["pages"])
}

func TestRecordWithOlderSchemaLeavesNewColumnsEmpty(t *testing.T) {
	s, tables := newSyncedSheet(t)
	ctx := context.Background()

	_, err := s.Record(ctx, sheetID, []string{"mood", "exercise"}, domain.HabitRecord{
		DateTime: "2024-01-01 08:00:00",
		Date:     "2024-01-01",
		RawInput: "old schema entry",
		Fields:   map[string]any{"mood": "fine"}, // no exercise yet
	})
	require.NoError(t, err)

	raw, err := tables.ReadAllRows(ctx, sheetID, syncer.WorksheetRaw)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01 08:00:00", "2024-01-01", "old schema entry", "fine", ""}, raw[1])
}

func TestSyncHeaderIsIdempotentAgainstStore(t *testing.T) {
	s, tables := newSyncedSheet(t)
	ctx := context.Background()

	require.NoError(t, s.SyncHeader(ctx, sheetID, []string{"exercise"}))
	first, err := tables.ReadHeader(ctx, sheetID, syncer.WorksheetRaw)
	require.NoError(t, err)

	require.NoError(t, s.SyncHeader(ctx, sheetID, []string{"exercise"}))
	second, err := tables.ReadHeader(ctx, sheetID, syncer.WorksheetRaw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"datetime", "date", "raw_input", "exercise"}, second)
}

func TestAppendNote(t *testing.T) {
	s, tables := newSyncedSheet(t)
	ctx := context.Background()

	err := s.AppendNote(ctx, sheetID, domain.NoteDream, domain.HabitRecord{
		DateTime: "2024-03-01 07:15:00",
		Date:     "2024-03-01",
		RawInput: "flying over the city",
		Fields:   map[string]any{"dream": "flying over the city"},
	})
	require.NoError(t, err)

	rows, err := tables.ReadAllRows(ctx, sheetID, "Dreams")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-03-01 07:15:00", "2024-03-01", "flying over the city", "flying over the city"}, rows[1])
}

func TestAppendNoteCreatesWorksheet(t *testing.T) {
	// No EnsureWorksheets bootstrap: only the bare sheet exists.
	tables := memory.NewTableStore()
	require.NoError(t, tables.EnsureWorksheet(context.Background(), "fresh", "Sheet1", nil))
	s := syncer.New(tables)

	err := s.AppendNote(context.Background(), "fresh", domain.NoteThoughts, domain.HabitRecord{
		DateTime: "2024-03-02 12:00:00",
		Date:     "2024-03-02",
		RawInput: "an idea",
		Fields:   map[string]any{"thought": "an idea"},
	})
	require.NoError(t, err)

	rows, err := tables.ReadAllRows(context.Background(), "fresh", "Thoughts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "an idea", rows[1][3])
}

// brokenReadStore refuses whole-range reads, so every daily view
// rebuild fails while appends still land.
type brokenReadStore struct {
	*memory.TableStore
}

func (s *brokenReadStore) ReadAllRows(ctx context.Context, sheetID, worksheet string) ([][]string, error) {
	return nil, errors.New("range read refused")
}

func TestRecordRebuildFailureKeepsRawRow(t *testing.T) {
	tables := memory.NewTableStore()
	s := syncer.New(&brokenReadStore{TableStore: tables})
	ctx := context.Background()
	require.NoError(t, s.EnsureWorksheets(ctx, sheetID))

	out, err := s.Record(ctx, sheetID, []string{"mood"}, domain.HabitRecord{
		DateTime: "2024-01-01 08:00:00",
		Date:     "2024-01-01",
		RawInput: "slept fine",
		Fields:   map[string]any{"mood": "ok"},
	})
	require.NoError(t, err)
	require.Error(t, out.AggregateErr)
	assert.True(t, domain.IsStore(out.AggregateErr))

	// The appended row is still in the raw log.
	rows, err := tables.ReadAllRows(ctx, sheetID, syncer.WorksheetRaw)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "slept fine", rows[1][2])
}

func TestRecordStoreFailureIsStoreError(t *testing.T) {
	s := syncer.New(memory.NewTableStore())

	// Sheet never linked: the header read fails.
	_, err := s.Record(context.Background(), "missing", nil, domain.HabitRecord{
		DateTime: "2024-01-01 08:00:00",
		Date:     "2024-01-01",
	})
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))
}
