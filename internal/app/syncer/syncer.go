package syncer

import (
	"context"
	"sync"

	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

// Syncer owns all writes to a user's spreadsheet. The
// reconcile-append-rebuild sequence for one sheet never interleaves
// with itself; different sheets proceed independently.
type Syncer struct {
	tables domain.TableStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(tables domain.TableStore) *Syncer {
	return &Syncer{
		tables: tables,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Syncer) lockSheet(sheetID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sheetID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sheetID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// RecordOutcome reports what happened past the raw append. A non-nil
// AggregateErr means the entry is safely in the raw log but the daily
// view could not be refreshed; the entry itself is not lost.
type RecordOutcome struct {
	AggregateErr error
}

// Record appends a confirmed habit record to the raw log and rebuilds
// the daily view. The header is reconciled first, so records extracted
// against an older habit set land aligned to the current columns.
func (s *Syncer) Record(ctx context.Context, sheetID string, habitNames []string, rec domain.HabitRecord) (RecordOutcome, error) {
	unlock := s.lockSheet(sheetID)
	defer unlock()

	log := observability.LoggerFromContext(ctx).With("sheet_id", sheetID)

	header, err := s.tables.ReadHeader(ctx, sheetID, WorksheetRaw)
	if err != nil {
		return RecordOutcome{}, &domain.StoreError{Op: "read raw header", Err: err}
	}

	reconciled := ReconcileHeader(header, habitNames)
	if !HeadersEqual(header, reconciled) {
		if err := s.tables.WriteHeader(ctx, sheetID, WorksheetRaw, reconciled); err != nil {
			return RecordOutcome{}, &domain.StoreError{Op: "write raw header", Err: err}
		}
		log.Info("raw header reconciled", "columns", len(reconciled))
	}

	row := BuildRow(reconciled, rec)
	if err := s.tables.AppendRow(ctx, sheetID, WorksheetRaw, row); err != nil {
		return RecordOutcome{}, &domain.StoreError{Op: "append raw row", Err: err}
	}
	log.Info("raw row appended", "date", rec.Date)

	// The raw append succeeded; anything past this point is soft.
	if err := s.rebuildDailyView(ctx, sheetID); err != nil {
		log.Error("daily view rebuild failed", "error", err)
		return RecordOutcome{AggregateErr: err}, nil
	}
	return RecordOutcome{}, nil
}

func (s *Syncer) rebuildDailyView(ctx context.Context, sheetID string) error {
	all, err := s.tables.ReadAllRows(ctx, sheetID, WorksheetRaw)
	if err != nil {
		return &domain.StoreError{Op: "read raw rows", Err: err}
	}
	if len(all) == 0 {
		return nil
	}

	header := all[0]
	agg, err := RebuildAggregate(all[1:], header)
	if err != nil {
		return &domain.StoreError{Op: "rebuild aggregate", Err: err}
	}

	if err := s.tables.EnsureWorksheet(ctx, sheetID, WorksheetDiary, header); err != nil {
		return &domain.StoreError{Op: "ensure diary worksheet", Err: err}
	}

	rows := make([][]string, 0, len(agg)+1)
	rows = append(rows, header)
	rows = append(rows, agg...)
	if err := s.tables.ReplaceAllRows(ctx, sheetID, WorksheetDiary, rows); err != nil {
		return &domain.StoreError{Op: "rewrite diary rows", Err: err}
	}

	observability.LoggerFromContext(ctx).Info("daily view rebuilt",
		"sheet_id", sheetID, "days", len(agg))
	return nil
}

// AppendNote writes a dream/thoughts row: the raw text duplicated into
// the kind-specific column. Creates the worksheet on first use.
func (s *Syncer) AppendNote(ctx context.Context, sheetID string, kind domain.NoteKind, rec domain.HabitRecord) error {
	unlock := s.lockSheet(sheetID)
	defer unlock()

	spec := kind.Spec()
	if err := s.tables.EnsureWorksheet(ctx, sheetID, spec.Worksheet, noteHeader(kind)); err != nil {
		return &domain.StoreError{Op: "ensure " + spec.Worksheet + " worksheet", Err: err}
	}

	header, err := s.tables.ReadHeader(ctx, sheetID, spec.Worksheet)
	if err != nil {
		return &domain.StoreError{Op: "read " + spec.Worksheet + " header", Err: err}
	}
	reconciled := ReconcileHeader(header, []string{spec.Column})
	if !HeadersEqual(header, reconciled) {
		if err := s.tables.WriteHeader(ctx, sheetID, spec.Worksheet, reconciled); err != nil {
			return &domain.StoreError{Op: "write " + spec.Worksheet + " header", Err: err}
		}
	}

	row := BuildRow(reconciled, rec)
	if err := s.tables.AppendRow(ctx, sheetID, spec.Worksheet, row); err != nil {
		return &domain.StoreError{Op: "append " + spec.Worksheet + " row", Err: err}
	}

	observability.LoggerFromContext(ctx).Info("note appended",
		"sheet_id", sheetID, "kind", string(kind))
	return nil
}

// SyncHeader reconciles the raw log's header against the current habit
// set. Called when the configuration changes.
func (s *Syncer) SyncHeader(ctx context.Context, sheetID string, habitNames []string) error {
	unlock := s.lockSheet(sheetID)
	defer unlock()

	header, err := s.tables.ReadHeader(ctx, sheetID, WorksheetRaw)
	if err != nil {
		return &domain.StoreError{Op: "read raw header", Err: err}
	}

	reconciled := ReconcileHeader(header, habitNames)
	if HeadersEqual(header, reconciled) {
		return nil
	}
	if err := s.tables.WriteHeader(ctx, sheetID, WorksheetRaw, reconciled); err != nil {
		return &domain.StoreError{Op: "write raw header", Err: err}
	}

	observability.LoggerFromContext(ctx).Info("header synchronized",
		"sheet_id", sheetID, "columns", len(reconciled))
	return nil
}

// EnsureWorksheets bootstraps the four worksheets with their initial
// headers when a sheet is first linked.
func (s *Syncer) EnsureWorksheets(ctx context.Context, sheetID string) error {
	unlock := s.lockSheet(sheetID)
	defer unlock()

	base := append([]string(nil), FixedColumns...)
	for _, ws := range []struct {
		name   string
		header []string
	}{
		{WorksheetRaw, base},
		{WorksheetDiary, base},
		{domain.NoteDream.Spec().Worksheet, noteHeader(domain.NoteDream)},
		{domain.NoteThoughts.Spec().Worksheet, noteHeader(domain.NoteThoughts)},
	} {
		if err := s.tables.EnsureWorksheet(ctx, sheetID, ws.name, ws.header); err != nil {
			return &domain.StoreError{Op: "ensure " + ws.name + " worksheet", Err: err}
		}
	}
	return nil
}

func noteHeader(kind domain.NoteKind) []string {
	return append(append([]string(nil), FixedColumns...), kind.Spec().Column)
}
