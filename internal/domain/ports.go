package domain

import "context"

// Extractor turns free text into a structured habit record following
// the given schema. Prior carries the previous attempt during a
// correction round, so the extractor can produce an incrementally
// corrected record.
type Extractor interface {
	Extract(ctx context.Context, text string, schema HabitSchema, prior *ExtractionContext) (map[string]any, error)
}

// ExtractionContext is the previous attempt handed back to the
// extractor while the user is editing.
type ExtractionContext struct {
	RawInput  string
	Extracted map[string]any
}

// Transcriber resolves a voice attachment to text.
type Transcriber interface {
	Transcribe(ctx context.Context, voice VoiceRef) (string, error)
}

// Messenger delivers outbound messages to the chat transport.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// SessionStore holds in-flight sessions keyed by user id. The
// conversation engine is the only writer.
type SessionStore interface {
	Get(id UserID) (*UserSession, bool)
	Put(session *UserSession)
	Delete(id UserID)
}

// SettingsStore persists per-user settings; LoadAll repopulates the
// in-memory registry at process start.
type SettingsStore interface {
	Load(ctx context.Context, id UserID) (*UserSettings, error)
	Save(ctx context.Context, id UserID, settings *UserSettings) error
	LoadAll(ctx context.Context) (map[UserID]*UserSettings, error)
}

// TableStore is the external tabular store: per user one logical
// spreadsheet with named worksheets. It offers whole-range reads and
// rewrites only; rows include the header row, mirroring the sheet.
type TableStore interface {
	EnsureWorksheet(ctx context.Context, sheetID, worksheet string, header []string) error
	ReadHeader(ctx context.Context, sheetID, worksheet string) ([]string, error)
	WriteHeader(ctx context.Context, sheetID, worksheet string, header []string) error
	AppendRow(ctx context.Context, sheetID, worksheet string, row []string) error
	ReadAllRows(ctx context.Context, sheetID, worksheet string) ([][]string, error)
	ReplaceAllRows(ctx context.Context, sheetID, worksheet string, rows [][]string) error
}
