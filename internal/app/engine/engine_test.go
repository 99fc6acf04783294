package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndemidenko/habitbot/internal/adapters/storage/memory"
	"github.com/ndemidenko/habitbot/internal/app/syncer"
	"github.com/ndemidenko/habitbot/internal/domain"
)

const (
	testUser  = domain.UserID(42)
	testChat  = domain.ChatID(42)
	testSheet = "sheet-42"
)

var testNow = time.Date(2024, 5, 10, 21, 30, 0, 0, time.UTC)

type stubExtractor struct {
	fields map[string]any
	err    error
	calls  []extractCall
}

type extractCall struct {
	text  string
	prior *domain.ExtractionContext
}

func (s *stubExtractor) Extract(_ context.Context, text string, _ domain.HabitSchema, prior *domain.ExtractionContext) (map[string]any, error) {
	s.calls = append(s.calls, extractCall{text: text, prior: prior})
	if s.err != nil {
		return nil, s.err
	}
	return s.fields, nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(context.Context, domain.VoiceRef) (string, error) {
	return s.text, s.err
}

type fixture struct {
	engine      *Engine
	sessions    *memory.SessionStore
	tables      *memory.TableStore
	settings    *memory.SettingsStore
	extractor   *stubExtractor
	transcriber *stubTranscriber
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sessions:    memory.NewSessionStore(),
		tables:      memory.NewTableStore(),
		settings:    memory.NewSettingsStore(),
		extractor:   &stubExtractor{fields: map[string]any{"mood": "good", "sleep_hours": 8.0}},
		transcriber: &stubTranscriber{},
	}
	f.engine = New(f.sessions, f.settings, f.extractor, f.transcriber, syncer.New(f.tables))
	f.engine.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) send(t *testing.T, text string) []domain.OutboundMessage {
	t.Helper()
	return f.engine.HandleMessage(context.Background(), domain.InboundMessage{
		UserID: testUser,
		ChatID: testChat,
		Text:   text,
	})
}

func (f *fixture) sendVoice(t *testing.T) []domain.OutboundMessage {
	t.Helper()
	return f.engine.HandleMessage(context.Background(), domain.InboundMessage{
		UserID: testUser,
		ChatID: testChat,
		Voice:  &domain.VoiceRef{FileID: "voice-1"},
	})
}

const validConfig = `{
	"habits": {
		"mood": {"type": "string", "description": "How was your mood?"},
		"sleep_hours": {"type": "number", "description": "Hours slept", "minimum": 0, "maximum": 24}
	},
	"reminder_time": "21:00",
	"timezone": "Europe/Amsterdam"
}`

func (f *fixture) completeSetup(t *testing.T) {
	t.Helper()

	out := f.send(t, "/set_sheet "+testSheet)
	require.Len(t, out, 1)
	require.Contains(t, out[0].Text, "linked successfully")

	out = f.send(t, "/update_config")
	require.Contains(t, out[0].Text, "example")

	out = f.send(t, validConfig)
	require.Contains(t, out[0].Text, "updated and saved successfully")
}

func lastText(out []domain.OutboundMessage) string {
	if len(out) == 0 {
		return ""
	}
	return out[len(out)-1].Text
}

func TestFlowCommandsRequireSetup(t *testing.T) {
	f := newFixture(t)

	for _, cmd := range []string{"/habits", "/manual", "/dream", "/thoughts"} {
		out := f.send(t, cmd)
		assert.Equal(t, setupNeededText, lastText(out), cmd)
	}

	out := f.send(t, "/update_config")
	assert.Equal(t, linkSheetFirst, lastText(out))
}

func TestStartBeforeAndAfterSetup(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "/start")
	assert.Contains(t, out[0].Text, "complete the setup")

	f.completeSetup(t)
	out = f.send(t, "/start")
	assert.Equal(t, welcomeBackText, out[0].Text)
}

func TestSetupPersistsSettings(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	st, err := f.settings.Load(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, testSheet, st.SheetID)
	assert.Equal(t, "Europe/Amsterdam", st.Timezone)
	assert.Contains(t, st.Config.Habits, "mood")
	assert.True(t, st.SetupComplete())

	// Config update synchronized the raw header with the habit set.
	header, err := f.tables.ReadHeader(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "date", "raw_input", "mood", "sleep_hours"}, header)
}

func TestHabitsHappyPath(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	out := f.send(t, "/habits")
	assert.Equal(t, askDateText, lastText(out))

	out = f.send(t, "Today")
	assert.Contains(t, lastText(out), "Please describe your day for 2024-05-10")
	assert.Contains(t, lastText(out), "*mood*")

	out = f.send(t, "slept 8 hours, mood was good")
	assert.Contains(t, lastText(out), "Is this correct?")

	out = f.send(t, "Yes")
	assert.Equal(t, appendedText, lastText(out))

	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-05-10 21:30:00", "2024-05-10", "slept 8 hours, mood was good", "good", "8"}, rows[1])

	diary, err := f.tables.ReadAllRows(context.Background(), testSheet, syncer.WorksheetDiary)
	require.NoError(t, err)
	assert.Len(t, diary, 2)
}

func TestYesterdayUsesPreviousDate(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	out := f.send(t, "Yesterday")
	assert.Contains(t, lastText(out), "2024-05-09")
}

func TestCustomDateValidation(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	out := f.send(t, "Custom Date")
	assert.Equal(t, askCustomDate, lastText(out))

	out = f.send(t, "10-05-2024")
	assert.Equal(t, badDateFormat, lastText(out))

	out = f.send(t, "not a date")
	assert.Equal(t, badDateFormat, lastText(out))

	out = f.send(t, "2024-05-01")
	assert.Contains(t, lastText(out), "Please describe your day for 2024-05-01")
}

func TestInvalidDateOptionReprompts(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	out := f.send(t, "tomorrow")
	assert.Equal(t, badDateOption, lastText(out))

	out = f.send(t, "Today")
	assert.Contains(t, lastText(out), "Please describe your day")
}

func TestExtractionFailureKeepsNoDraft(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")

	f.extractor.err = errors.New("upstream unavailable")
	out := f.send(t, "a long day")
	assert.Equal(t, extractFailText, lastText(out))

	// Still awaiting input: a retry goes through extraction again.
	f.extractor.err = nil
	out = f.send(t, "a long day, retried")
	assert.Contains(t, lastText(out), "Is this correct?")

	f.send(t, "Yes")
	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a long day, retried", rows[1][2])
}

func TestConfirmRejectsOtherAnswers(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")
	f.send(t, "my day")

	out := f.send(t, "maybe")
	assert.Equal(t, yesOrNoText, lastText(out))

	out = f.send(t, "YES")
	assert.Equal(t, appendedText, lastText(out))
}

func TestEditingPassesPriorContext(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")
	f.send(t, "original description")

	out := f.send(t, "No")
	assert.Equal(t, askCorrections, lastText(out))

	f.extractor.fields = map[string]any{"mood": "ok", "sleep_hours": 7.0}
	out = f.send(t, "actually mood was just ok")
	assert.Contains(t, lastText(out), "Is this correct now?")

	require.Len(t, f.extractor.calls, 2)
	correction := f.extractor.calls[1]
	assert.Equal(t, "actually mood was just ok", correction.text)
	require.NotNil(t, correction.prior)
	assert.Equal(t, "original description", correction.prior.RawInput)
	assert.Equal(t, "good", correction.prior.Extracted["mood"])

	f.send(t, "Yes")
	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	// Original raw input survives the correction round.
	assert.Equal(t, "original description", rows[1][2])
	assert.Equal(t, "ok", rows[1][3])
}

func TestEditingFailurePreservesDraft(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")
	f.send(t, "my day")
	f.send(t, "No")

	f.extractor.err = errors.New("upstream unavailable")
	out := f.send(t, "a correction")
	assert.Equal(t, editFailText, lastText(out))

	f.extractor.err = nil
	out = f.send(t, "a correction, retried")
	assert.Contains(t, lastText(out), "Is this correct now?")
}

func TestCancelMidFlow(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")
	f.send(t, "my day")
	f.send(t, "No")

	out := f.send(t, "cancel")
	assert.Equal(t, cancelledText, lastText(out))

	// A fresh flow starts from date selection with no leftover draft.
	out = f.send(t, "/habits")
	assert.Equal(t, askDateText, lastText(out))
	out = f.send(t, "my day without a date")
	assert.Equal(t, badDateOption, lastText(out))
}

func TestSessionRemovedWhenFlowEnds(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	_, ok := f.sessions.Get(testUser)
	require.True(t, ok)

	f.send(t, "cancel")
	_, ok = f.sessions.Get(testUser)
	assert.False(t, ok)

	// Completion clears the store too, not just cancellation.
	f.send(t, "/habits")
	f.send(t, "Today")
	f.send(t, "my day")
	f.send(t, "Yes")
	_, ok = f.sessions.Get(testUser)
	assert.False(t, ok)
}

func TestCancelCommandWhenIdle(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "/cancel")
	assert.Equal(t, cancelledText, lastText(out))
}

func TestVoiceInputTranscribed(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")

	f.transcriber.text = "spoken description of my day"
	out := f.sendVoice(t)
	assert.Contains(t, lastText(out), "Is this correct?")

	f.send(t, "Yes")
	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	assert.Equal(t, "spoken description of my day", rows[1][2])
}

func TestVoiceFailureReprompts(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")

	f.transcriber.err = errors.New("fetch failed")
	out := f.sendVoice(t)
	assert.Equal(t, badVoiceText, lastText(out))

	f.transcriber.err = nil
	f.transcriber.text = "second attempt"
	out = f.sendVoice(t)
	assert.Contains(t, lastText(out), "Is this correct?")
}

func TestDreamFlow(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	out := f.send(t, "/dream")
	assert.Contains(t, lastText(out), "describe your dream")

	out = f.send(t, "flying over the city")
	assert.Contains(t, lastText(out), "Do you want to save it?")

	out = f.send(t, "Yes")
	assert.Equal(t, "Your dream has been saved successfully!", lastText(out))

	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, "Dreams")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-05-10 21:30:00", "2024-05-10", "flying over the city", "flying over the city"}, rows[1])
}

func TestThoughtsEditRound(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/thoughts")
	f.send(t, "first draft")

	out := f.send(t, "No")
	assert.Contains(t, lastText(out), "corrected thoughts")

	out = f.send(t, "second draft")
	assert.Contains(t, lastText(out), "Is this correct now?")

	f.send(t, "Yes")
	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, "Thoughts")
	require.NoError(t, err)
	assert.Equal(t, "second draft", rows[1][2])
}

func TestManualJSON(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/manual")
	out := f.send(t, "{not json")
	assert.Equal(t, "Invalid JSON format. Please try again.", lastText(out))

	f.send(t, `{"mood": "good"}`)

	// Flow is over: the next free text lands in no flow.
	out = f.send(t, "hello")
	assert.Equal(t, unknownText, lastText(out))

	// Nothing was appended to the sheet.
	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestConfigErrorsKeepState(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/update_config")
	out := f.send(t, `{"habits": {"mood": {"type": "string"}}}`)
	assert.Contains(t, lastText(out), "Habits config errors:")

	// Still updating: a corrected document goes through.
	out = f.send(t, validConfig)
	assert.Contains(t, lastText(out), "updated and saved successfully")
}

func TestConfigUpdateAddsHeaderColumn(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/update_config")
	out := f.send(t, `{
		"habits": {
			"mood": {"type": "string", "description": "How was your mood?"},
			"sleep_hours": {"type": "number", "description": "Hours slept"},
			"exercise": {"type": "string", "description": "What exercise did you do?"}
		}
	}`)
	require.Contains(t, lastText(out), "updated and saved successfully")

	header, err := f.tables.ReadHeader(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "date", "raw_input", "mood", "sleep_hours", "exercise"}, header)
}

func TestAppendFailureClearsSession(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")
	f.send(t, "my day")

	// Break the link: the append will fail but the session still clears.
	st := f.engine.settingsFor(testUser)
	st.SheetID = "gone"

	out := f.send(t, "Yes")
	assert.Equal(t, appendFailedText, lastText(out))

	out = f.send(t, "hello")
	assert.Equal(t, unknownText, lastText(out))
}

// rebuildFailStore breaks whole-range reads so the daily view rebuild
// fails while the raw append still lands.
type rebuildFailStore struct {
	*memory.TableStore
}

func (s *rebuildFailStore) ReadAllRows(ctx context.Context, sheetID, worksheet string) ([][]string, error) {
	return nil, errors.New("range read refused")
}

func TestAggregateFailureWarnsAfterSave(t *testing.T) {
	f := newFixture(t)
	f.engine.tables = syncer.New(&rebuildFailStore{TableStore: f.tables})
	f.completeSetup(t)

	f.send(t, "/habits")
	f.send(t, "Today")
	f.send(t, "slept 8 hours, mood was good")
	out := f.send(t, "Yes")

	// Saved confirmation first, then the rebuild warning.
	require.Len(t, out, 2)
	assert.Equal(t, appendedText, out[0].Text)
	assert.Equal(t, aggregateWarning, out[1].Text)

	// The entry is in the raw log despite the failed rebuild.
	rows, err := f.tables.ReadAllRows(context.Background(), testSheet, syncer.WorksheetRaw)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "slept 8 hours, mood was good", rows[1][2])

	out = f.send(t, "hello")
	assert.Equal(t, unknownText, lastText(out))
}

func TestSetSheetWithoutArgument(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "/set_sheet")
	assert.Equal(t, missingSheetArg, lastText(out))
}

func TestSnapshotCopiesSettings(t *testing.T) {
	f := newFixture(t)
	f.completeSetup(t)

	snap := f.engine.Snapshot()
	require.Contains(t, snap, testUser)
	assert.Equal(t, testSheet, snap[testUser].SheetID)

	snap[testUser].SheetID = "mutated"
	assert.Equal(t, testSheet, f.engine.settingsFor(testUser).SheetID)
}
