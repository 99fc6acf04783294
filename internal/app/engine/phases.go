package engine

import (
	"context"
	"strings"
	"time"

	"github.com/ndemidenko/habitbot/internal/app/schema"
	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

func (e *Engine) handlePhase(ctx context.Context, session *domain.UserSession, msg domain.InboundMessage, text string, r *replies) {
	switch session.Phase {
	case domain.PhaseSelectingDate:
		e.selectDate(session, text, r)
	case domain.PhaseAwaitingCustomDate:
		e.customDate(session, text, r)
	case domain.PhaseAwaitingInput:
		e.captureInput(ctx, session, msg, text, r)
	case domain.PhaseConfirming:
		e.confirm(ctx, session, text, r)
	case domain.PhaseEditing:
		e.edit(ctx, session, msg, text, r)
	case domain.PhaseAwaitingText:
		e.captureNote(ctx, session, msg, text, r)
	case domain.PhaseAwaitingManualJSON:
		e.manualJSON(session, text, r)
	case domain.PhaseAwaitingConfigJSON:
		e.updateConfig(ctx, session, text, r)
	default:
		session.Reset()
		r.say(unknownText, commandKeyboard)
	}
}

func (e *Engine) selectDate(session *domain.UserSession, text string, r *replies) {
	switch strings.ToLower(text) {
	case "today":
		session.DraftDate = e.now().Format(domain.DateLayout)
	case "yesterday":
		session.DraftDate = e.now().AddDate(0, 0, -1).Format(domain.DateLayout)
	case "custom date":
		session.Phase = domain.PhaseAwaitingCustomDate
		r.say(askCustomDate, commandKeyboard)
		return
	default:
		r.say(badDateOption, dateKeyboard)
		return
	}
	session.Phase = domain.PhaseAwaitingInput
	r.say(inputPrompt(session.DraftDate, e.settingsFor(session.UserID).Config), commandKeyboard)
}

func (e *Engine) customDate(session *domain.UserSession, text string, r *replies) {
	parsed, err := time.Parse(domain.DateLayout, text)
	if err != nil {
		r.say(badDateFormat, commandKeyboard)
		return
	}
	session.DraftDate = parsed.Format(domain.DateLayout)
	session.Phase = domain.PhaseAwaitingInput
	r.say(inputPrompt(session.DraftDate, e.settingsFor(session.UserID).Config), commandKeyboard)
}

// resolveText turns the inbound message into plain text, transcribing a
// voice attachment when one is present. A false return means the user
// was already told to retry.
func (e *Engine) resolveText(ctx context.Context, msg domain.InboundMessage, text string, r *replies) (string, bool) {
	if !msg.HasVoice() {
		return text, true
	}
	ctx, cancel := context.WithTimeout(ctx, adapterTimeout)
	defer cancel()
	transcribed, err := e.transcriber.Transcribe(ctx, *msg.Voice)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("voice transcription failed", "error", err)
		r.say(badVoiceText, commandKeyboard)
		return "", false
	}
	return transcribed, true
}

// extract runs the extractor against the user's current habit schema
// under a bounded timeout, so a hung upstream call cannot wedge the
// user's message queue.
func (e *Engine) extract(ctx context.Context, text string, st *domain.UserSettings, prior *domain.ExtractionContext) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, adapterTimeout)
	defer cancel()
	return e.extractor.Extract(ctx, text, schema.Compile(st.Config.Habits), prior)
}

func (e *Engine) captureInput(ctx context.Context, session *domain.UserSession, msg domain.InboundMessage, text string, r *replies) {
	input, ok := e.resolveText(ctx, msg, text, r)
	if !ok {
		return
	}

	st := e.settingsFor(session.UserID)
	extracted, err := e.extract(ctx, input, st, nil)
	if err != nil {
		// No partial draft: the session stays in this phase untouched.
		observability.LoggerFromContext(ctx).Error("habit extraction failed", "error", err)
		r.say(extractFailText, commandKeyboard)
		return
	}

	session.RawInput = input
	session.Extracted = extracted
	session.Phase = domain.PhaseConfirming
	r.say(extractedPrompt(extracted), yesNoKeyboard)
}

func (e *Engine) confirm(ctx context.Context, session *domain.UserSession, text string, r *replies) {
	switch strings.ToLower(text) {
	case "yes":
		if session.Flow == domain.FlowHabits {
			e.saveHabits(ctx, session, r)
		} else {
			e.saveNote(ctx, session, r)
		}
		session.Reset()
	case "no":
		session.Phase = domain.PhaseEditing
		if session.Flow == domain.FlowHabits {
			r.say(askCorrections, commandKeyboard)
		} else {
			r.say(noteAskCorrection(session.NoteKind), commandKeyboard)
		}
	default:
		r.say(yesOrNoText, yesNoKeyboard)
	}
}

func (e *Engine) edit(ctx context.Context, session *domain.UserSession, msg domain.InboundMessage, text string, r *replies) {
	correction, ok := e.resolveText(ctx, msg, text, r)
	if !ok {
		return
	}

	if session.Flow != domain.FlowHabits {
		session.RawInput = correction
		session.Phase = domain.PhaseConfirming
		r.say(noteCorrectedPrompt(session.NoteKind, correction), yesNoKeyboard)
		return
	}

	st := e.settingsFor(session.UserID)
	prior := &domain.ExtractionContext{
		RawInput:  session.RawInput,
		Extracted: session.Extracted,
	}
	extracted, err := e.extract(ctx, correction, st, prior)
	if err != nil {
		// The previous draft survives; the user can retry or cancel.
		observability.LoggerFromContext(ctx).Error("correction extraction failed", "error", err)
		r.say(editFailText, commandKeyboard)
		return
	}

	session.Extracted = extracted
	session.Phase = domain.PhaseConfirming
	r.say(correctedPrompt(extracted), yesNoKeyboard)
}

func (e *Engine) saveHabits(ctx context.Context, session *domain.UserSession, r *replies) {
	st := e.settingsFor(session.UserID)
	now := e.now()

	date := session.DraftDate
	if date == "" {
		date = now.Format(domain.DateLayout)
	}
	rec := domain.HabitRecord{
		DateTime: now.Format(domain.DateTimeLayout),
		Date:     date,
		RawInput: session.RawInput,
		Fields:   session.Extracted,
	}

	outcome, err := e.tables.Record(ctx, st.SheetID, st.Config.HabitNames(), rec)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("habit append failed", "error", err)
		r.say(appendFailedText, commandKeyboard)
		return
	}
	r.say(appendedText, commandKeyboard)
	if outcome.AggregateErr != nil {
		r.say(aggregateWarning, commandKeyboard)
	}
}

func (e *Engine) saveNote(ctx context.Context, session *domain.UserSession, r *replies) {
	st := e.settingsFor(session.UserID)
	kind := session.NoteKind
	now := e.now()

	rec := domain.HabitRecord{
		DateTime: now.Format(domain.DateTimeLayout),
		Date:     now.Format(domain.DateLayout),
		RawInput: session.RawInput,
		Fields:   map[string]any{kind.Spec().Column: session.RawInput},
	}

	if err := e.tables.AppendNote(ctx, st.SheetID, kind, rec); err != nil {
		observability.LoggerFromContext(ctx).Error("note append failed",
			"kind", string(kind), "error", err)
		r.say(noteFailedText(kind), commandKeyboard)
		return
	}
	r.say(noteSavedText(kind), commandKeyboard)
}

func (e *Engine) captureNote(ctx context.Context, session *domain.UserSession, msg domain.InboundMessage, text string, r *replies) {
	input, ok := e.resolveText(ctx, msg, text, r)
	if !ok {
		return
	}
	session.RawInput = input
	session.Phase = domain.PhaseConfirming
	r.say(notePrompt(session.NoteKind, input), yesNoKeyboard)
}

// manualJSON accepts a pre-structured record. Valid input completes
// the flow silently; nothing is written to the sheet.
func (e *Engine) manualJSON(session *domain.UserSession, text string, r *replies) {
	if _, err := schema.ParseRecord(text); err != nil {
		r.say(err.Error(), commandKeyboard)
		return
	}
	session.Reset()
}

func (e *Engine) updateConfig(ctx context.Context, session *domain.UserSession, text string, r *replies) {
	log := observability.LoggerFromContext(ctx)

	cfg, err := schema.ParseConfig(text)
	if err != nil {
		r.say(err.Error(), commandKeyboard)
		return
	}

	st := e.settingsFor(session.UserID)
	e.regMu.Lock()
	st.Config = cfg
	if cfg.Timezone != "" {
		st.Timezone = cfg.Timezone
	}
	e.regMu.Unlock()

	if err := e.tables.SyncHeader(ctx, st.SheetID, cfg.HabitNames()); err != nil {
		log.Error("header sync failed", "error", err)
	}
	if err := e.settings.Save(ctx, session.UserID, st); err != nil {
		log.Error("settings save failed", "error", err)
	}

	session.Reset()
	r.say(configSavedText, commandKeyboard)
}
