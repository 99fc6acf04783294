package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ndemidenko/habitbot/internal/app/syncer"
	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

const adapterTimeout = 60 * time.Second

// Engine runs the per-user conversation state machine. One inbound
// message produces zero or more outbound replies; all session and
// settings mutation happens here, under a per-user lock, so updates for
// the same user are handled strictly in order.
type Engine struct {
	sessions    domain.SessionStore
	settings    domain.SettingsStore
	extractor   domain.Extractor
	transcriber domain.Transcriber
	tables      *syncer.Syncer

	now func() time.Time

	mu        sync.Mutex
	userLocks map[domain.UserID]*sync.Mutex

	regMu    sync.RWMutex
	registry map[domain.UserID]*domain.UserSettings
}

func New(
	sessions domain.SessionStore,
	settings domain.SettingsStore,
	extractor domain.Extractor,
	transcriber domain.Transcriber,
	tables *syncer.Syncer,
) *Engine {
	return &Engine{
		sessions:    sessions,
		settings:    settings,
		extractor:   extractor,
		transcriber: transcriber,
		tables:      tables,
		now:         time.Now,
		userLocks:   make(map[domain.UserID]*sync.Mutex),
		registry:    make(map[domain.UserID]*domain.UserSettings),
	}
}

// LoadSettings repopulates the in-memory settings registry from the
// persistent store. Called once at startup.
func (e *Engine) LoadSettings(ctx context.Context) error {
	all, err := e.settings.LoadAll(ctx)
	if err != nil {
		return err
	}
	e.regMu.Lock()
	for uid, st := range all {
		e.registry[uid] = st
	}
	e.regMu.Unlock()
	observability.Logger().Info("user settings loaded", "users", len(all))
	return nil
}

// Snapshot returns a copy of the settings registry, for the reminder
// scheduler.
func (e *Engine) Snapshot() map[domain.UserID]*domain.UserSettings {
	e.regMu.RLock()
	defer e.regMu.RUnlock()
	out := make(map[domain.UserID]*domain.UserSettings, len(e.registry))
	for uid, st := range e.registry {
		copied := *st
		out[uid] = &copied
	}
	return out
}

func (e *Engine) lockUser(id domain.UserID) func() {
	e.mu.Lock()
	l, ok := e.userLocks[id]
	if !ok {
		l = &sync.Mutex{}
		e.userLocks[id] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (e *Engine) settingsFor(id domain.UserID) *domain.UserSettings {
	e.regMu.Lock()
	defer e.regMu.Unlock()
	st, ok := e.registry[id]
	if !ok {
		st = &domain.UserSettings{}
		e.registry[id] = st
	}
	return st
}

// HandleMessage advances the user's state machine with one inbound
// message and returns the replies to deliver.
func (e *Engine) HandleMessage(ctx context.Context, msg domain.InboundMessage) []domain.OutboundMessage {
	unlock := e.lockUser(msg.UserID)
	defer unlock()

	log := observability.WithUser(ctx, int64(msg.UserID))

	session, ok := e.sessions.Get(msg.UserID)
	if !ok {
		session = &domain.UserSession{UserID: msg.UserID, ChatID: msg.ChatID}
	}
	session.ChatID = msg.ChatID

	r := &replies{chat: msg.ChatID}
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/"):
		e.handleCommand(ctx, session, text, r)
	case !session.Idle() && strings.EqualFold(text, "cancel") && !msg.HasVoice():
		session.Reset()
		r.say(cancelledText, commandKeyboard)
	case session.Idle():
		r.say(unknownText, commandKeyboard)
	default:
		e.handlePhase(ctx, session, msg, text, r)
	}

	if session.Idle() {
		e.sessions.Delete(msg.UserID)
	} else {
		e.sessions.Put(session)
	}
	log.Info("message handled", "phase", string(session.Phase), "replies", len(r.out))
	return r.out
}

func (e *Engine) handleCommand(ctx context.Context, session *domain.UserSession, text string, r *replies) {
	parts := strings.Fields(text)
	command := strings.ToLower(parts[0])
	st := e.settingsFor(session.UserID)

	switch command {
	case "/start":
		if st.SetupComplete() {
			r.say(welcomeBackText, commandKeyboard)
		} else {
			r.say(welcomeSetupText, commandKeyboard)
		}

	case "/help":
		r.say(helpText, commandKeyboard)

	case "/cancel":
		session.Reset()
		r.say(cancelledText, commandKeyboard)

	case "/set_sheet":
		if len(parts) < 2 {
			r.say(missingSheetArg, commandKeyboard)
			return
		}
		e.linkSheet(ctx, session, st, parts[1], r)

	case "/update_config":
		if st.SheetID == "" {
			r.say(linkSheetFirst, commandKeyboard)
			return
		}
		session.Reset()
		session.Flow = domain.FlowConfig
		session.Phase = domain.PhaseAwaitingConfigJSON
		cfg := &st.Config
		if len(st.Config.Habits) == 0 {
			cfg = nil
		}
		r.say(configPrompt(cfg), commandKeyboard)

	case "/habits":
		if !st.SetupComplete() {
			r.say(setupNeededText, commandKeyboard)
			return
		}
		session.Reset()
		session.Flow = domain.FlowHabits
		session.Phase = domain.PhaseSelectingDate
		r.say(askDateText, dateKeyboard)

	case "/manual":
		if !st.SetupComplete() {
			r.say(setupNeededText, commandKeyboard)
			return
		}
		session.Reset()
		session.Flow = domain.FlowManual
		session.Phase = domain.PhaseAwaitingManualJSON
		r.say(askManualJSON, commandKeyboard)

	case "/dream":
		e.startNoteFlow(session, st, domain.NoteDream, r)

	case "/thoughts":
		e.startNoteFlow(session, st, domain.NoteThoughts, r)

	default:
		r.say(unknownText, commandKeyboard)
	}
}

func (e *Engine) startNoteFlow(session *domain.UserSession, st *domain.UserSettings, kind domain.NoteKind, r *replies) {
	if !st.SetupComplete() {
		r.say(setupNeededText, commandKeyboard)
		return
	}
	session.Reset()
	if kind == domain.NoteThoughts {
		session.Flow = domain.FlowThoughts
	} else {
		session.Flow = domain.FlowDream
	}
	session.NoteKind = kind
	session.Phase = domain.PhaseAwaitingText
	r.say(noteAskText(kind), commandKeyboard)
}

func (e *Engine) linkSheet(ctx context.Context, session *domain.UserSession, st *domain.UserSettings, sheetID string, r *replies) {
	log := observability.LoggerFromContext(ctx)

	e.regMu.Lock()
	st.SheetID = sheetID
	e.regMu.Unlock()

	if err := e.settings.Save(ctx, session.UserID, st); err != nil {
		log.Error("settings save failed", "error", err)
	}
	if err := e.tables.EnsureWorksheets(ctx, sheetID); err != nil {
		log.Error("worksheet bootstrap failed", "error", err)
	}
	r.say(sheetLinkedText(sheetID), commandKeyboard)
}

// replies accumulates outbound messages for one inbound update.
type replies struct {
	chat domain.ChatID
	out  []domain.OutboundMessage
}

func (r *replies) say(text string, keyboard [][]string) {
	r.out = append(r.out, domain.OutboundMessage{
		ChatID:   r.chat,
		Text:     text,
		Keyboard: keyboard,
	})
}
