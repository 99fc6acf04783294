package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

const reminderText = "⏰ Reminder: don't forget to track today's habits! Use /habits"

var reminderKeyboard = [][]string{{"/habits", "/help", "/cancel"}}

// Scheduler nudges users who completed the setup once a day, at their
// configured reminder time in their own timezone. It checks every
// minute; a user is due when the wall clock in their timezone reads
// exactly the configured HH:MM, so each reminder fires once per day.
type Scheduler struct {
	snapshot    func() map[domain.UserID]*domain.UserSettings
	messenger   domain.Messenger
	defaultTime string

	now  func() time.Time
	cron *cron.Cron
}

func New(snapshot func() map[domain.UserID]*domain.UserSettings, messenger domain.Messenger, defaultTime string) *Scheduler {
	return &Scheduler{
		snapshot:    snapshot,
		messenger:   messenger,
		defaultTime: defaultTime,
		now:         time.Now,
		cron:        cron.New(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", func() {
		s.deliverDue(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	observability.Logger().Info("reminder scheduler started", "default_time", s.defaultTime)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) deliverDue(ctx context.Context) {
	log := observability.LoggerFromContext(ctx)
	now := s.now()

	for uid, st := range s.snapshot() {
		if !st.SetupComplete() {
			continue
		}
		if !s.due(st, now) {
			continue
		}
		msg := domain.OutboundMessage{
			ChatID:   domain.ChatID(uid),
			Text:     reminderText,
			Keyboard: reminderKeyboard,
		}
		if err := s.messenger.Send(ctx, msg); err != nil {
			log.Error("reminder delivery failed", "user_id", int64(uid), "error", err)
			continue
		}
		log.Info("reminder sent", "user_id", int64(uid))
	}
}

func (s *Scheduler) due(st *domain.UserSettings, now time.Time) bool {
	loc := time.UTC
	if st.Timezone != "" {
		if l, err := time.LoadLocation(st.Timezone); err == nil {
			loc = l
		}
	}
	want := st.Config.ReminderTime
	if want == "" {
		want = s.defaultTime
	}
	return now.In(loc).Format("15:04") == want
}
