package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/ndemidenko/habitbot/internal/adapters/http"
	"github.com/ndemidenko/habitbot/internal/adapters/llm"
	sheetstore "github.com/ndemidenko/habitbot/internal/adapters/sheets"
	"github.com/ndemidenko/habitbot/internal/adapters/speech"
	gcsstore "github.com/ndemidenko/habitbot/internal/adapters/storage/gcs"
	memstore "github.com/ndemidenko/habitbot/internal/adapters/storage/memory"
	"github.com/ndemidenko/habitbot/internal/adapters/telegram"
	"github.com/ndemidenko/habitbot/internal/app/engine"
	"github.com/ndemidenko/habitbot/internal/app/reminder"
	"github.com/ndemidenko/habitbot/internal/app/syncer"
	"github.com/ndemidenko/habitbot/internal/config"
	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	bot, err := telegram.NewBot(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("error initializing telegram bot: %v", err)
	}

	// Extractor and transcriber: mock or OpenAI by config
	var (
		extractor   domain.Extractor
		transcriber domain.Transcriber
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock extractor and transcriber")
		extractor = llm.NewMockExtractor()
		transcriber = speech.NewMockTranscriber()
	} else {
		log.Printf("[LLM] Using OpenAI extractor (model=%s)", cfg.ExtractorModel)
		extractor = llm.NewOpenAIExtractor(cfg.OpenAIKey, cfg.ExtractorModel)
		transcriber = speech.NewWhisperTranscriber(cfg.OpenAIKey, bot)
	}

	// Settings: GCS or Memory
	var settings domain.SettingsStore
	switch cfg.StorageBackend {
	case "gcs":
		log.Printf("[STORE] Using GCS settings storage (bucket=%s)", cfg.SettingsBucket)
		settings, err = gcsstore.NewSettingsStore(ctx, cfg.SettingsBucket, cfg.CredentialsFile)
		if err != nil {
			log.Fatalf("error initializing GCS settings store: %v", err)
		}
	default:
		log.Println("[STORE] Using in-memory settings storage")
		settings = memstore.NewSettingsStore()
	}

	// Tables: Google Sheets or Memory
	var tables domain.TableStore
	switch cfg.TableBackend {
	case "sheets":
		log.Printf("[TABLES] Using Google Sheets (credentials=%s)", cfg.CredentialsFile)
		tables, err = sheetstore.NewStore(ctx, cfg.CredentialsFile)
		if err != nil {
			log.Fatalf("error initializing sheets store: %v", err)
		}
	default:
		log.Println("[TABLES] Using in-memory tables")
		tables = memstore.NewTableStore()
	}

	eng := engine.New(memstore.NewSessionStore(), settings, extractor, transcriber, syncer.New(tables))
	if err := eng.LoadSettings(ctx); err != nil {
		log.Fatalf("error loading user settings: %v", err)
	}

	reminders := reminder.New(eng.Snapshot, bot, cfg.ReminderTime)
	if err := reminders.Start(); err != nil {
		log.Fatalf("error starting reminder scheduler: %v", err)
	}
	defer reminders.Stop()

	if cfg.WebhookURL != "" {
		if err := bot.SetWebhook(cfg.WebhookURL + cfg.WebhookPath); err != nil {
			log.Fatalf("error registering webhook: %v", err)
		}
		log.Printf("Webhook registered at %s%s", cfg.WebhookURL, cfg.WebhookPath)
	}

	handler := httpadapter.NewServer(eng, bot, cfg.WebhookPath)

	addr := ":" + cfg.Port
	observability.Logger().Info("habitbot listening", "addr", addr, "mode", string(cfg.Mode))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
