package config

import (
	"log"
	"os"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port        string
	WebhookPath string
	WebhookURL  string // public base URL; webhook registration is skipped when empty

	TelegramToken string

	OpenAIKey      string
	ExtractorModel string
	UseMockLLM     bool // true = mock extractor/transcriber even on GCP

	StorageBackend string // "memory" or "gcs"
	SettingsBucket string // required for gcs

	TableBackend    string // "memory" or "sheets"
	CredentialsFile string // service account JSON for Sheets

	ReminderTime string // default reminder wall-clock time, "HH:MM"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

// Load reads all env vars and builds the config.
func Load() *Config {
	modeStr := getEnv("HABITBOT_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port:        getEnv("HABITBOT_PORT", "8080"),
		WebhookPath: getEnv("HABITBOT_WEBHOOK_PATH", "/webhook"),
		WebhookURL:  getEnv("HABITBOT_WEBHOOK_URL", ""),

		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),

		OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
		ExtractorModel: getEnv("HABITBOT_EXTRACTOR_MODEL", "gpt-4o-mini"),
		UseMockLLM:     getBoolEnv("HABITBOT_USE_MOCK_LLM", mode == ModeLocal),

		StorageBackend: getEnv("HABITBOT_STORAGE_BACKEND", "memory"),
		SettingsBucket: getEnv("HABITBOT_SETTINGS_BUCKET", ""),

		TableBackend:    getEnv("HABITBOT_TABLE_BACKEND", "memory"),
		CredentialsFile: getEnv("HABITBOT_CREDENTIALS_FILE", "google-credentials.json"),

		ReminderTime: getEnv("HABITBOT_REMINDER_TIME", "09:00"),
	}

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN must be set")
	}
	if cfg.StorageBackend == "gcs" && cfg.SettingsBucket == "" {
		log.Fatal("HABITBOT_SETTINGS_BUCKET must be set for the gcs storage backend")
	}
	if !cfg.UseMockLLM && cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_API_KEY must be set unless HABITBOT_USE_MOCK_LLM=1")
	}

	return cfg
}
