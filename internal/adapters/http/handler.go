package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ndemidenko/habitbot/internal/adapters/telegram"
	"github.com/ndemidenko/habitbot/internal/app/engine"
	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

type Server struct {
	engine    *engine.Engine
	messenger domain.Messenger
}

// NewServer exposes the webhook endpoint plus a health check. The
// webhook path carries the bot token, so Telegram is the only caller
// that can guess it.
func NewServer(eng *engine.Engine, messenger domain.Messenger, webhookPath string) http.Handler {
	s := &Server{engine: eng, messenger: messenger}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc(webhookPath, s.handleWebhook)

	return chainMiddlewares(mux, withLogging, withRequestID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook acknowledges the update immediately and processes it in
// the background, so Telegram never retries a slow extraction.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})

	msg, ok := telegram.DecodeUpdate(update)
	if !ok {
		return
	}

	// The request context dies when the handler returns; keep its
	// values but detach the cancellation.
	ctx := context.WithoutCancel(r.Context())
	go s.process(ctx, msg)
}

func (s *Server) process(ctx context.Context, msg domain.InboundMessage) {
	log := observability.LoggerFromContext(ctx)

	for _, reply := range s.engine.HandleMessage(ctx, msg) {
		if err := s.messenger.Send(ctx, reply); err != nil {
			log.Error("reply delivery failed", "chat_id", int64(reply.ChatID), "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
