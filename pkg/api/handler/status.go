package handler

import (
	"context"
	"net/http"

	"github.com/dskvich/voicechat-telegram-bot/pkg/api/response"
	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
)

type SessionLister interface {
	List() []domain.PlaybackSession
}

type Assistant interface {
	Respond(ctx context.Context, prompt string) string
}

type status struct {
	sessions  SessionLister
	assistant Assistant
	writer    response.JSONResponseWriter
}

func NewStatus(sessions SessionLister, assistant Assistant) *status {
	return &status{
		sessions:  sessions,
		assistant: assistant,
		writer:    response.JSONResponseWriter{},
	}
}

func (s *status) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions", s.ListSessions)
	mux.HandleFunc("GET /chat", s.GenerateResponse)
	return mux
}

// ListSessions reports the chats that currently have audio playing.
func (s *status) ListSessions(w http.ResponseWriter, _ *http.Request) {
	s.writer.WriteSuccessResponse(w, map[string]any{
		"sessions": s.sessions.List(),
	})
}

// GenerateResponse answers prompt with the assistant. The route has no
// authentication and spends the model key; serve it on loopback only.
func (s *status) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		s.writer.WriteErrorResponse(w, http.StatusBadRequest, "Prompt parameter is missing or empty.")
		return
	}

	s.writer.WriteSuccessResponse(w, map[string]string{
		"response": s.assistant.Respond(r.Context(), prompt),
	})
}
