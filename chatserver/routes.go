package chatserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"

	"github.com/vovakirdan/livechat-sdk-go/livechat"
	"github.com/vovakirdan/livechat-sdk-go/livechat/rest"
)

// API serves the HTTP endpoints next to the socket.
type API struct {
	hub    *Hub
	store  Store
	cfg    Config
	logger *slog.Logger
}

// NewRouter wires the websocket endpoint and the REST API:
//
//	GET /ws
//	GET /api/messages?limit=N&before=ID
//	GET /api/healthz
func NewRouter(hub *Hub, store Store, cfg Config, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	api := &API{hub: hub, store: store, cfg: cfg, logger: logger.With("component", "api")}
	ws := NewWebSocketHandler(hub, cfg, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", ws.ServeHTTP)
	r.Route("/api", func(r chi.Router) {
		r.Get("/messages", api.listMessages)
		r.Get("/healthz", api.health)
	})
	return r
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	limit := a.cfg.HistoryDefault
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, a.cfg.HistoryMax)
	}
	before := r.URL.Query().Get("before")

	msgs, hasMore, err := a.store.List(r.Context(), limit, before)
	if errors.Is(err, ErrUnknownCursor) {
		writeError(w, http.StatusBadRequest, "unknown before cursor")
		return
	}
	if err != nil {
		a.logger.Error("failed to list messages", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	writeJSON(w, http.StatusOK, rest.MessagesResponse{
		Messages: lo.Map(msgs, func(m livechat.ChatMessage, _ int) rest.MessageInfo {
			return rest.MessageInfo{ID: string(m.ID), User: m.Author, Body: m.Text, CreatedAt: m.SentAt}
		}),
		HasMore: hasMore,
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	resp := rest.HealthResponse{Status: "ok", OnlineCount: a.hub.OnlineCount()}
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.Warn("health check failed", "error", err)
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, rest.ErrorResponse{Error: message})
}
