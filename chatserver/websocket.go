package chatserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/livechat-sdk-go/livechat"
)

// WebSocketHandler upgrades requests and pumps frames between the socket and
// the hub.
type WebSocketHandler struct {
	hub            *Hub
	logger         *slog.Logger
	allowedOrigins []string
	writeTimeout   time.Duration
	readLimit      int64
}

// NewWebSocketHandler creates a handler bound to hub.
func NewWebSocketHandler(hub *Hub, cfg Config, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:            hub,
		logger:         logger.With("component", "ws"),
		allowedOrigins: cfg.AllowedOrigins,
		writeTimeout:   cfg.WriteTimeout,
		// room for the longest accepted message plus the JSON envelope
		readLimit: int64(cfg.MaxMessageLen)*4 + 1024,
	}
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		h.logger.Warn("failed to accept websocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	if h.readLimit > 0 {
		ws.SetReadLimit(h.readLimit)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := newSession(h.hub.sendBuffer)
	if !h.hub.addSession(ctx, s) {
		_ = ws.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	h.logger.Info("websocket connected", "session_id", s.id, "ip", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(ctx, cancel, ws, s)
	}()

	err = h.readPump(ctx, ws, s)
	h.hub.removeSession(s)
	cancel()
	<-writerDone

	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
		h.logger.Info("websocket disconnected", "session_id", s.id)
	} else {
		h.logger.Debug("websocket ended", "session_id", s.id, "error", err)
	}
	if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
		h.logger.Debug("failed to close websocket", "error", closeErr, "session_id", s.id)
	}
}

func (h *WebSocketHandler) readPump(ctx context.Context, ws *websocket.Conn, s *session) error {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return err
		}
		f, err := livechat.DecodeClientFrame(data)
		if err != nil {
			h.logger.Debug("malformed client frame", "session_id", s.id, "error", err)
			continue
		}
		if !h.hub.deliver(ctx, s, f) {
			return ctx.Err()
		}
	}
}

// writePump drains s.send until the hub closes it or a write fails. Either
// way it cancels ctx so the reader stops too.
func (h *WebSocketHandler) writePump(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, s *session) {
	defer cancel()
	for data := range s.send {
		if err := h.write(ctx, ws, data); err != nil {
			h.logger.Debug("websocket write failed", "session_id", s.id, "error", err)
			cancel()
			// drain until the hub closes the channel
			for range s.send {
			}
			return
		}
	}
}

func (h *WebSocketHandler) write(ctx context.Context, ws *websocket.Conn, data []byte) error {
	if h.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.writeTimeout)
		defer cancel()
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
