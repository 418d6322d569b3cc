package chatserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/vovakirdan/livechat-sdk-go/livechat"
)

// session is one connected socket as seen by the hub. user is owned by the
// hub goroutine.
type session struct {
	id   string
	send chan []byte
	user *livechat.Identity
}

func newSession(buffer int) *session {
	return &session{id: uuid.NewString(), send: make(chan []byte, buffer)}
}

type inbound struct {
	s     *session
	frame livechat.ClientFrame
}

// Hub is the central event loop. It owns the session set, attributes chat to
// authenticated sessions and broadcasts every event to all sessions.
type Hub struct {
	store         Store
	logger        *slog.Logger
	sendBuffer    int
	maxMessageLen int
	now           func() time.Time

	register   chan *session
	unregister chan *session
	inbound    chan inbound
	done       chan struct{}

	sessions map[*session]struct{}
	online   atomic.Int64
}

// NewHub creates a hub. Call Run to start it.
func NewHub(store Store, cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		store:         store,
		logger:        logger.With("component", "hub"),
		sendBuffer:    cfg.SendBuffer,
		maxMessageLen: cfg.MaxMessageLen,
		now:           time.Now,
		register:      make(chan *session),
		unregister:    make(chan *session),
		inbound:       make(chan inbound, 64),
		done:          make(chan struct{}),
		sessions:      make(map[*session]struct{}),
	}
}

// OnlineCount returns the number of connected sessions.
func (h *Hub) OnlineCount() int { return int(h.online.Load()) }

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Run processes events until ctx is cancelled. All sessions are closed on
// return.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer func() {
		for s := range h.sessions {
			close(s.send)
			delete(h.sessions, s)
		}
		h.online.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.register:
			h.sessions[s] = struct{}{}
			h.online.Store(int64(len(h.sessions)))
			h.logger.Debug("session registered", "session_id", s.id, "online", len(h.sessions))
			h.broadcastPresence(livechat.TypeOnlineCount, "")

		case s := <-h.unregister:
			if _, ok := h.sessions[s]; !ok {
				continue
			}
			h.remove(s)
			h.logger.Debug("session unregistered", "session_id", s.id, "online", len(h.sessions))
			if s.user != nil {
				h.broadcastPresence(livechat.TypeUserLeft, s.user.DisplayName)
			} else {
				h.broadcastPresence(livechat.TypeOnlineCount, "")
			}

		case in := <-h.inbound:
			if _, ok := h.sessions[in.s]; !ok {
				continue
			}
			h.handle(ctx, in.s, in.frame)
		}
	}
}

// addSession registers s. It reports false if the hub has stopped.
func (h *Hub) addSession(ctx context.Context, s *session) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) removeSession(s *session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

func (h *Hub) deliver(ctx context.Context, s *session, f livechat.ClientFrame) bool {
	select {
	case h.inbound <- inbound{s: s, frame: f}:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) handle(ctx context.Context, s *session, f livechat.ClientFrame) {
	switch f.Type {
	case livechat.TypeAuth:
		name := strings.TrimSpace(f.Username)
		if name == "" {
			h.logger.Debug("auth without username ignored", "session_id", s.id)
			return
		}
		first := s.user == nil
		s.user = &livechat.Identity{ID: f.UserID, DisplayName: name}
		h.logger.Info("session authenticated", "session_id", s.id, "user_id", f.UserID, "username", name)
		if first {
			h.broadcastPresence(livechat.TypeUserJoined, name)
		}

	case livechat.TypeChat:
		text := strings.TrimSpace(f.Content)
		if s.user == nil || text == "" {
			h.logger.Debug("chat dropped", "session_id", s.id, "authenticated", s.user != nil)
			return
		}
		if h.maxMessageLen > 0 && utf8.RuneCountInString(text) > h.maxMessageLen {
			h.logger.Debug("chat too long", "session_id", s.id, "len", utf8.RuneCountInString(text))
			return
		}
		msg := livechat.ChatMessage{
			ID:     livechat.MessageID(uuid.NewString()),
			Author: s.user.DisplayName,
			Text:   text,
			SentAt: h.now().UTC(),
		}
		if h.store != nil {
			if err := h.store.Append(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
				h.logger.Error("failed to persist message", "error", err, "message_id", msg.ID)
			}
		}
		data, err := livechat.EncodeChatMessage(msg)
		if err != nil {
			h.logger.Error("failed to encode message", "error", err)
			return
		}
		h.broadcast(data)

	default:
		h.logger.Debug("unknown frame type", "session_id", s.id, "type", f.Type)
	}
}

func (h *Hub) broadcastPresence(frameType, username string) {
	data, err := livechat.EncodePresence(frameType, username, len(h.sessions))
	if err != nil {
		h.logger.Error("failed to encode presence", "error", err)
		return
	}
	h.broadcast(data)
}

// broadcast sends data to every session. Sessions whose buffer is full are
// dropped and the remaining ones get a fresh online count.
func (h *Hub) broadcast(data []byte) {
	slow := lo.Filter(lo.Keys(h.sessions), func(s *session, _ int) bool {
		select {
		case s.send <- data:
			return false
		default:
			return true
		}
	})
	if len(slow) == 0 {
		return
	}
	for _, s := range slow {
		h.logger.Warn("dropping slow session", "session_id", s.id)
		h.remove(s)
	}
	h.broadcastPresence(livechat.TypeOnlineCount, "")
}

func (h *Hub) remove(s *session) {
	delete(h.sessions, s)
	close(s.send)
	h.online.Store(int64(len(h.sessions)))
}
