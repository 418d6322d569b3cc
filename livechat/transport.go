package livechat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/livechat-sdk-go/livechat/internal"
)

// Transport is one established channel to the server. Read and Write may be
// called from different goroutines; Close unblocks both.
type Transport interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer establishes transports.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (Transport, error) { return f(ctx) }

// WebSocketDialer dials a WebSocket endpoint.
type WebSocketDialer struct {
	URL          string
	Header       http.Header
	WriteTimeout time.Duration
	ReadLimit    int64 // 0 keeps the library default
}

// Dial opens the WebSocket connection.
func (d WebSocketDialer) Dial(ctx context.Context) (Transport, error) {
	if d.URL == "" {
		return nil, NewError(ErrorInvalidConfig, "empty URL")
	}
	ws, _, err := websocket.Dial(ctx, d.URL, &websocket.DialOptions{HTTPHeader: d.Header})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, WrapError(ErrorTimeout, "dial timed out", err)
		}
		return nil, WrapError(ErrorConnection, "dial failed", err)
	}
	if d.ReadLimit > 0 {
		ws.SetReadLimit(d.ReadLimit)
	}
	return internal.NewConn(ws, d.WriteTimeout), nil
}

// classifyClose turns a transport read/write failure into a coded error.
// Clean closures map to ErrorDisconnected.
func classifyClose(err error) *Error {
	if isExpectedDisconnect(err) {
		return WrapError(ErrorDisconnected, "transport closed", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(ErrorTimeout, "transport timed out", err)
	}
	return WrapError(ErrorConnection, "transport failed", err)
}

func isExpectedDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
