//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

// Package chatserver is a small reference server for the livechat protocol:
// one shared room, presence counting and SQLite-backed history.
package chatserver

import (
	"context"
	"errors"

	"github.com/vovakirdan/livechat-sdk-go/livechat"
)

// ErrDuplicateMessage is returned by Append when the id is already stored.
var ErrDuplicateMessage = errors.New("duplicate message id")

// ErrUnknownCursor is returned by List when before names no stored message.
var ErrUnknownCursor = errors.New("unknown cursor")

// Store persists chat messages in arrival order.
type Store interface {
	Append(ctx context.Context, msg livechat.ChatMessage) error
	// List returns up to limit messages, oldest first. A non-empty before
	// restricts the page to messages stored earlier than that id. hasMore
	// reports whether older messages exist beyond the page.
	List(ctx context.Context, limit int, before string) (msgs []livechat.ChatMessage, hasMore bool, err error)
	Ping(ctx context.Context) error
	Close() error
}
