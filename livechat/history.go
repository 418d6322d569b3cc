package livechat

import (
	"context"

	"github.com/samber/lo"

	"github.com/vovakirdan/livechat-sdk-go/livechat/rest"
)

// HistoryFetcher returns the historical message list, oldest first.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context) ([]ChatMessage, error)
}

// HistoryFunc adapts a function to HistoryFetcher.
type HistoryFunc func(ctx context.Context) ([]ChatMessage, error)

func (f HistoryFunc) FetchHistory(ctx context.Context) ([]ChatMessage, error) { return f(ctx) }

// RESTHistory fetches history from the REST API.
type RESTHistory struct {
	client *rest.Client
	limit  int
}

// NewRESTHistory returns a fetcher reading the latest limit messages.
func NewRESTHistory(client *rest.Client, limit int) *RESTHistory {
	return &RESTHistory{client: client, limit: limit}
}

// FetchHistory implements HistoryFetcher.
func (h *RESTHistory) FetchHistory(ctx context.Context) ([]ChatMessage, error) {
	resp, err := h.client.GetMessages(ctx, h.limit, "")
	if err != nil {
		return nil, err
	}
	return lo.Map(resp.Messages, func(m rest.MessageInfo, _ int) ChatMessage {
		return ChatMessage{ID: MessageID(m.ID), Author: m.User, Text: m.Body, SentAt: m.CreatedAt}
	}), nil
}
