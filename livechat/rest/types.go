package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MessageInfo represents a single message in the history.
type MessageInfo struct {
	ID        string    `json:"id"`
	User      string    `json:"username"`
	Body      string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts the id as a JSON string or a JSON number.
func (m *MessageInfo) UnmarshalJSON(b []byte) error {
	type plain MessageInfo
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		m.ID = ""
	case raw[0] == '"':
		return json.Unmarshal(raw, &m.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("message id: %w", err)
		}
		m.ID = n.String()
	}
	return nil
}

// MessagesResponse contains a page of messages, oldest first.
type MessagesResponse struct {
	Messages []MessageInfo `json:"messages"`
	HasMore  bool          `json:"hasMore"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	OnlineCount int    `json:"onlineCount"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
