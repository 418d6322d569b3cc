package livechat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// Server -> client frame types.
	TypeChatMessage = "chat_message"
	TypeUserJoined  = "user_joined"
	TypeUserLeft    = "user_left"
	TypeOnlineCount = "online_count"

	// Client -> server frame types.
	TypeAuth = "auth"
	TypeChat = "chat"
)

// MessageID identifies a chat message. Servers may send it as a JSON string
// or a JSON number; both decode to the same textual form.
type MessageID string

// UnmarshalJSON accepts string and numeric ids.
func (id *MessageID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("message id: %w", err)
	}
	*id = MessageID(n.String())
	return nil
}

// ChatMessage is one chat line. Historical and live messages share this shape.
type ChatMessage struct {
	ID     MessageID `json:"id"`
	Author string    `json:"username"`
	Text   string    `json:"content"`
	SentAt time.Time `json:"createdAt"`
}

// Identity is the current user as declared to the server.
type Identity struct {
	ID          string
	DisplayName string
}

// InboundFrame is a decoded server -> client frame. Only the fields relevant to
// Type are set.
type InboundFrame struct {
	Type        string
	Message     *ChatMessage
	OnlineCount int
	Username    string
}

// inboundWire is the flat JSON envelope of server -> client frames.
type inboundWire struct {
	Type        string       `json:"type"`
	Message     *ChatMessage `json:"message,omitempty"`
	OnlineCount *int         `json:"onlineCount,omitempty"`
	Count       *int         `json:"count,omitempty"`
	Username    string       `json:"username,omitempty"`
}

// AuthFrame declares the identity of the connection.
type AuthFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ChatFrame carries outgoing chat text.
type ChatFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ClientFrame is a decoded client -> server frame, as seen by a server.
type ClientFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Content  string `json:"content,omitempty"`
}
