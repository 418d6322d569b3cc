package livechat

import (
	"encoding/json"
	"strings"
)

// EncodeAuth builds the identity frame sent after the transport opens.
func EncodeAuth(id Identity) ([]byte, error) {
	data, err := json.Marshal(AuthFrame{Type: TypeAuth, UserID: id.ID, Username: id.DisplayName})
	if err != nil {
		return nil, WrapError(ErrorSerialization, "failed to marshal auth frame", err)
	}
	return data, nil
}

// EncodeChat builds an outgoing chat frame.
func EncodeChat(text string) ([]byte, error) {
	data, err := json.Marshal(ChatFrame{Type: TypeChat, Content: text})
	if err != nil {
		return nil, WrapError(ErrorSerialization, "failed to marshal chat frame", err)
	}
	return data, nil
}

// DecodeInbound parses a server -> client frame. Unknown types decode without
// error so the caller can ignore them.
func DecodeInbound(data []byte) (InboundFrame, error) {
	var w inboundWire
	if err := json.Unmarshal(data, &w); err != nil {
		return InboundFrame{}, WrapError(ErrorSerialization, "failed to unmarshal frame", err)
	}
	if strings.TrimSpace(w.Type) == "" {
		return InboundFrame{}, NewError(ErrorInvalidFrame, "frame has no type")
	}

	frame := InboundFrame{Type: w.Type, Username: w.Username}
	switch w.Type {
	case TypeChatMessage:
		if w.Message == nil {
			return InboundFrame{}, NewError(ErrorInvalidFrame, "chat_message without message")
		}
		if w.Message.ID == "" {
			return InboundFrame{}, NewError(ErrorInvalidFrame, "chat_message without id")
		}
		frame.Message = w.Message
	case TypeUserJoined, TypeUserLeft, TypeOnlineCount:
		count := w.OnlineCount
		if count == nil {
			count = w.Count
		}
		if count == nil {
			return InboundFrame{}, NewError(ErrorInvalidFrame, w.Type+" without count")
		}
		if *count < 0 {
			return InboundFrame{}, NewError(ErrorInvalidFrame, w.Type+" with negative count")
		}
		frame.OnlineCount = *count
	}
	return frame, nil
}

// DecodeClientFrame parses a client -> server frame.
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return ClientFrame{}, WrapError(ErrorSerialization, "failed to unmarshal client frame", err)
	}
	if strings.TrimSpace(f.Type) == "" {
		return ClientFrame{}, NewError(ErrorInvalidFrame, "frame has no type")
	}
	return f, nil
}

// EncodeChatMessage builds a chat_message frame.
func EncodeChatMessage(msg ChatMessage) ([]byte, error) {
	data, err := json.Marshal(inboundWire{Type: TypeChatMessage, Message: &msg})
	if err != nil {
		return nil, WrapError(ErrorSerialization, "failed to marshal chat_message frame", err)
	}
	return data, nil
}

// EncodePresence builds a user_joined, user_left or online_count frame.
func EncodePresence(frameType, username string, onlineCount int) ([]byte, error) {
	data, err := json.Marshal(inboundWire{Type: frameType, OnlineCount: &onlineCount, Username: username})
	if err != nil {
		return nil, WrapError(ErrorSerialization, "failed to marshal presence frame", err)
	}
	return data, nil
}
