package livechat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeInboundChatMessage(t *testing.T) {
	f, err := DecodeInbound([]byte(`{"type":"chat_message","message":{"id":"m-1","username":"alice","content":"hello","createdAt":"2024-01-01T00:00:10Z"}}`))
	require.NoError(t, err)
	require.Equal(t, TypeChatMessage, f.Type)
	require.Equal(t, ChatMessage{
		ID:     "m-1",
		Author: "alice",
		Text:   "hello",
		SentAt: time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC),
	}, *f.Message)
}

func TestDecodeInboundNumericID(t *testing.T) {
	f, err := DecodeInbound([]byte(`{"type":"chat_message","message":{"id":42,"username":"a","content":"b","createdAt":"2024-01-01T00:00:00Z"}}`))
	require.NoError(t, err)
	require.Equal(t, MessageID("42"), f.Message.ID)
}

func TestDecodeInboundCounts(t *testing.T) {
	f, err := DecodeInbound([]byte(`{"type":"user_joined","onlineCount":3,"username":"bob"}`))
	require.NoError(t, err)
	require.Equal(t, InboundFrame{Type: TypeUserJoined, OnlineCount: 3, Username: "bob"}, f)

	f, err = DecodeInbound([]byte(`{"type":"online_count","count":0}`))
	require.NoError(t, err)
	require.Equal(t, 0, f.OnlineCount)
}

func TestDecodeInboundUnknownTypeIsNotAnError(t *testing.T) {
	f, err := DecodeInbound([]byte(`{"type":"leaderboard","rows":[]}`))
	require.NoError(t, err)
	require.Equal(t, "leaderboard", f.Type)
}

func TestDecodeInboundFailures(t *testing.T) {
	cases := map[string]struct {
		raw  string
		code ErrorCode
	}{
		"invalid json":       {`{"type":`, ErrorSerialization},
		"not an object":      {`[1,2]`, ErrorSerialization},
		"missing type":       {`{"onlineCount":3}`, ErrorInvalidFrame},
		"chat without body":  {`{"type":"chat_message"}`, ErrorInvalidFrame},
		"chat without id":    {`{"type":"chat_message","message":{"content":"x"}}`, ErrorInvalidFrame},
		"count missing":      {`{"type":"user_left"}`, ErrorInvalidFrame},
		"count negative":     {`{"type":"online_count","onlineCount":-1}`, ErrorInvalidFrame},
		"bad id type":        {`{"type":"chat_message","message":{"id":true}}`, ErrorSerialization},
		"bad timestamp type": {`{"type":"chat_message","message":{"id":"1","createdAt":12}}`, ErrorSerialization},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tc.raw))
			require.Error(t, err)
			require.Equal(t, tc.code, CodeOf(err))
			require.True(t, IsFrameError(err))
		})
	}
}

func TestEncodeAuthAndChat(t *testing.T) {
	data, err := EncodeAuth(Identity{ID: "u-1", DisplayName: "Alice"})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"auth","userId":"u-1","username":"Alice"}`, string(data))

	data, err = EncodeChat("gg")
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"chat","content":"gg"}`, string(data))
}

func TestServerSideCodecRoundTrip(t *testing.T) {
	msg := msgAt("9", 3)
	data, err := EncodeChatMessage(msg)
	require.NoError(t, err)
	f, err := DecodeInbound(data)
	require.NoError(t, err)
	require.True(t, msg.SentAt.Equal(f.Message.SentAt))
	require.Equal(t, msg.ID, f.Message.ID)

	data, err = EncodePresence(TypeOnlineCount, "", 0)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, float64(0), raw["onlineCount"])

	cf, err := DecodeClientFrame([]byte(`{"type":"chat","content":"hey"}`))
	require.NoError(t, err)
	require.Equal(t, ClientFrame{Type: TypeChat, Content: "hey"}, cf)

	_, err = DecodeClientFrame([]byte(`{}`))
	require.Equal(t, ErrorInvalidFrame, CodeOf(err))
}
