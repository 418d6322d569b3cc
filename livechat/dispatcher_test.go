package livechat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeAndRoute(t *testing.T, r *Router, raw string) bool {
	t.Helper()
	f, err := DecodeInbound([]byte(raw))
	require.NoError(t, err)
	return r.Route(f)
}

func TestRouterPresenceLastWriteWins(t *testing.T) {
	var presence PresenceTracker
	r := NewRouter(NewMessageStore(), &presence)

	require.True(t, decodeAndRoute(t, r, `{"type":"online_count","count":5}`))
	require.True(t, decodeAndRoute(t, r, `{"type":"user_left","onlineCount":4,"username":"bob"}`))
	require.Equal(t, 4, presence.Count())

	require.True(t, decodeAndRoute(t, r, `{"type":"user_joined","onlineCount":9}`))
	require.Equal(t, 9, presence.Count())
}

func TestRouterChatMessageAppendsAndCallsBack(t *testing.T) {
	store := NewMessageStore()
	var got []ChatMessage
	r := NewRouter(store, &PresenceTracker{})
	r.SetOnMessage(func(m ChatMessage) { got = append(got, m) })

	raw := `{"type":"chat_message","message":{"id":1,"username":"alice","content":"hi","createdAt":"2024-01-01T00:00:10Z"}}`
	require.True(t, decodeAndRoute(t, r, raw))
	require.False(t, decodeAndRoute(t, r, raw))

	require.Len(t, got, 1)
	require.Equal(t, MessageID("1"), got[0].ID)
	require.Equal(t, 1, store.Len())
}

func TestRouterPresenceCallback(t *testing.T) {
	var events []PresenceEvent
	r := NewRouter(NewMessageStore(), &PresenceTracker{})
	r.SetOnPresence(func(ev PresenceEvent) { events = append(events, ev) })

	decodeAndRoute(t, r, `{"type":"user_joined","onlineCount":2,"username":"carol"}`)

	require.Equal(t, []PresenceEvent{{Type: TypeUserJoined, Username: "carol", OnlineCount: 2}}, events)
	require.True(t, events[0].Joined())
	require.False(t, events[0].Left())
}

func TestRouterIgnoresUnknownTypes(t *testing.T) {
	var presence PresenceTracker
	store := NewMessageStore()
	r := NewRouter(store, &presence)

	require.False(t, decodeAndRoute(t, r, `{"type":"typing","username":"dave"}`))
	require.Zero(t, store.Len())
	require.False(t, presence.Known())
}
