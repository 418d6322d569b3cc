package chatserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/livechat-sdk-go/livechat"
)

func newLiveClient(t *testing.T, base string, id *livechat.Identity) *livechat.Client {
	t.Helper()
	cfg := livechat.DefaultConfig()
	cfg.URL = "ws" + strings.TrimPrefix(base, "http") + "/ws"
	cfg.HistoryURL = base + "/api"
	c := livechat.NewClient(cfg, livechat.WithIdentity(livechat.NewIdentityHolder(id)))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitLive(t *testing.T, c *livechat.Client, want livechat.ConnectionState) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, c.WaitForState(ctx, want))
}

func TestClientAgainstServer(t *testing.T) {
	api, store, base := newTestAPI(t, DefaultConfig())
	require.NoError(t, store.Append(context.Background(), livechat.ChatMessage{
		ID: "old", Author: "carol", Text: "earlier", SentAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	// bob stays anonymous and only listens
	bob := newLiveClient(t, base, nil)
	bobMsgs := make(chan livechat.ChatMessage, 8)
	bobPresence := make(chan livechat.PresenceEvent, 16)
	bob.OnMessage(func(m livechat.ChatMessage) { bobMsgs <- m })
	bob.OnPresence(func(ev livechat.PresenceEvent) { bobPresence <- ev })
	require.NoError(t, bob.Connect())
	waitLive(t, bob, livechat.StateOpen)
	require.Eventually(t, func() bool { return bob.Snapshot().OnlineCount == 1 }, waitFor, 5*time.Millisecond)

	alice := newLiveClient(t, base, &livechat.Identity{ID: "u-alice", DisplayName: "Alice"})
	require.NoError(t, alice.LoadHistory(context.Background()))
	require.NoError(t, alice.Connect())
	waitLive(t, alice, livechat.StateReady)

	joined := awaitPresence(t, bobPresence, livechat.TypeUserJoined)
	require.Equal(t, "Alice", joined.Username)
	require.Equal(t, 2, joined.OnlineCount)

	alice.Send("hello everyone")
	select {
	case m := <-bobMsgs:
		require.Equal(t, "Alice", m.Author)
		require.Equal(t, "hello everyone", m.Text)
	case <-time.After(waitFor):
		t.Fatal("bob got no message")
	}

	require.Eventually(t, func() bool { return len(alice.Snapshot().Messages) == 2 }, waitFor, 5*time.Millisecond)
	snap := alice.Snapshot()
	require.Equal(t, livechat.MessageID("old"), snap.Messages[0].ID)
	require.Equal(t, "hello everyone", snap.Messages[1].Text)
	require.True(t, snap.HistoryLoaded)

	page, err := api.GetMessages(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	require.Equal(t, string(snap.Messages[1].ID), page.Messages[1].ID)

	require.NoError(t, alice.Close())
	left := awaitPresence(t, bobPresence, livechat.TypeUserLeft)
	require.Equal(t, "Alice", left.Username)
	require.Equal(t, 1, left.OnlineCount)
}

func awaitPresence(t *testing.T, ch <-chan livechat.PresenceEvent, frameType string) livechat.PresenceEvent {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case ev := <-ch:
			if ev.Type == frameType {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event", frameType)
			return livechat.PresenceEvent{}
		}
	}
}
