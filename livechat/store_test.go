package livechat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func msgAt(id string, sec int) ChatMessage {
	return ChatMessage{ID: MessageID(id), Author: "alice", Text: "msg " + id, SentAt: epoch.Add(time.Duration(sec) * time.Second)}
}

func ids(msgs []ChatMessage) []MessageID {
	out := make([]MessageID, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestMessageStore_HistoricalThenLiveDuplicate(t *testing.T) {
	s := NewMessageStore()
	require.True(t, s.SetHistorical([]ChatMessage{msgAt("1", 10)}))

	require.True(t, s.Append(msgAt("2", 20)))
	require.False(t, s.Append(msgAt("1", 10)))

	require.Equal(t, []MessageID{"1", "2"}, ids(s.View()))
	require.Equal(t, 2, s.Len())
	require.Equal(t, 1, s.LiveLen())
}

func TestMessageStore_LiveBeforeHistoricalKeepsFirstSeen(t *testing.T) {
	s := NewMessageStore()
	live := msgAt("7", 5)
	live.Text = "live copy"
	require.True(t, s.Append(live))

	hist := msgAt("7", 5)
	hist.Text = "fetched copy"
	require.True(t, s.SetHistorical([]ChatMessage{msgAt("3", 1), hist}))

	view := s.View()
	require.Equal(t, []MessageID{"3", "7"}, ids(view))
	require.Equal(t, "live copy", view[1].Text)
}

func TestMessageStore_OrdersBySentAtWithStableTies(t *testing.T) {
	s := NewMessageStore()
	s.SetHistorical([]ChatMessage{msgAt("a", 10), msgAt("b", 30)})
	s.Append(msgAt("c", 20))
	s.Append(msgAt("d", 10))
	s.Append(msgAt("e", 5))
	s.Append(msgAt("f", 30))

	require.Equal(t, []MessageID{"e", "a", "d", "c", "b", "f"}, ids(s.View()))
}

func TestMessageStore_SetHistoricalOnce(t *testing.T) {
	s := NewMessageStore()
	require.False(t, s.HistoricalLoaded())
	require.True(t, s.SetHistorical(nil))
	require.True(t, s.HistoricalLoaded())
	require.False(t, s.SetHistorical([]ChatMessage{msgAt("1", 1)}))
	require.Zero(t, s.Len())
}

func TestMessageStore_DuplicateWithinHistorical(t *testing.T) {
	s := NewMessageStore()
	s.SetHistorical([]ChatMessage{msgAt("1", 1), msgAt("1", 1), msgAt("2", 2)})
	require.Equal(t, []MessageID{"1", "2"}, ids(s.View()))
}

func TestMessageStore_ViewIsACopy(t *testing.T) {
	s := NewMessageStore()
	s.Append(msgAt("1", 1))
	v := s.View()
	v[0].Text = "mutated"
	require.Equal(t, "msg 1", s.View()[0].Text)
}

func TestMessageStore_Invariants(t *testing.T) {
	s := NewMessageStore()
	s.SetHistorical([]ChatMessage{msgAt("1", 3), msgAt("2", 1), msgAt("3", 9)})
	for i, sec := range []int{4, 1, 9, 0, 3, 3, 12} {
		s.Append(msgAt(string(rune('a'+i)), sec))
		s.Append(msgAt("2", 1))
	}

	view := s.View()
	seen := map[MessageID]bool{}
	for i, m := range view {
		require.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		if i > 0 {
			require.False(t, m.SentAt.Before(view[i-1].SentAt), "out of order at %d", i)
		}
	}
	require.Len(t, view, 10)
}

func TestMessageStore_Reset(t *testing.T) {
	s := NewMessageStore()
	s.SetHistorical([]ChatMessage{msgAt("1", 1)})
	s.Append(msgAt("2", 2))
	s.Reset()

	require.Zero(t, s.Len())
	require.False(t, s.HistoricalLoaded())
	require.True(t, s.Append(msgAt("1", 1)))
}
