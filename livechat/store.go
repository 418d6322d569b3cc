package livechat

import (
	"slices"
	"sort"

	"github.com/samber/lo"
)

// MessageStore merges the one-time historical fetch with the live stream.
// The view is ordered by SentAt ascending, ties broken by arrival, and holds
// each id once: the first occurrence seen wins.
//
// MessageStore is not safe for concurrent use; the Client only touches it from
// its event loop.
type MessageStore struct {
	entries       []storedMessage // sorted by SentAt, stable in arrival
	seen          map[MessageID]struct{}
	historicalSet bool
}

type storedMessage struct {
	msg  ChatMessage
	live bool
}

// NewMessageStore returns an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{seen: make(map[MessageID]struct{})}
}

// SetHistorical installs the historical half. Only the first call has an
// effect; it returns false afterwards.
func (s *MessageStore) SetHistorical(msgs []ChatMessage) bool {
	if s.historicalSet {
		return false
	}
	s.historicalSet = true
	for _, m := range msgs {
		s.insert(m, false)
	}
	return true
}

// Append adds a live message. It returns false when the id is already present.
func (s *MessageStore) Append(msg ChatMessage) bool {
	return s.insert(msg, true)
}

func (s *MessageStore) insert(msg ChatMessage, live bool) bool {
	if _, dup := s.seen[msg.ID]; dup {
		return false
	}
	s.seen[msg.ID] = struct{}{}
	// upper bound keeps equal timestamps in arrival order
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].msg.SentAt.After(msg.SentAt)
	})
	s.entries = slices.Insert(s.entries, i, storedMessage{msg: msg, live: live})
	return true
}

// View returns a copy of the merged list.
func (s *MessageStore) View() []ChatMessage {
	return lo.Map(s.entries, func(e storedMessage, _ int) ChatMessage { return e.msg })
}

// Len returns the number of merged messages.
func (s *MessageStore) Len() int { return len(s.entries) }

// LiveLen returns how many merged messages arrived over the live stream.
func (s *MessageStore) LiveLen() int {
	return lo.CountBy(s.entries, func(e storedMessage) bool { return e.live })
}

// HistoricalLoaded reports whether SetHistorical has been called.
func (s *MessageStore) HistoricalLoaded() bool { return s.historicalSet }

// Reset clears both halves. Only a full teardown calls it.
func (s *MessageStore) Reset() {
	s.entries = nil
	s.seen = make(map[MessageID]struct{})
	s.historicalSet = false
}
