package livechat

// Router dispatches decoded inbound frames to the store and presence tracker
// and fires the matching callbacks.
type Router struct {
	store    *MessageStore
	presence *PresenceTracker

	onMessage  func(ChatMessage)
	onPresence func(PresenceEvent)
}

// NewRouter builds a router over store and presence.
func NewRouter(store *MessageStore, presence *PresenceTracker) *Router {
	return &Router{store: store, presence: presence}
}

func (r *Router) SetOnMessage(fn func(ChatMessage))    { r.onMessage = fn }
func (r *Router) SetOnPresence(fn func(PresenceEvent)) { r.onPresence = fn }

// Route applies one frame. It reports whether observable state changed.
// Unknown frame types are ignored.
func (r *Router) Route(f InboundFrame) bool {
	switch f.Type {
	case TypeChatMessage:
		if f.Message == nil || !r.store.Append(*f.Message) {
			return false
		}
		if r.onMessage != nil {
			r.onMessage(*f.Message)
		}
		return true
	case TypeUserJoined, TypeUserLeft, TypeOnlineCount:
		r.presence.Set(f.OnlineCount)
		if r.onPresence != nil {
			r.onPresence(PresenceEvent{Type: f.Type, Username: f.Username, OnlineCount: r.presence.Count()})
		}
		return true
	default:
		return false
	}
}
