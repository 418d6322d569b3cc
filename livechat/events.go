package livechat

// PresenceEvent is emitted for every user_joined, user_left and online_count
// frame after the online count has been updated.
type PresenceEvent struct {
	Type        string // TypeUserJoined, TypeUserLeft or TypeOnlineCount
	Username    string // empty for online_count
	OnlineCount int
}

// Joined reports whether the event announces a new user.
func (e PresenceEvent) Joined() bool { return e.Type == TypeUserJoined }

// Left reports whether the event announces a departed user.
func (e PresenceEvent) Left() bool { return e.Type == TypeUserLeft }
