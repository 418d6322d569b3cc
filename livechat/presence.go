package livechat

// PresenceTracker holds the latest authoritative online-user count. Every
// update replaces the previous value; join/leave deltas are never summed.
type PresenceTracker struct {
	count   int
	updates int
}

// Set replaces the count. Negative values are clamped to 0.
func (p *PresenceTracker) Set(count int) {
	p.count = max(count, 0)
	p.updates++
}

// Count returns the latest count.
func (p *PresenceTracker) Count() int { return p.count }

// Known reports whether any update has arrived since the last reset.
func (p *PresenceTracker) Known() bool { return p.updates > 0 }

// Reset forgets the count.
func (p *PresenceTracker) Reset() {
	p.count = 0
	p.updates = 0
}
