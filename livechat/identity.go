package livechat

import "sync"

// IdentitySource supplies the current user and notifies on login/logout.
// Current returns nil for anonymous sessions.
type IdentitySource interface {
	Current() *Identity
	Subscribe(fn func(*Identity)) (unsubscribe func())
}

// IdentityHolder is an in-memory IdentitySource.
type IdentityHolder struct {
	mu      sync.Mutex
	current *Identity
	nextID  int
	subs    map[int]func(*Identity)
}

// NewIdentityHolder returns a holder initialised with id, which may be nil.
func NewIdentityHolder(id *Identity) *IdentityHolder {
	h := &IdentityHolder{subs: make(map[int]func(*Identity))}
	if id != nil {
		cp := *id
		h.current = &cp
	}
	return h
}

// Current returns a copy of the current identity or nil.
func (h *IdentityHolder) Current() *Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return nil
	}
	cp := *h.current
	return &cp
}

// Set replaces the identity and notifies subscribers. Setting an identical
// identity does nothing.
func (h *IdentityHolder) Set(id *Identity) {
	h.mu.Lock()
	if sameIdentity(h.current, id) {
		h.mu.Unlock()
		return
	}
	if id == nil {
		h.current = nil
	} else {
		cp := *id
		h.current = &cp
	}
	subs := make([]func(*Identity), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(h.Current())
	}
}

// Subscribe registers fn for identity changes.
func (h *IdentityHolder) Subscribe(fn func(*Identity)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
