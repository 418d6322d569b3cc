package livechat

import "sync"

// observers holds render-layer callbacks. Callbacks run on the client's event
// loop in event order and must not call Disconnect, Close, Snapshot, Stats or
// LoadHistory, which wait on that loop. Connect and Send are safe.
type observers struct {
	mu         sync.RWMutex
	onState    func(StateEvent)
	onMessages func([]ChatMessage)
	onMessage  func(ChatMessage)
	onPresence func(PresenceEvent)
	onOnline   func(int)
	onError    func(error)
}

// OnStateChanged registers callback for connection state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) {
	c.obs.mu.Lock()
	c.obs.onState = fn
	c.obs.mu.Unlock()
}

// OnMessages registers callback receiving the full merged message view after
// every change.
func (c *Client) OnMessages(fn func([]ChatMessage)) {
	c.obs.mu.Lock()
	c.obs.onMessages = fn
	c.obs.mu.Unlock()
}

// OnMessage registers callback for each new live message.
func (c *Client) OnMessage(fn func(ChatMessage)) {
	c.obs.mu.Lock()
	c.obs.onMessage = fn
	c.obs.mu.Unlock()
}

// OnPresence registers callback for join/leave/count frames.
func (c *Client) OnPresence(fn func(PresenceEvent)) {
	c.obs.mu.Lock()
	c.obs.onPresence = fn
	c.obs.mu.Unlock()
}

// OnOnlineCount registers callback for online count updates.
func (c *Client) OnOnlineCount(fn func(int)) {
	c.obs.mu.Lock()
	c.obs.onOnline = fn
	c.obs.mu.Unlock()
}

// OnError registers callback for non-fatal errors.
func (c *Client) OnError(fn func(error)) {
	c.obs.mu.Lock()
	c.obs.onError = fn
	c.obs.mu.Unlock()
}

func (o *observers) state(ev StateEvent) {
	o.mu.RLock()
	fn := o.onState
	o.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

func (o *observers) messages(view func() []ChatMessage) {
	o.mu.RLock()
	fn := o.onMessages
	o.mu.RUnlock()
	if fn != nil {
		fn(view())
	}
}

func (o *observers) message(m ChatMessage) {
	o.mu.RLock()
	fn := o.onMessage
	o.mu.RUnlock()
	if fn != nil {
		fn(m)
	}
}

func (o *observers) presence(ev PresenceEvent) {
	o.mu.RLock()
	onPresence, onOnline := o.onPresence, o.onOnline
	o.mu.RUnlock()
	if onPresence != nil {
		onPresence(ev)
	}
	if onOnline != nil {
		onOnline(ev.OnlineCount)
	}
}

func (o *observers) online(n int) {
	o.mu.RLock()
	fn := o.onOnline
	o.mu.RUnlock()
	if fn != nil {
		fn(n)
	}
}

func (o *observers) error(err error) {
	o.mu.RLock()
	fn := o.onError
	o.mu.RUnlock()
	if fn != nil && err != nil {
		fn(err)
	}
}

// Snapshot is a consistent view of the client's observable state.
type Snapshot struct {
	State            ConnectionState
	// Attempt counts scheduled retries. It resets on Ready, Disconnect and
	// when retries run out.
	Attempt          int
	Identity         *Identity
	Messages         []ChatMessage
	HistoryLoaded    bool
	OnlineCount      int
	OnlineCountKnown bool
}

// Stats are diagnostic counters.
type Stats struct {
	TransportsOpened    int
	FramesRouted        int
	DecodeFailures      int
	SendsAccepted       int
	SendsDropped        int
	OutboundDropped     int
	ReconnectsScheduled int
}
