package livechat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vovakirdan/livechat-sdk-go/livechat/rest"
)

// Client owns the session channel: it connects, authenticates, reconnects
// with backoff, routes inbound frames, and merges history with the live
// stream.
//
// All state lives on a single event-loop goroutine. Transport callbacks and
// timer firings are posted to that loop tagged with the generation of the
// transport that produced them; anything from an older generation is dropped.
type Client struct {
	cfg      Config
	logger   Logger
	dialer   Dialer
	policy   ReconnectPolicy
	identity IdentitySource
	history  HistoryFetcher

	events      chan func()
	quit        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
	historyMu   sync.Mutex

	obs observers

	// mirrored for State and WaitForState
	stateMirror atomic.Int32
	changedMu   sync.Mutex
	changed     chan struct{}

	// owned by the event loop
	state      ConnectionState
	attempt    int
	gen        uint64
	active     *link
	cancelDial context.CancelFunc
	dialing    chan struct{} // closed once the in-flight dial is settled
	timer      *time.Timer
	current    *Identity
	store      *MessageStore
	presence   PresenceTracker
	router     *Router
	stats      Stats
}

// link is one attached transport and its writer queue.
type link struct {
	gen    uint64
	t      Transport
	out    chan []byte
	cancel context.CancelFunc
}

// Option customises a Client.
type Option func(*Client)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option { return func(c *Client) { c.dialer = d } }

// WithIdentity sets the identity source. Without it the session is anonymous.
func WithIdentity(src IdentitySource) Option { return func(c *Client) { c.identity = src } }

// WithHistory sets the historical message source.
func WithHistory(h HistoryFetcher) Option { return func(c *Client) { c.history = h } }

// WithLogger overrides the no-op logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPolicy overrides the reconnect policy derived from Config.
func WithPolicy(p ReconnectPolicy) Option { return func(c *Client) { c.policy = p } }

// NewClient constructs a client and starts its event loop. The client stays
// Idle until Connect. Call Close to release it.
// Use DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.OutboundBuffer <= 0 {
		cfg.OutboundBuffer = DefaultConfig().OutboundBuffer
	}
	c := &Client{
		cfg:     cfg,
		logger:  noopLogger{},
		policy:  cfg.Policy(),
		events:  make(chan func(), 64),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		changed: make(chan struct{}),
		store:   NewMessageStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = WebSocketDialer{URL: cfg.URL, WriteTimeout: cfg.WriteTimeout}
	}
	if c.history == nil && cfg.HistoryURL != "" {
		c.history = NewRESTHistory(rest.NewClient(cfg.HistoryURL), cfg.HistoryLimit)
	}

	c.router = NewRouter(c.store, &c.presence)
	c.router.SetOnMessage(func(m ChatMessage) {
		c.obs.message(m)
		c.obs.messages(c.store.View)
	})
	c.router.SetOnPresence(c.obs.presence)

	if c.identity != nil {
		// Subscribe before reading so a change in between is still delivered.
		c.unsubscribe = c.identity.Subscribe(func(id *Identity) {
			c.post(func() { c.handleIdentity(id) })
		})
		c.current = c.identity.Current()
	}

	go c.run()
	return c
}

// Connect starts connecting. It is a no-op while Connecting, Open,
// Authenticating or Ready. From ReconnectPending it dials immediately.
func (c *Client) Connect() error {
	if !c.post(c.handleConnect) {
		return NewError(ErrorClosed, "client closed")
	}
	return nil
}

// Disconnect tears down the transport, cancels any pending reconnect and
// resets the attempt counter. When it returns no frame from the old
// transport can change state. Messages already received are kept.
func (c *Client) Disconnect() {
	c.do(c.handleDisconnect)
}

// Send queues chat text. It never fails: when the client is not Ready, no
// identity is known, or text is blank, the call has no effect.
func (c *Client) Send(text string) {
	c.post(func() { c.handleSend(text) })
}

// LoadHistory fetches the historical messages once per client lifetime.
// Later calls return nil without fetching. A failed fetch may be retried.
func (c *Client) LoadHistory(ctx context.Context) error {
	if c.history == nil {
		return NewError(ErrorHistory, "no history source configured")
	}
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	var loaded bool
	if !c.do(func() { loaded = c.store.HistoricalLoaded() }) {
		return NewError(ErrorClosed, "client closed")
	}
	if loaded {
		return nil
	}

	msgs, err := c.history.FetchHistory(ctx)
	if err != nil {
		return WrapError(ErrorHistory, "fetch history", err)
	}
	if !c.do(func() {
		if c.store.SetHistorical(msgs) {
			c.logger.Debug("history loaded", map[string]any{"count": len(msgs)})
			c.obs.messages(c.store.View)
		}
	}) {
		return NewError(ErrorClosed, "client closed")
	}
	return nil
}

// Close disconnects, clears messages and presence, and stops the event loop.
// Subscribers see an empty message list and a zero online count.
// It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.do(func() {
			c.handleDisconnect()
			c.store.Reset()
			c.presence.Reset()
			c.obs.messages(c.store.View)
			c.obs.online(0)
		})
		close(c.quit)
		<-c.done
	})
	return nil
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.stateMirror.Load())
}

// WaitForState blocks until the client reaches want, ctx ends, or the client
// is closed.
func (c *Client) WaitForState(ctx context.Context, want ConnectionState) error {
	for {
		c.changedMu.Lock()
		ch := c.changed
		c.changedMu.Unlock()
		if c.State() == want {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return WrapError(ErrorTimeout, "waiting for state "+want.String(), ctx.Err())
		case <-c.done:
			return NewError(ErrorClosed, "client closed")
		}
	}
}

// Snapshot returns the current observable state.
func (c *Client) Snapshot() Snapshot {
	var s Snapshot
	c.do(func() {
		s = Snapshot{
			State:            c.state,
			Attempt:          c.attempt,
			Messages:         c.store.View(),
			HistoryLoaded:    c.store.HistoricalLoaded(),
			OnlineCount:      c.presence.Count(),
			OnlineCountKnown: c.presence.Known(),
		}
		if c.current != nil {
			id := *c.current
			s.Identity = &id
		}
	})
	return s
}

// Stats returns diagnostic counters.
func (c *Client) Stats() Stats {
	var s Stats
	c.do(func() { s = c.stats })
	return s
}

func (c *Client) run() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.events:
			fn()
		case <-c.quit:
			return
		}
	}
}

// post enqueues fn on the event loop. It reports false once the loop is gone.
func (c *Client) post(fn func()) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.events <- fn:
		return true
	case <-c.quit:
		return false
	}
}

// do runs fn on the event loop and waits for it.
func (c *Client) do(fn func()) bool {
	ack := make(chan struct{})
	if !c.post(func() { fn(); close(ack) }) {
		return false
	}
	select {
	case <-ack:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) setState(next ConnectionState, err error) {
	c.transition(StateEvent{NewState: next, Attempt: c.attempt, Error: err})
}

func (c *Client) transition(ev StateEvent) {
	ev.OldState = c.state
	if ev.OldState == ev.NewState {
		return
	}
	c.state = ev.NewState

	fields := map[string]any{"from": ev.OldState.String(), "to": ev.NewState.String(), "attempt": ev.Attempt}
	if ev.Error != nil {
		fields["error"] = ev.Error.Error()
	}
	c.logger.Debug("state changed", fields)
	c.obs.state(ev)

	// waiters wake only after observers have seen the transition
	c.stateMirror.Store(int32(ev.NewState))
	c.changedMu.Lock()
	close(c.changed)
	c.changed = make(chan struct{})
	c.changedMu.Unlock()
}

func (c *Client) handleConnect() {
	switch c.state {
	case StateConnecting, StateOpen, StateAuthenticating, StateReady:
		return
	case StateReconnectPending:
		c.stopTimer()
	}
	c.dial()
}

func (c *Client) dial() {
	c.gen++
	gen := c.gen
	c.setState(StateConnecting, nil)

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.cfg.ConnectTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	c.cancelDial = cancel

	// A superseded dial must be settled before the next one starts so that
	// two transports never coexist.
	prev := c.dialing
	done := make(chan struct{})
	c.dialing = done

	go func() {
		defer cancel()
		if prev != nil {
			<-prev
		}
		if err := ctx.Err(); err != nil {
			c.settleDial(func() { c.handleDialed(gen, nil, err, done) }, nil, done)
			return
		}
		t, err := c.dialer.Dial(ctx)
		c.settleDial(func() { c.handleDialed(gen, t, err, done) }, t, done)
	}()
}

// settleDial posts a dial result; if the loop is gone it releases t itself.
func (c *Client) settleDial(fn func(), t Transport, done chan struct{}) {
	if c.post(fn) {
		return
	}
	if t != nil {
		_ = t.Close()
	}
	close(done)
}

func (c *Client) handleDialed(gen uint64, t Transport, err error, done chan struct{}) {
	defer close(done)
	if c.dialing == done {
		c.dialing = nil
	}
	if gen != c.gen || c.state != StateConnecting {
		if t != nil {
			_ = t.Close()
		}
		return
	}
	c.cancelDial = nil
	if err != nil {
		if CodeOf(err) == ErrorUnknown {
			err = WrapError(ErrorConnection, "dial failed", err)
		}
		c.logger.Warn("connect failed", map[string]any{"error": err.Error(), "attempt": c.attempt})
		c.obs.error(err)
		c.scheduleReconnect(err)
		return
	}

	c.attach(gen, t)
	c.setState(StateOpen, nil)
	c.authenticate()
	if c.state == StateOpen {
		// anonymous sessions settle in Open
		c.attempt = 0
	}
}

func (c *Client) attach(gen uint64, t Transport) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{gen: gen, t: t, out: make(chan []byte, c.cfg.OutboundBuffer), cancel: cancel}
	c.active = l
	c.stats.TransportsOpened++
	go c.readLoop(ctx, l)
	go c.writeLoop(ctx, l)
}

// detach closes the active transport. Late callbacks from it are dropped by
// the generation check.
func (c *Client) detach() {
	if c.active == nil {
		return
	}
	l := c.active
	c.active = nil
	if err := l.t.Close(); err != nil {
		c.logger.Debug("transport close", map[string]any{"error": err.Error()})
	}
	l.cancel()
}

func (c *Client) readLoop(ctx context.Context, l *link) {
	for {
		data, err := l.t.Read(ctx)
		if err != nil {
			c.post(func() { c.handleLost(l.gen, err) })
			return
		}
		if !c.post(func() { c.handleFrame(l.gen, data) }) {
			return
		}
	}
}

func (c *Client) writeLoop(ctx context.Context, l *link) {
	for {
		select {
		case data := <-l.out:
			if err := l.t.Write(ctx, data); err != nil {
				c.post(func() { c.handleLost(l.gen, err) })
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleFrame(gen uint64, data []byte) {
	if gen != c.gen || !c.state.live() {
		return
	}
	frame, err := DecodeInbound(data)
	if err != nil {
		c.stats.DecodeFailures++
		c.logger.Warn("dropping malformed frame", map[string]any{"error": err.Error(), "bytes": len(data)})
		c.obs.error(err)
		return
	}
	if c.router.Route(frame) {
		c.stats.FramesRouted++
	}
}

func (c *Client) handleLost(gen uint64, err error) {
	if gen != c.gen || c.active == nil {
		return
	}
	c.detach()
	cause := classifyClose(err)
	c.logger.Warn("transport lost", map[string]any{"error": cause.Error()})
	c.setState(StateClosed, cause)
	c.obs.error(cause)
	c.scheduleReconnect(cause)
}

func (c *Client) scheduleReconnect(cause error) {
	delay, ok := c.policy.Next(c.attempt)
	if !ok {
		exhausted := WrapError(ErrorReconnectExhausted, "reconnect attempts exhausted", cause)
		c.logger.Error("giving up reconnecting", map[string]any{"attempts": c.attempt})
		c.transition(StateEvent{NewState: StateReconnectPending, Attempt: c.attempt, Error: cause})
		c.attempt = 0
		c.setState(StateIdle, exhausted)
		c.obs.error(exhausted)
		return
	}

	c.stats.ReconnectsScheduled++
	c.logger.Warn("reconnect scheduled", map[string]any{"attempt": c.attempt, "delay": delay.String()})
	c.transition(StateEvent{NewState: StateReconnectPending, Attempt: c.attempt, Delay: delay, Error: cause})
	c.attempt++

	gen := c.gen
	c.timer = time.AfterFunc(delay, func() {
		c.post(func() { c.handleRetry(gen) })
	})
}

func (c *Client) handleRetry(gen uint64) {
	if gen != c.gen || c.state != StateReconnectPending {
		return
	}
	c.timer = nil
	c.dial()
}

func (c *Client) handleDisconnect() {
	c.gen++
	c.stopTimer()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	c.detach()
	c.attempt = 0
	c.setState(StateIdle, nil)
}

func (c *Client) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// enqueue hands data to the writer without blocking the loop.
func (c *Client) enqueue(data []byte) bool {
	if c.active == nil {
		return false
	}
	select {
	case c.active.out <- data:
		return true
	default:
		c.stats.OutboundDropped++
		c.logger.Debug("outbound queue full, dropping frame", map[string]any{"bytes": len(data)})
		return false
	}
}
