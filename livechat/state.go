package livechat

import "time"

// ConnectionState represents the current state of the session channel.
type ConnectionState int

const (
	// StateIdle means no transport exists and no reconnect is scheduled.
	StateIdle ConnectionState = iota

	// StateConnecting means a transport is being established.
	StateConnecting

	// StateOpen means the transport is established but no identity has been
	// declared. The channel is receive-only.
	StateOpen

	// StateAuthenticating means the identity frame is being sent.
	StateAuthenticating

	// StateReady means the identity frame was sent and chat can be sent.
	StateReady

	// StateClosed means the transport closed, cleanly or with an error.
	StateClosed

	// StateReconnectPending means a reconnect is scheduled after a backoff delay.
	StateReconnectPending
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateReconnectPending:
		return "reconnect_pending"
	default:
		return "unknown"
	}
}

// live reports whether a transport is attached in this state.
func (s ConnectionState) live() bool {
	return s == StateOpen || s == StateAuthenticating || s == StateReady
}

// StateEvent represents a state change event.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	// Attempt is the zero-based retry this event refers to. For
	// StateReconnectPending it is the retry being scheduled, so it is one
	// less than Snapshot.Attempt afterwards. When the budget is spent the
	// pending event has no Delay and is followed at once by StateIdle.
	// Other events carry the counter as it stood when they fired.
	Attempt int
	// Delay is set when NewState is StateReconnectPending and a retry is
	// scheduled.
	Delay time.Duration
	Error error // Optional error that caused the state change
}
