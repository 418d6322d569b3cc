package livechat

import "time"

// ReconnectPolicy maps a reconnect attempt number to a backoff delay.
// Attempts count from 0. The zero value never reconnects.
type ReconnectPolicy struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// Next returns the delay before reconnect attempt n, or false once the
// attempt budget is exhausted.
func (p ReconnectPolicy) Next(attempt int) (time.Duration, bool) {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.Delay(attempt), true
}

// Delay returns min(Cap, Base*2^attempt). A Cap below Base is treated as Base.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	limit := p.Cap
	if limit < p.Base {
		limit = p.Base
	}
	d := p.Base
	for i := 0; i < attempt; i++ {
		if d > limit/2 {
			return limit
		}
		d *= 2
	}
	return min(d, limit)
}
