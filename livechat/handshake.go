package livechat

// authenticate declares the current identity on the open transport. Without
// an identity the channel stays Open and receive-only. The server does not
// acknowledge the frame, so the client is Ready as soon as it is queued.
func (c *Client) authenticate() {
	if !c.state.live() {
		return
	}
	if c.current == nil {
		c.setState(StateOpen, nil)
		return
	}

	c.setState(StateAuthenticating, nil)
	data, err := EncodeAuth(*c.current)
	if err != nil {
		c.logger.Error("encode auth frame", map[string]any{"error": err.Error()})
		c.obs.error(err)
		c.setState(StateOpen, err)
		return
	}
	if !c.enqueue(data) {
		c.setState(StateOpen, NewError(ErrorConnection, "auth frame dropped"))
		return
	}
	c.attempt = 0
	c.setState(StateReady, nil)
}

// handleIdentity reacts to login/logout. A new identity on a live transport
// is re-declared; the server replaces the previous one for this connection.
func (c *Client) handleIdentity(id *Identity) {
	if sameIdentity(c.current, id) {
		return
	}
	if id == nil {
		c.current = nil
	} else {
		cp := *id
		c.current = &cp
	}
	c.logger.Debug("identity changed", map[string]any{"anonymous": id == nil})
	c.authenticate()
}
