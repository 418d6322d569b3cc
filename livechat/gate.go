package livechat

import "strings"

// handleSend forwards chat text only when the client is Ready, an identity is
// known and the text is not blank. Anything else is dropped silently.
func (c *Client) handleSend(text string) {
	text = strings.TrimSpace(text)
	if c.state != StateReady || c.current == nil || text == "" {
		c.stats.SendsDropped++
		return
	}
	data, err := EncodeChat(text)
	if err != nil {
		c.stats.SendsDropped++
		return
	}
	if !c.enqueue(data) {
		c.stats.SendsDropped++
		return
	}
	c.stats.SendsAccepted++
}
