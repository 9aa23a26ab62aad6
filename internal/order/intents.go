package order

// Button is one (label, action) cell of an inline keyboard grid. Key selects
// the callback handler; Payload carries the chosen option code.
type Button struct {
	Label   string
	Key     string
	Payload string
}

// Intent is an outbound effect the transport layer must execute. The machine
// only ever emits intents; it performs no network calls itself.
type Intent interface{ isIntent() }

// Reply sends text back to the user the inbound event came from, optionally
// with an inline keyboard grid.
type Reply struct {
	Text     string
	Keyboard [][]Button
	HTML     bool
}

// DirectMessage sends text to an arbitrary user outside the inbound chat.
type DirectMessage struct {
	To   int64
	Text string
}

// ForwardReceipt forwards the inbound photo message to another user.
type ForwardReceipt struct {
	To int64
}

func (Reply) isIntent()          {}
func (DirectMessage) isIntent()  {}
func (ForwardReceipt) isIntent() {}
