package order

import "github.com/vitorynet/configbot/internal/catalog"

// State identifies the buyer's position in the purchase flow.
type State string

const (
	// StateIdle indicates there is no purchase in progress.
	StateIdle State = "idle"
	// StateAwaitingLocation means the region keyboard has been shown.
	StateAwaitingLocation State = "awaiting_location"
	// StateAwaitingVariant means the service variant keyboard has been shown.
	StateAwaitingVariant State = "awaiting_variant"
	// StateAwaitingDuration means the duration keyboard has been shown.
	StateAwaitingDuration State = "awaiting_duration"
	// StateAwaitingVolume means the volume keyboard has been shown.
	StateAwaitingVolume State = "awaiting_volume"
	// StateAwaitingPayment means the order summary with payment instructions
	// has been shown and the buyer has not confirmed the transfer yet.
	StateAwaitingPayment State = "awaiting_payment_ack"
	// StateAwaitingReceipt means the buyer was asked for the receipt photo.
	// There is no terminal state after it: once the receipt is forwarded the
	// order waits for manual operator action.
	StateAwaitingReceipt State = "awaiting_receipt"
)

// Session accumulates one buyer's purchase selections. Fields are populated
// strictly in order Location, Variant, Months, VolumeGB, Price; a later field
// is never set while an earlier one is still empty.
type Session struct {
	UserID   int64
	State    State
	Location string
	Variant  catalog.Variant
	Months   int
	VolumeGB int
	Price    int64
}

// resetSelections clears everything accumulated below the root menu.
func (s *Session) resetSelections() {
	s.Location = ""
	s.Variant = ""
	s.Months = 0
	s.VolumeGB = 0
	s.Price = 0
}
