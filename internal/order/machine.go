package order

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"log/slog"

	"github.com/vitorynet/configbot/core/logger"
	"github.com/vitorynet/configbot/internal/catalog"
	"github.com/vitorynet/configbot/internal/pricing"
)

// Callback keys generated by the machine's own keyboards. Selections always
// originate from a keyboard the machine rendered in the preceding step, so an
// unknown key or an out-of-order selection is an internal error, not user
// input to validate.
const (
	KeyBuy      = "buy"
	KeyInfo     = "info"
	KeyMain     = "main"
	KeyLocation = "loc"
	KeyVariant  = "srv"
	KeyDuration = "dur"
	KeyVolume   = "vol"
	KeyPaid     = "paid"
)

// CallbackKeys lists every callback key the machine handles, for transport wiring.
var CallbackKeys = []string{
	KeyBuy, KeyInfo, KeyMain, KeyLocation, KeyVariant, KeyDuration, KeyVolume, KeyPaid,
}

// PaymentDetails holds the card requisites rendered into the order summary.
type PaymentDetails struct {
	CardNumber string
	CardHolder string
}

// Machine owns per-user order sessions and turns inbound events into outbound
// intents. It never talks to the transport itself. All session
// read-modify-write sequences run under a per-user lock: telebot dispatches
// updates on concurrent goroutines, and a double-tap on a keyboard button is
// a realistic race.
type Machine struct {
	store    Store
	archive  Archive
	operator int64
	payment  PaymentDetails

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewMachine constructs a Machine. archive may be nil; completed orders are
// then not persisted.
func NewMachine(store Store, operator int64, payment PaymentDetails, archive Archive) *Machine {
	return &Machine{
		store:    store,
		archive:  archive,
		operator: operator,
		payment:  payment,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (m *Machine) lockUser(userID int64) func() {
	m.locksMu.Lock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	m.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Start handles the /start command: root menu, no session mutation.
func (m *Machine) Start(userID int64) []Intent {
	return []Intent{Reply{Text: msgWelcome, Keyboard: mainMenuKeyboard()}}
}

// Select handles a callback selection identified by key and payload.
func (m *Machine) Select(ctx context.Context, userID int64, key, payload string) []Intent {
	unlock := m.lockUser(userID)
	defer unlock()

	switch key {
	case KeyBuy:
		return m.beginPurchase(userID)
	case KeyInfo:
		return m.requestInfo(userID)
	case KeyMain:
		return m.backToMenu(userID)
	case KeyLocation:
		return m.selectLocation(ctx, userID, payload)
	case KeyVariant:
		return m.selectVariant(ctx, userID, payload)
	case KeyDuration:
		return m.selectDuration(ctx, userID, payload)
	case KeyVolume:
		return m.selectVolume(ctx, userID, payload)
	case KeyPaid:
		return m.ackPayment(ctx, userID)
	default:
		return m.invariantFailure(ctx, userID, key, payload, "unknown callback key")
	}
}

// beginPurchase creates (or resets) the session and asks for a region.
func (m *Machine) beginPurchase(userID int64) []Intent {
	m.store.Put(userID, &Session{UserID: userID, State: StateAwaitingLocation})

	buttons := make([]Button, 0, len(catalog.Locations))
	for _, loc := range catalog.Locations {
		buttons = append(buttons, Button{Label: loc.Label, Key: KeyLocation, Payload: loc.Code})
	}
	rows := chunkButtons(buttons, 2)
	rows = append(rows, []Button{{Label: btnBack, Key: KeyMain}})
	return []Intent{Reply{Text: msgChooseLocation, Keyboard: rows}}
}

func (m *Machine) requestInfo(userID int64) []Intent {
	return []Intent{
		DirectMessage{To: m.operator, Text: msgInfoRequest(userID)},
		Reply{Text: msgInfoAck, Keyboard: backToMenuKeyboard()},
	}
}

// backToMenu discards in-progress selections and shows the root menu.
func (m *Machine) backToMenu(userID int64) []Intent {
	if sess, ok := m.store.Get(userID); ok {
		sess.State = StateIdle
		sess.resetSelections()
		m.store.Put(userID, sess)
	}
	return []Intent{Reply{Text: msgBackToMenu, Keyboard: mainMenuKeyboard()}}
}

func (m *Machine) selectLocation(ctx context.Context, userID int64, code string) []Intent {
	sess, ok := m.store.Get(userID)
	if !ok {
		return m.invariantFailure(ctx, userID, KeyLocation, code, "no active session")
	}
	if _, ok := catalog.LocationLabel(code); !ok {
		return m.invariantFailure(ctx, userID, KeyLocation, code, "unknown region code")
	}

	sess.Location = code
	sess.State = StateAwaitingVariant
	m.store.Put(userID, sess)

	var row []Button
	for _, v := range catalog.Variants {
		row = append(row, Button{Label: string(v), Key: KeyVariant, Payload: string(v)})
	}
	rows := [][]Button{row, {{Label: btnBack, Key: KeyBuy}}}
	return []Intent{Reply{Text: msgChooseVariant, Keyboard: rows}}
}

func (m *Machine) selectVariant(ctx context.Context, userID int64, variant string) []Intent {
	sess, ok := m.store.Get(userID)
	if !ok || sess.Location == "" {
		return m.invariantFailure(ctx, userID, KeyVariant, variant, "location not selected yet")
	}
	if !catalog.KnownVariant(variant) {
		return m.invariantFailure(ctx, userID, KeyVariant, variant, "unknown service variant")
	}

	sess.Variant = catalog.Variant(variant)
	sess.State = StateAwaitingDuration
	m.store.Put(userID, sess)

	var row []Button
	for _, d := range catalog.Durations {
		row = append(row, Button{
			Label:   strconv.Itoa(d) + " ماهه",
			Key:     KeyDuration,
			Payload: strconv.Itoa(d),
		})
	}
	rows := [][]Button{row, {{Label: btnBack, Key: KeyBuy}}}
	return []Intent{Reply{Text: msgChooseDuration, Keyboard: rows}}
}

func (m *Machine) selectDuration(ctx context.Context, userID int64, payload string) []Intent {
	sess, ok := m.store.Get(userID)
	if !ok || sess.Variant == "" {
		return m.invariantFailure(ctx, userID, KeyDuration, payload, "variant not selected yet")
	}
	months, err := strconv.Atoi(payload)
	if err != nil {
		return m.invariantFailure(ctx, userID, KeyDuration, payload, "non-numeric duration")
	}

	sess.Months = months
	sess.State = StateAwaitingVolume
	m.store.Put(userID, sess)

	volumes := catalog.VolumesFor(months)
	buttons := make([]Button, 0, len(volumes))
	for _, v := range volumes {
		buttons = append(buttons, Button{
			Label:   strconv.Itoa(v) + " گیگ",
			Key:     KeyVolume,
			Payload: strconv.Itoa(v),
		})
	}
	rows := chunkButtons(buttons, 3)
	rows = append(rows, []Button{{Label: btnBack, Key: KeyBuy}})
	return []Intent{Reply{Text: msgChooseVolume, Keyboard: rows}}
}

// selectVolume stores the volume, computes the price, and renders the order
// summary with payment instructions. The volume is deliberately not checked
// against the offered set: the keyboard pre-constrains it, matching observed
// behaviour.
func (m *Machine) selectVolume(ctx context.Context, userID int64, payload string) []Intent {
	sess, ok := m.store.Get(userID)
	if !ok || sess.Months == 0 {
		return m.invariantFailure(ctx, userID, KeyVolume, payload, "duration not selected yet")
	}
	volume, err := strconv.Atoi(payload)
	if err != nil {
		return m.invariantFailure(ctx, userID, KeyVolume, payload, "non-numeric volume")
	}

	price, err := pricing.Price(sess.Variant, volume)
	if err != nil {
		return m.invariantFailure(ctx, userID, KeyVolume, payload, err.Error())
	}

	sess.VolumeGB = volume
	sess.Price = price
	sess.State = StateAwaitingPayment
	m.store.Put(userID, sess)

	rows := [][]Button{
		{{Label: btnSendReceipt, Key: KeyPaid}},
		{{Label: btnBack, Key: KeyBuy}},
	}
	return []Intent{Reply{Text: renderSummary(sess, m.payment), Keyboard: rows, HTML: true}}
}

func (m *Machine) ackPayment(ctx context.Context, userID int64) []Intent {
	sess, ok := m.store.Get(userID)
	if !ok || sess.Price == 0 {
		return m.invariantFailure(ctx, userID, KeyPaid, "", "price not computed yet")
	}

	sess.State = StateAwaitingReceipt
	m.store.Put(userID, sess)

	return []Intent{Reply{Text: msgAwaitReceipt}}
}

// SubmitReceipt handles a photo message. Without an active session the photo
// is silently ignored; otherwise it is forwarded to the operator and the
// buyer is told to wait. There is no further automated transition: the order
// stays open for manual operator action.
func (m *Machine) SubmitReceipt(ctx context.Context, userID int64) []Intent {
	unlock := m.lockUser(userID)
	defer unlock()

	sess, ok := m.store.Get(userID)
	if !ok {
		return nil
	}

	if m.archive != nil && sess.Price > 0 {
		rec := CompletedOrder{
			ID:        uuid.NewString(),
			UserID:    sess.UserID,
			Location:  sess.Location,
			Variant:   string(sess.Variant),
			Months:    sess.Months,
			VolumeGB:  sess.VolumeGB,
			Price:     sess.Price,
			CreatedAt: time.Now().UTC(),
		}
		if err := m.archive.SaveOrder(ctx, rec); err != nil {
			// Bookkeeping only; the receipt still reaches the operator.
			logger.Error(ctx, "service.orders", "order.archive",
				slog.String("status", "fail"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
	}

	return []Intent{
		ForwardReceipt{To: m.operator},
		Reply{Text: msgReceiptAck},
	}
}

// Fulfill handles the privileged /send_config command. A non-operator caller
// is silently dropped: no response at all. Malformed arguments get an
// operator-visible corrective message and mutate nothing.
func (m *Machine) Fulfill(ctx context.Context, callerID int64, text string) []Intent {
	if callerID != m.operator {
		return nil
	}

	parts := strings.SplitN(text, " ", 3)
	if len(parts) < 3 {
		return []Intent{Reply{Text: msgSendConfigUsage}}
	}
	target, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return []Intent{Reply{Text: msgFulfillError(err)}}
	}

	logger.Info(ctx, "service.orders", "order.fulfill",
		slog.String("status", "ok"),
		slog.Int64("target_id", target),
	)
	return []Intent{
		DirectMessage{To: target, Text: msgConfigReady(parts[2])},
		Reply{Text: msgConfigSent},
	}
}

// invariantFailure logs an internal error and shows the generic failure
// message. Selections reference keyboards the machine itself generated, so a
// mismatch here is a bug, not bad user input.
func (m *Machine) invariantFailure(ctx context.Context, userID int64, key, payload, reason string) []Intent {
	logger.Error(ctx, "service.orders", "order.invariant",
		slog.String("status", "fail"),
		slog.Int64("user_id", userID),
		slog.String("cb_key", key),
		slog.String("payload", logger.SanitizeLimit(payload, 64)),
		slog.String("reason", reason),
	)
	return []Intent{Reply{Text: msgInternalError}}
}

func mainMenuKeyboard() [][]Button {
	return [][]Button{
		{{Label: btnBuy, Key: KeyBuy}},
		{{Label: btnInfo, Key: KeyInfo}},
	}
}

func backToMenuKeyboard() [][]Button {
	return [][]Button{{{Label: btnBackToMenu, Key: KeyMain}}}
}

func chunkButtons(buttons []Button, n int) [][]Button {
	if n <= 1 {
		out := make([][]Button, 0, len(buttons))
		for _, b := range buttons {
			out = append(out, []Button{b})
		}
		return out
	}
	var rows [][]Button
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}
