package order

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/vitorynet/configbot/internal/catalog"
)

var testPayment = PaymentDetails{
	CardNumber: "6037-9918-7450-3889",
	CardHolder: "احمدرضا اله دادی",
}

const testOperator int64 = 777

func newTestMachine() *Machine {
	return NewMachine(NewMemoryStore(), testOperator, testPayment, nil)
}

func replyOf(t *testing.T, intents []Intent) Reply {
	t.Helper()
	for _, in := range intents {
		if r, ok := in.(Reply); ok {
			return r
		}
	}
	t.Fatalf("no Reply intent in %#v", intents)
	return Reply{}
}

// walks the full purchase flow up to the summary screen
func driveToSummary(t *testing.T, m *Machine, userID int64, variant string, months, volume string) Reply {
	t.Helper()
	ctx := context.Background()
	m.Select(ctx, userID, KeyBuy, "")
	m.Select(ctx, userID, KeyLocation, "france")
	m.Select(ctx, userID, KeyVariant, variant)
	m.Select(ctx, userID, KeyDuration, months)
	return replyOf(t, m.Select(ctx, userID, KeyVolume, volume))
}

func TestStartShowsMainMenu(t *testing.T) {
	m := newTestMachine()
	r := replyOf(t, m.Start(42))
	if r.Text != msgWelcome {
		t.Errorf("unexpected welcome text %q", r.Text)
	}
	if len(r.Keyboard) != 2 {
		t.Fatalf("main menu rows = %d, want 2", len(r.Keyboard))
	}
	if r.Keyboard[0][0].Key != KeyBuy || r.Keyboard[1][0].Key != KeyInfo {
		t.Errorf("main menu keys = %q, %q", r.Keyboard[0][0].Key, r.Keyboard[1][0].Key)
	}
}

func TestFullPurchaseFlowVless(t *testing.T) {
	m := newTestMachine()
	r := driveToSummary(t, m, 42, "vless", "3", "50")

	if !r.HTML {
		t.Error("summary must use HTML parse mode")
	}
	for _, want := range []string{"170,000", "🇫🇷 فرانسه", "vless", testPayment.CardNumber, testPayment.CardHolder} {
		if !strings.Contains(r.Text, want) {
			t.Errorf("summary missing %q:\n%s", want, r.Text)
		}
	}

	sess, ok := m.store.Get(42)
	if !ok {
		t.Fatal("session missing after flow")
	}
	if sess.State != StateAwaitingPayment || sess.Price != 170000 {
		t.Errorf("session = %+v", sess)
	}

	// summary offers receipt confirmation plus restart
	if r.Keyboard[0][0].Key != KeyPaid {
		t.Errorf("first summary button key = %q", r.Keyboard[0][0].Key)
	}
}

func TestVmessOneMonthPrice(t *testing.T) {
	m := newTestMachine()
	r := driveToSummary(t, m, 42, "vmess", "1", "20")
	if !strings.Contains(r.Text, "60,000") {
		t.Errorf("summary missing 60,000:\n%s", r.Text)
	}
}

// A second volume tap on the summary screen overwrites the previous choice
// and recomputes the price in place.
func TestVolumeReselectionRecomputesPrice(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()
	driveToSummary(t, m, 42, "vless", "3", "50")

	r := replyOf(t, m.Select(ctx, 42, KeyVolume, "100"))
	if !strings.Contains(r.Text, "320,000") {
		t.Errorf("recomputed summary missing 320,000:\n%s", r.Text)
	}
	sess, _ := m.store.Get(42)
	if sess.VolumeGB != 100 || sess.Price != 320000 {
		t.Errorf("session after re-selection = %+v", sess)
	}
	if sess.State != StateAwaitingPayment {
		t.Errorf("state = %q", sess.State)
	}
}

// Volumes outside the offered set are accepted and priced by the formula.
// The keyboard is the only producer of volume payloads, so membership is
// not enforced here; this test pins that down as intended behaviour.
func TestOutOfSetVolumeAccepted(t *testing.T) {
	m := newTestMachine()
	// 80 GB is only offered for one-month plans
	r := driveToSummary(t, m, 42, "vmess", "3", "80")
	if !strings.Contains(r.Text, "240,000") {
		t.Errorf("summary missing 240,000:\n%s", r.Text)
	}
	sess, _ := m.store.Get(42)
	if sess.VolumeGB != 80 || sess.Price != 240000 {
		t.Errorf("session = %+v", sess)
	}
}

func TestVolumeMenuDependsOnDuration(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()
	m.Select(ctx, 42, KeyBuy, "")
	m.Select(ctx, 42, KeyLocation, "sweden")
	m.Select(ctx, 42, KeyVariant, "vmess")

	r := replyOf(t, m.Select(ctx, 42, KeyDuration, "1"))
	var labels []string
	for _, row := range r.Keyboard {
		for _, b := range row {
			if b.Key == KeyVolume {
				labels = append(labels, b.Payload)
			}
		}
	}
	if len(labels) != len(catalog.VolumesFor(1)) {
		t.Errorf("one-month volume options = %v", labels)
	}

	m.Select(ctx, 42, KeyBuy, "")
	m.Select(ctx, 42, KeyLocation, "sweden")
	m.Select(ctx, 42, KeyVariant, "vmess")
	r = replyOf(t, m.Select(ctx, 42, KeyDuration, "3"))
	labels = labels[:0]
	for _, row := range r.Keyboard {
		for _, b := range row {
			if b.Key == KeyVolume {
				labels = append(labels, b.Payload)
			}
		}
	}
	if len(labels) != len(catalog.VolumesFor(3)) {
		t.Errorf("three-month volume options = %v", labels)
	}
}

func TestOutOfOrderSelectionFailsGeneric(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()

	// volume before anything else, no session at all
	r := replyOf(t, m.Select(ctx, 42, KeyVolume, "50"))
	if r.Text != msgInternalError {
		t.Errorf("expected generic failure, got %q", r.Text)
	}
	if _, ok := m.store.Get(42); ok {
		t.Error("failed selection must not create a session")
	}

	// variant before location
	m.Select(ctx, 42, KeyBuy, "")
	r = replyOf(t, m.Select(ctx, 42, KeyVariant, "vmess"))
	if r.Text != msgInternalError {
		t.Errorf("expected generic failure, got %q", r.Text)
	}
	sess, _ := m.store.Get(42)
	if sess.Variant != "" || sess.State != StateAwaitingLocation {
		t.Errorf("failed selection mutated session: %+v", sess)
	}
}

func TestUnknownKeysFailGeneric(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()
	m.Select(ctx, 42, KeyBuy, "")

	r := replyOf(t, m.Select(ctx, 42, KeyLocation, "atlantis"))
	if r.Text != msgInternalError {
		t.Errorf("unknown region: got %q", r.Text)
	}
	r = replyOf(t, m.Select(ctx, 42, "teleport", ""))
	if r.Text != msgInternalError {
		t.Errorf("unknown key: got %q", r.Text)
	}
}

func TestPaidRequiresPrice(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()
	m.Select(ctx, 42, KeyBuy, "")

	r := replyOf(t, m.Select(ctx, 42, KeyPaid, ""))
	if r.Text != msgInternalError {
		t.Errorf("paid without price: got %q", r.Text)
	}

	driveToSummary(t, m, 42, "vless", "3", "100")
	r = replyOf(t, m.Select(ctx, 42, KeyPaid, ""))
	if r.Text != msgAwaitReceipt {
		t.Errorf("paid after summary: got %q", r.Text)
	}
	sess, _ := m.store.Get(42)
	if sess.State != StateAwaitingReceipt {
		t.Errorf("state = %q", sess.State)
	}
}

func TestReceiptWithoutSessionIsSilent(t *testing.T) {
	m := newTestMachine()
	if intents := m.SubmitReceipt(context.Background(), 42); intents != nil {
		t.Errorf("expected no intents, got %#v", intents)
	}
}

func TestReceiptForwardsToOperator(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()
	driveToSummary(t, m, 42, "vmess", "1", "30")
	m.Select(ctx, 42, KeyPaid, "")

	intents := m.SubmitReceipt(ctx, 42)
	if len(intents) != 2 {
		t.Fatalf("intents = %#v", intents)
	}
	fwd, ok := intents[0].(ForwardReceipt)
	if !ok || fwd.To != testOperator {
		t.Errorf("first intent = %#v", intents[0])
	}
	if r, ok := intents[1].(Reply); !ok || r.Text != msgReceiptAck {
		t.Errorf("second intent = %#v", intents[1])
	}
}

// Returning to the menu drops the selections but keeps the session record,
// so a receipt photo sent afterwards still reaches the operator.
func TestMainMenuKeepsSessionForReceipt(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()
	driveToSummary(t, m, 42, "vless", "3", "50")
	m.Select(ctx, 42, KeyMain, "")

	sess, ok := m.store.Get(42)
	if !ok {
		t.Fatal("session dropped by main menu")
	}
	if sess.Location != "" || sess.Price != 0 || sess.State != StateIdle {
		t.Errorf("selections not reset: %+v", sess)
	}

	if intents := m.SubmitReceipt(ctx, 42); len(intents) == 0 {
		t.Error("receipt after main menu should still forward")
	}
}

func TestInfoNotifiesOperator(t *testing.T) {
	m := newTestMachine()
	intents := m.Select(context.Background(), 42, KeyInfo, "")
	if len(intents) != 2 {
		t.Fatalf("intents = %#v", intents)
	}
	dm, ok := intents[0].(DirectMessage)
	if !ok || dm.To != testOperator || !strings.Contains(dm.Text, "42") {
		t.Errorf("first intent = %#v", intents[0])
	}
}

func TestFulfill(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()

	if intents := m.Fulfill(ctx, 12345, "/send_config 42 vless://abc"); intents != nil {
		t.Errorf("non-operator must be dropped silently, got %#v", intents)
	}

	r := replyOf(t, m.Fulfill(ctx, testOperator, "/send_config"))
	if r.Text != msgSendConfigUsage {
		t.Errorf("usage: got %q", r.Text)
	}

	r = replyOf(t, m.Fulfill(ctx, testOperator, "/send_config notanumber vless://abc"))
	if !strings.Contains(r.Text, "خطا") {
		t.Errorf("parse error: got %q", r.Text)
	}

	intents := m.Fulfill(ctx, testOperator, "/send_config 42 vless://abc extra words kept")
	if len(intents) != 2 {
		t.Fatalf("intents = %#v", intents)
	}
	dm, ok := intents[0].(DirectMessage)
	if !ok || dm.To != 42 {
		t.Fatalf("first intent = %#v", intents[0])
	}
	if !strings.Contains(dm.Text, "vless://abc extra words kept") {
		t.Errorf("payload truncated: %q", dm.Text)
	}
	if r, ok := intents[1].(Reply); !ok || r.Text != msgConfigSent {
		t.Errorf("second intent = %#v", intents[1])
	}
}

func TestConcurrentSelections(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		userID := int64(i % 4)
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Select(ctx, userID, KeyBuy, "")
			m.Select(ctx, userID, KeyLocation, "austria")
		}()
	}
	wg.Wait()

	for uid := int64(0); uid < 4; uid++ {
		sess, ok := m.store.Get(uid)
		if !ok {
			t.Fatalf("user %d has no session", uid)
		}
		if sess.State != StateAwaitingVariant && sess.State != StateAwaitingLocation {
			t.Errorf("user %d state = %q", uid, sess.State)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		950:     "950",
		60000:   "60,000",
		170000:  "170,000",
		1234567: "1,234,567",
	}
	for in, want := range cases {
		if got := formatAmount(in); got != want {
			t.Errorf("formatAmount(%d) = %q, want %q", in, got, want)
		}
	}
}
