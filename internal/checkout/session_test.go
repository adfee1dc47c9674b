package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibill/pos-backend/internal/payments"
	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

var (
	gst       = decimal.RequireFromString("0.17")
	saleStart = time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)
)

type recordingSink struct {
	mu       sync.Mutex
	receipts []pos.Receipt
	err      error
}

func (r *recordingSink) Archive(_ context.Context, receipt pos.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.receipts = append(r.receipts, receipt)
	return nil
}

type paymentObservation struct {
	method  string
	outcome string
	elapsed time.Duration
}

type recordingMetrics struct {
	mu       sync.Mutex
	payments []paymentObservation
	receipts int
}

func (r *recordingMetrics) ObservePayment(method, outcome string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, paymentObservation{method, outcome, elapsed})
}

func (r *recordingMetrics) ObserveReceipt(string, decimal.Decimal, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts++
}

func (r *recordingMetrics) outcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p.method+":"+p.outcome)
	}
	return out
}

type harness struct {
	clock   *clockwork.FakeClock
	sink    *recordingSink
	metrics *recordingMetrics
	session *Session
}

func newHarness(t *testing.T, gatewayOpts ...payments.SimulatedOption) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(saleStart)
	sink := &recordingSink{}
	metrics := &recordingMetrics{}
	gateway := payments.NewSimulatedGateway(append([]payments.SimulatedOption{payments.WithClock(clock)}, gatewayOpts...)...)

	session, err := NewSession(SessionConfig{
		TerminalID: "counter-1",
		Cashier:    "Dr. Ahmed Khan",
		TaxRate:    gst,
		Currency:   "PKR",
		Gateway:    gateway,
		Numberer:   NewMemoryNumberer("RCP"),
		Sink:       sink,
		Metrics:    metrics,
		Clock:      clock,
		LedgerOptions: []pos.Option{pos.WithAnnotator(func(pos.Product) pos.Annotation {
			return pos.Annotation{Batch: "BT001", Expiry: "Dec 2025"}
		})},
	})
	require.NoError(t, err)
	return &harness{clock: clock, sink: sink, metrics: metrics, session: session}
}

func paracetamol() pos.Product {
	return pos.Product{
		ID:           uuid.New(),
		Name:         "Paracetamol 500mg",
		Price:        decimal.NewFromInt(85),
		UnitsPerPack: 20,
		UnitType:     "tablets",
		Stock:        150,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// waitForGateway blocks until the authorization goroutine is parked on the fake clock.
func (h *harness) waitForGateway(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCashExactTenderCompletesWithZeroChange(t *testing.T) {
	h := newHarness(t)
	state, err := h.session.AddItem(paracetamol(), 10, "tablets")
	require.NoError(t, err)
	require.True(t, state.Cart.Totals.Total.Equal(dec("49.725")))

	state, err = h.session.ProcessPayment(context.Background(), dec("49.725"))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, state.PaymentStatus)
	assert.True(t, state.Change.IsZero())
	assert.Equal(t, []string{"cash:completed"}, h.metrics.outcomes())
}

func TestCashChangeIsTenderMinusTotal(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.AddItem(paracetamol(), 10, "tablets")
	require.NoError(t, err)

	state, err := h.session.ProcessPayment(context.Background(), dec("100"))
	require.NoError(t, err)
	assert.True(t, state.Change.Equal(dec("50.275")), "change %s", state.Change)
	assert.True(t, state.Tendered.Equal(dec("100")))
}

func TestCashBelowTotalFailsUntilRetried(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.AddItem(paracetamol(), 10, "tablets")
	require.NoError(t, err)

	state, err := h.session.ProcessPayment(context.Background(), dec("49.72"))
	require.ErrorIs(t, err, ErrInsufficientPayment)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientPayment))
	assert.Equal(t, enums.PaymentStatusFailed, state.PaymentStatus)
	assert.Equal(t, []string{"cash:insufficient"}, h.metrics.outcomes())

	_, err = h.session.ProcessPayment(context.Background(), dec("60"))
	require.ErrorIs(t, err, ErrInvalidState)

	state, err = h.session.RetryPayment()
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, state.PaymentStatus)
	assert.Empty(t, state.FailureReason)

	state, err = h.session.ProcessPayment(context.Background(), dec("60"))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, state.PaymentStatus)
}

func TestProcessPaymentRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.ProcessPayment(context.Background(), dec("10"))
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, enums.PaymentStatusPending, h.session.State().PaymentStatus)
}

func TestRetryOnlyFromFailed(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.RetryPayment()
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCardCompletesOnlyAfterDelay(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.AddItem(paracetamol(), 10, "tablets")
	require.NoError(t, err)
	_, err = h.session.SelectPaymentMethod(enums.PaymentMethodCard)
	require.NoError(t, err)

	state, err := h.session.ProcessPayment(context.Background(), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusProcessing, state.PaymentStatus)

	h.waitForGateway(t)

	_, err = h.session.ProcessPayment(context.Background(), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = h.session.AddItem(paracetamol(), 1, "tablets")
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = h.session.SelectPaymentMethod(enums.PaymentMethodCash)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = h.session.GenerateReceipt(context.Background())
	require.ErrorIs(t, err, ErrInvalidState)

	h.clock.Advance(time.Second)
	assert.Equal(t, enums.PaymentStatusProcessing, h.session.State().PaymentStatus)

	h.clock.Advance(time.Second)
	state, err = h.session.AwaitPayment(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, state.PaymentStatus)
	require.NotNil(t, state.Authorization)
	assert.Equal(t, enums.PaymentMethodCard, state.Authorization.Method)
	assert.True(t, state.Tendered.Equal(state.Cart.Totals.Total))
	assert.Equal(t, []string{"card:completed"}, h.metrics.outcomes())
	assert.Equal(t, 2*time.Second, h.metrics.payments[0].elapsed)
}

func TestMobileDeclineFails(t *testing.T) {
	h := newHarness(t, payments.WithDecider(payments.DeclineAbove(dec("10"))))
	_, err := h.session.AddItem(paracetamol(), 10, "tablets")
	require.NoError(t, err)
	_, err = h.session.SelectPaymentMethod(enums.PaymentMethodMobile)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), decimal.Zero)
	require.NoError(t, err)

	h.waitForGateway(t)
	h.clock.Advance(payments.DefaultDelay)

	state, err := h.session.AwaitPayment(awaitCtx(t))
	require.ErrorIs(t, err, ErrPaymentFailed)
	require.ErrorIs(t, err, payments.ErrDeclined)
	assert.Equal(t, enums.PaymentStatusFailed, state.PaymentStatus)
	assert.Equal(t, []string{"mobile:declined"}, h.metrics.outcomes())

	_, err = h.session.SelectPaymentMethod(enums.PaymentMethodCash)
	require.NoError(t, err)
	_, err = h.session.RetryPayment()
	require.NoError(t, err)
	state, err = h.session.ProcessPayment(context.Background(), dec("50"))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, state.PaymentStatus)
}

func TestCancelPaymentYieldsFailed(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.AddItem(paracetamol(), 1, pos.UnitPack)
	require.NoError(t, err)
	_, err = h.session.SelectPaymentMethod(enums.PaymentMethodCard)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), decimal.Zero)
	require.NoError(t, err)
	h.waitForGateway(t)

	state, err := h.session.CancelPayment(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, state.PaymentStatus)
	assert.Equal(t, "payment cancelled", state.FailureReason)

	_, err = h.session.AwaitPayment(awaitCtx(t))
	require.ErrorIs(t, err, ErrPaymentFailed)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"card:cancelled"}, h.metrics.outcomes())

	_, err = h.session.CancelPayment(awaitCtx(t))
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAwaitWithoutInflightReturnsState(t *testing.T) {
	h := newHarness(t)
	state, err := h.session.AwaitPayment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, state.PaymentStatus)
}

func TestAwaitHonorsContext(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.AddItem(paracetamol(), 1, pos.UnitPack)
	require.NoError(t, err)
	_, err = h.session.SelectPaymentMethod(enums.PaymentMethodCard)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), decimal.Zero)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err := h.session.AwaitPayment(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, enums.PaymentStatusProcessing, state.PaymentStatus)
	h.session.Abandon()
}

func TestGenerateReceiptRequiresCompleted(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.AddItem(paracetamol(), 2, "tablets")
	require.NoError(t, err)

	_, err = h.session.GenerateReceipt(context.Background())
	require.ErrorIs(t, err, ErrInvalidState)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, h.sink.receipts)
}

func TestGenerateReceiptSnapshotsAndResets(t *testing.T) {
	h := newHarness(t)
	customer := &pos.CustomerRef{ID: uuid.New(), Name: "Ahmad Khan", Phone: "+92 300 1234567"}
	_, err := h.session.SelectCustomer(customer)
	require.NoError(t, err)
	state, err := h.session.AddItem(paracetamol(), 10, "tablets")
	require.NoError(t, err)
	cart := state.Cart
	_, err = h.session.ProcessPayment(context.Background(), dec("100"))
	require.NoError(t, err)

	receipt, err := h.session.GenerateReceipt(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "RCP-20250115-001", receipt.Number)
	assert.Equal(t, saleStart, receipt.IssuedAt)
	assert.True(t, receipt.Subtotal.Equal(cart.Totals.Subtotal))
	assert.True(t, receipt.Tax.Equal(cart.Totals.Tax))
	assert.True(t, receipt.Total.Equal(cart.Totals.Total))
	assert.Equal(t, cart.Items, receipt.Items)
	assert.Equal(t, enums.PaymentStatusCompleted, receipt.PaymentStatus)
	assert.True(t, receipt.Change.Equal(dec("50.275")))
	assert.Equal(t, "Ahmad Khan", receipt.Customer.Name)
	assert.Equal(t, "Dr. Ahmed Khan", receipt.Cashier)
	assert.Equal(t, "PKR", receipt.Currency)

	require.Len(t, h.sink.receipts, 1)
	assert.Equal(t, receipt.Number, h.sink.receipts[0].Number)
	assert.Equal(t, 1, h.metrics.receipts)

	after := h.session.State()
	assert.Empty(t, after.Cart.Items)
	assert.Nil(t, after.Customer)
	assert.Equal(t, enums.PaymentMethodCash, after.PaymentMethod)
	assert.Equal(t, enums.PaymentStatusPending, after.PaymentStatus)
	assert.True(t, after.Tendered.IsZero())

	_, err = h.session.AddItem(paracetamol(), 1, pos.UnitPack)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), dec("100"))
	require.NoError(t, err)
	next, err := h.session.GenerateReceipt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RCP-20250115-002", next.Number)
}

func TestGenerateReceiptNumbersByUTCDay(t *testing.T) {
	h := newHarness(t)
	karachi := time.FixedZone("PKT", 5*60*60)
	// 02:00 on the 16th in Karachi is still the 15th in UTC.
	h.clock = clockwork.NewFakeClockAt(time.Date(2025, time.January, 16, 2, 0, 0, 0, karachi))
	h.session.cfg.Clock = h.clock

	_, err := h.session.AddItem(paracetamol(), 1, pos.UnitPack)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), dec("100"))
	require.NoError(t, err)

	receipt, err := h.session.GenerateReceipt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, receipt.IssuedAt.Location())
	assert.Equal(t, "RCP-"+receipt.IssuedAt.Format("20060102")+"-001", receipt.Number)
	assert.Equal(t, "RCP-20250115-001", receipt.Number)
}

func TestGenerateReceiptKeepsSessionWhenArchiveFails(t *testing.T) {
	h := newHarness(t)
	h.sink.err = errors.New("db down")
	_, err := h.session.AddItem(paracetamol(), 1, pos.UnitPack)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), dec("200"))
	require.NoError(t, err)

	_, err = h.session.GenerateReceipt(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	state := h.session.State()
	assert.Equal(t, enums.PaymentStatusCompleted, state.PaymentStatus)
	assert.Len(t, state.Cart.Items, 1)

	h.sink.err = nil
	_, err = h.session.GenerateReceipt(context.Background())
	require.NoError(t, err)
}

func TestCartFrozenOnceCompleted(t *testing.T) {
	h := newHarness(t)
	state, err := h.session.AddItem(paracetamol(), 1, pos.UnitPack)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), dec("200"))
	require.NoError(t, err)

	_, err = h.session.UpdateQuantity(state.Cart.Items[0].ID, 3)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = h.session.RemoveItem(state.Cart.Items[0].ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAbandonDiscardsInflightPayment(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.AddItem(paracetamol(), 1, pos.UnitPack)
	require.NoError(t, err)
	_, err = h.session.SelectPaymentMethod(enums.PaymentMethodCard)
	require.NoError(t, err)
	_, err = h.session.ProcessPayment(context.Background(), decimal.Zero)
	require.NoError(t, err)
	h.waitForGateway(t)

	h.session.Abandon()
	h.clock.Advance(payments.DefaultDelay)

	state := h.session.State()
	assert.Equal(t, enums.PaymentStatusPending, state.PaymentStatus)
	assert.Empty(t, state.Cart.Items)
	assert.Empty(t, h.metrics.outcomes())
}

func TestSelectPaymentMethodRejectsUnknown(t *testing.T) {
	h := newHarness(t)
	_, err := h.session.SelectPaymentMethod(enums.PaymentMethod("cheque"))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestNewSessionRequiresCollaborators(t *testing.T) {
	_, err := NewSession(SessionConfig{Numberer: NewMemoryNumberer("")})
	require.Error(t, err)
	_, err = NewSession(SessionConfig{Gateway: payments.NewSimulatedGateway()})
	require.Error(t, err)
}
