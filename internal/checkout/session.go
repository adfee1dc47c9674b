// Package checkout runs counter sales: a session owns one cart ledger, the
// selected customer and the payment state machine, and issues the receipt.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/internal/payments"
	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
)

const (
	OutcomeCompleted    = "completed"
	OutcomeInsufficient = "insufficient"
	OutcomeDeclined     = "declined"
	OutcomeCancelled    = "cancelled"
)

// ReceiptSink receives every receipt a session issues.
type ReceiptSink interface {
	Archive(ctx context.Context, receipt pos.Receipt) error
}

// Recorder observes payment outcomes and issued receipts.
type Recorder interface {
	ObservePayment(method, outcome string, elapsed time.Duration)
	ObserveReceipt(method string, total decimal.Decimal, lines int)
}

// State is a point-in-time view of a session.
type State struct {
	SessionID     uuid.UUID               `json:"session_id"`
	TerminalID    string                  `json:"terminal_id"`
	Cashier       string                  `json:"cashier"`
	Currency      string                  `json:"currency"`
	Cart          pos.Cart                `json:"cart"`
	Customer      *pos.CustomerRef        `json:"customer,omitempty"`
	PaymentMethod enums.PaymentMethod     `json:"payment_method"`
	PaymentStatus enums.PaymentStatus     `json:"payment_status"`
	Tendered      decimal.Decimal         `json:"tendered"`
	Change        decimal.Decimal         `json:"change"`
	FailureReason string                  `json:"failure_reason,omitempty"`
	Authorization *payments.Authorization `json:"authorization,omitempty"`
}

// SessionConfig wires a session. Gateway and Numberer are required.
type SessionConfig struct {
	TerminalID    string
	Cashier       string
	TaxRate       decimal.Decimal
	Currency      string
	Gateway       payments.Gateway
	Numberer      ReceiptNumberer
	Sink          ReceiptSink
	Metrics       Recorder
	Logger        *logger.Logger
	Clock         clockwork.Clock
	LedgerOptions []pos.Option
}

// Session is one terminal's in-progress sale. All methods are safe for
// concurrent use; the card/mobile authorization runs on its own goroutine.
type Session struct {
	id  uuid.UUID
	cfg SessionConfig

	mu       sync.Mutex
	ledger   *pos.Ledger
	customer *pos.CustomerRef
	method   enums.PaymentMethod
	status   enums.PaymentStatus
	tendered decimal.Decimal
	change   decimal.Decimal
	failure  error
	auth     *payments.Authorization
	inflight *attempt
}

type attempt struct {
	method  enums.PaymentMethod
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cfg.Numberer == nil {
		return nil, fmt.Errorf("receipt numberer required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	ledger, err := pos.NewLedger(cfg.TaxRate, cfg.LedgerOptions...)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:     uuid.New(),
		cfg:    cfg,
		ledger: ledger,
		method: enums.PaymentMethodCash,
		status: enums.PaymentStatusPending,
	}, nil
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) TerminalID() string {
	return s.cfg.TerminalID
}

// State returns the current view.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// AddItem adds units of product to the cart.
func (s *Session) AddItem(product pos.Product, quantity int, unit string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditableLocked("add_item"); err != nil {
		return State{}, err
	}
	if _, err := s.ledger.AddItem(product, quantity, unit); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

// UpdateQuantity changes a line's quantity; quantity <= 0 removes it.
func (s *Session) UpdateQuantity(lineID uuid.UUID, quantity int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditableLocked("update_item"); err != nil {
		return State{}, err
	}
	if _, err := s.ledger.UpdateQuantity(lineID, quantity); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

func (s *Session) RemoveItem(lineID uuid.UUID) (State, error) {
	return s.UpdateQuantity(lineID, 0)
}

// SelectCustomer attaches (or with nil, detaches) the customer reference.
func (s *Session) SelectCustomer(customer *pos.CustomerRef) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == enums.PaymentStatusProcessing {
		return State{}, invalidState("select_customer", s.status)
	}
	s.customer = copyCustomer(customer)
	return s.stateLocked(), nil
}

// SelectPaymentMethod switches between cash, card and mobile. A failed
// attempt keeps its status; call RetryPayment to go back to pending.
func (s *Session) SelectPaymentMethod(method enums.PaymentMethod) (State, error) {
	if !method.IsValid() {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", method))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditableLocked("select_payment_method"); err != nil {
		return State{}, err
	}
	s.method = method
	return s.stateLocked(), nil
}

// ProcessPayment settles the cart with the selected method. Cash completes or
// fails synchronously; card and mobile return with status processing while the
// gateway answers in the background.
func (s *Session) ProcessPayment(ctx context.Context, tendered decimal.Decimal) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != enums.PaymentStatusPending {
		return s.stateLocked(), invalidState("process_payment", s.status)
	}
	if s.ledger.IsEmpty() {
		return s.stateLocked(), ErrEmptyCart
	}
	total := s.ledger.Totals().Total

	if !s.method.IsAsync() {
		return s.settleCashLocked(ctx, tendered, total)
	}

	attemptCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a := &attempt{
		method:  s.method,
		cancel:  cancel,
		done:    make(chan struct{}),
		started: s.cfg.Clock.Now(),
	}
	s.inflight = a
	s.status = enums.PaymentStatusProcessing
	s.tendered = total
	s.change = decimal.Zero
	s.failure = nil
	s.auth = nil

	req := payments.Request{Method: s.method, Amount: total, Reference: s.id.String()}
	go s.authorize(attemptCtx, a, req)

	s.cfg.Logger.Info(s.logContext(ctx), "checkout.payment.processing")
	return s.stateLocked(), nil
}

func (s *Session) settleCashLocked(ctx context.Context, tendered, total decimal.Decimal) (State, error) {
	if tendered.IsNegative() {
		return s.stateLocked(), pkgerrors.New(pkgerrors.CodeValidation, "tendered amount must not be negative")
	}
	s.tendered = tendered
	if tendered.LessThan(total) {
		s.status = enums.PaymentStatusFailed
		s.change = decimal.Zero
		s.failure = ErrInsufficientPayment.WithDetailsCopy(map[string]any{
			"total":    total.String(),
			"tendered": tendered.String(),
			"short_by": total.Sub(tendered).String(),
		})
		s.observePayment(OutcomeInsufficient, 0)
		s.cfg.Logger.Warn(s.logContext(ctx), "checkout.payment.insufficient")
		return s.stateLocked(), s.failure
	}
	s.status = enums.PaymentStatusCompleted
	s.change = tendered.Sub(total)
	s.failure = nil
	s.observePayment(OutcomeCompleted, 0)
	s.cfg.Logger.Info(s.logContext(ctx), "checkout.payment.completed")
	return s.stateLocked(), nil
}

func (s *Session) authorize(ctx context.Context, a *attempt, req payments.Request) {
	auth, err := s.cfg.Gateway.Authorize(ctx, req)
	a.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(a.done)

	// The session was reset while the gateway was busy.
	if s.inflight != a {
		return
	}
	s.inflight = nil
	elapsed := s.cfg.Clock.Since(a.started)

	if err != nil {
		outcome := OutcomeDeclined
		reason := err.Error()
		if errors.Is(err, context.Canceled) {
			outcome = OutcomeCancelled
			reason = "payment cancelled"
		}
		s.status = enums.PaymentStatusFailed
		s.failure = pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, ErrPaymentFailed.Message()).WithDetails(map[string]any{
			"method": a.method,
			"reason": reason,
		})
		s.observePayment(outcome, elapsed)
		s.cfg.Logger.Warn(s.logContext(ctx), "checkout.payment."+outcome)
		return
	}

	s.status = enums.PaymentStatusCompleted
	s.auth = &auth
	s.observePayment(OutcomeCompleted, elapsed)
	s.cfg.Logger.Info(s.logContext(ctx), "checkout.payment.completed")
}

// AwaitPayment blocks until the in-flight authorization finishes or ctx is
// done. It returns the payment failure, if the attempt failed.
func (s *Session) AwaitPayment(ctx context.Context) (State, error) {
	s.mu.Lock()
	a := s.inflight
	s.mu.Unlock()

	if a != nil {
		select {
		case <-a.done:
		case <-ctx.Done():
			return s.State(), ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == enums.PaymentStatusFailed {
		return s.stateLocked(), s.failure
	}
	return s.stateLocked(), nil
}

// CancelPayment aborts the in-flight authorization and waits for the session
// to record the failure.
func (s *Session) CancelPayment(ctx context.Context) (State, error) {
	s.mu.Lock()
	a := s.inflight
	status := s.status
	s.mu.Unlock()

	if a == nil {
		return s.State(), invalidState("cancel_payment", status)
	}
	a.cancel()

	select {
	case <-a.done:
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
	return s.State(), nil
}

// RetryPayment moves a failed attempt back to pending.
func (s *Session) RetryPayment() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != enums.PaymentStatusFailed {
		return s.stateLocked(), invalidState("retry_payment", s.status)
	}
	s.status = enums.PaymentStatusPending
	s.tendered = decimal.Zero
	s.change = decimal.Zero
	s.failure = nil
	s.auth = nil
	return s.stateLocked(), nil
}

// GenerateReceipt freezes a paid cart into a receipt, hands it to the sink and
// starts the next sale. If the sink fails the session is left untouched so the
// receipt can be generated again.
func (s *Session) GenerateReceipt(ctx context.Context) (pos.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != enums.PaymentStatusCompleted {
		return pos.Receipt{}, invalidState("generate_receipt", s.status)
	}

	issuedAt := s.cfg.Clock.Now().UTC()
	number, err := s.cfg.Numberer.Next(ctx, issuedAt)
	if err != nil {
		return pos.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not allocate receipt number")
	}

	receipt := pos.IssueReceipt(s.ledger.Snapshot(), pos.ReceiptDetails{
		Number:        number,
		IssuedAt:      issuedAt,
		PaymentMethod: s.method,
		PaymentStatus: s.status,
		Tendered:      s.tendered,
		Change:        s.change,
		Customer:      s.customer,
		Cashier:       s.cfg.Cashier,
		Currency:      s.cfg.Currency,
	})

	if s.cfg.Sink != nil {
		if err := s.cfg.Sink.Archive(ctx, receipt); err != nil {
			return pos.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not archive receipt")
		}
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveReceipt(receipt.PaymentMethod.String(), receipt.Total, len(receipt.Items))
	}
	logCtx := s.cfg.Logger.WithFields(s.logContext(ctx), map[string]any{
		"receipt_number": receipt.Number,
		"total":          receipt.Total.String(),
	})
	s.cfg.Logger.Info(logCtx, "checkout.receipt.issued")

	s.resetLocked()
	return receipt, nil
}

// Abandon drops the sale. An in-flight authorization is cancelled and its
// result discarded.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil {
		s.inflight.cancel()
	}
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.ledger.Reset()
	s.customer = nil
	s.method = enums.PaymentMethodCash
	s.status = enums.PaymentStatusPending
	s.tendered = decimal.Zero
	s.change = decimal.Zero
	s.failure = nil
	s.auth = nil
	s.inflight = nil
}

func (s *Session) ensureEditableLocked(op string) error {
	switch s.status {
	case enums.PaymentStatusProcessing, enums.PaymentStatusCompleted:
		return invalidState(op, s.status)
	}
	return nil
}

func (s *Session) stateLocked() State {
	st := State{
		SessionID:     s.id,
		TerminalID:    s.cfg.TerminalID,
		Cashier:       s.cfg.Cashier,
		Currency:      s.cfg.Currency,
		Cart:          s.ledger.Snapshot(),
		Customer:      copyCustomer(s.customer),
		PaymentMethod: s.method,
		PaymentStatus: s.status,
		Tendered:      s.tendered,
		Change:        s.change,
	}
	if s.failure != nil {
		st.FailureReason = failureReason(s.failure)
	}
	if s.auth != nil {
		auth := *s.auth
		st.Authorization = &auth
	}
	return st
}

func (s *Session) observePayment(outcome string, elapsed time.Duration) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObservePayment(s.method.String(), outcome, elapsed)
	}
}

func (s *Session) logContext(ctx context.Context) context.Context {
	ctx = s.cfg.Logger.WithSessionID(ctx, s.id.String())
	ctx = s.cfg.Logger.WithTerminalID(ctx, s.cfg.TerminalID)
	return s.cfg.Logger.WithField(ctx, "payment_method", s.method.String())
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().(map[string]any); ok {
			if reason, ok := details["reason"].(string); ok && reason != "" {
				return reason
			}
		}
		return typed.Message()
	}
	return err.Error()
}

func copyCustomer(customer *pos.CustomerRef) *pos.CustomerRef {
	if customer == nil {
		return nil
	}
	c := *customer
	return &c
}
