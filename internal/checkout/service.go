package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/internal/payments"
	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
)

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (pos.Product, error)
}

type customerLoader interface {
	GetCustomerRef(ctx context.Context, id uuid.UUID) (pos.CustomerRef, error)
}

type handoffConsumer interface {
	Offer(ctx context.Context, terminalID string, customerID uuid.UUID) error
	Consume(ctx context.Context, terminalID string) (uuid.UUID, bool, error)
}

// Service keeps the open checkout sessions, one per terminal.
type Service interface {
	Open(ctx context.Context, input OpenInput) (State, error)
	Get(ctx context.Context, sessionID uuid.UUID) (State, error)
	Close(ctx context.Context, sessionID uuid.UUID) error
	AddItem(ctx context.Context, sessionID uuid.UUID, input AddItemInput) (State, error)
	UpdateItem(ctx context.Context, sessionID, lineID uuid.UUID, quantity int) (State, error)
	RemoveItem(ctx context.Context, sessionID, lineID uuid.UUID) (State, error)
	SelectCustomer(ctx context.Context, sessionID uuid.UUID, customerID *uuid.UUID) (State, error)
	SelectPaymentMethod(ctx context.Context, sessionID uuid.UUID, method enums.PaymentMethod) (State, error)
	ProcessPayment(ctx context.Context, sessionID uuid.UUID, tendered decimal.Decimal) (State, error)
	AwaitPayment(ctx context.Context, sessionID uuid.UUID) (State, error)
	CancelPayment(ctx context.Context, sessionID uuid.UUID) (State, error)
	RetryPayment(ctx context.Context, sessionID uuid.UUID) (State, error)
	GenerateReceipt(ctx context.Context, sessionID uuid.UUID) (pos.Receipt, error)
}

// OpenInput identifies the terminal and the cashier signing in to it.
type OpenInput struct {
	TerminalID string
	Cashier    string
}

type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Unit      string
}

// ServiceConfig wires the registry. Products, Customers, Gateway and Numberer
// are required.
type ServiceConfig struct {
	Products       productLoader
	Customers      customerLoader
	Handoff        handoffConsumer
	Gateway        payments.Gateway
	Numberer       ReceiptNumberer
	Sink           ReceiptSink
	Metrics        Recorder
	Logger         *logger.Logger
	Clock          clockwork.Clock
	TaxRate        decimal.Decimal
	Currency       string
	DefaultCashier string
	LedgerOptions  []pos.Option
}

type service struct {
	cfg ServiceConfig

	mu         sync.Mutex
	sessions   map[uuid.UUID]*Session
	byTerminal map[string]uuid.UUID
}

func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if cfg.Customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cfg.Numberer == nil {
		return nil, fmt.Errorf("receipt numberer required")
	}
	if cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &service{
		cfg:        cfg,
		sessions:   map[uuid.UUID]*Session{},
		byTerminal: map[string]uuid.UUID{},
	}, nil
}

// Open starts a session on a terminal, abandoning any session the terminal
// still had. A customer handed off to the terminal is attached and consumed.
func (s *service) Open(ctx context.Context, input OpenInput) (State, error) {
	terminal := strings.TrimSpace(input.TerminalID)
	if terminal == "" {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}
	cashier := strings.TrimSpace(input.Cashier)
	if cashier == "" {
		cashier = s.cfg.DefaultCashier
	}

	session, err := NewSession(SessionConfig{
		TerminalID:    terminal,
		Cashier:       cashier,
		TaxRate:       s.cfg.TaxRate,
		Currency:      s.cfg.Currency,
		Gateway:       s.cfg.Gateway,
		Numberer:      s.cfg.Numberer,
		Sink:          s.cfg.Sink,
		Metrics:       s.cfg.Metrics,
		Logger:        s.cfg.Logger,
		Clock:         s.cfg.Clock,
		LedgerOptions: s.cfg.LedgerOptions,
	})
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not open checkout session")
	}

	if s.cfg.Handoff != nil {
		customerID, ok, err := s.cfg.Handoff.Consume(ctx, terminal)
		if err != nil {
			return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not read customer handoff")
		}
		if ok {
			ref, err := s.cfg.Customers.GetCustomerRef(ctx, customerID)
			switch {
			case err == nil:
				if _, err := session.SelectCustomer(&ref); err != nil {
					return State{}, err
				}
			case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
				// The customer vanished between selection and checkout; start without one.
				s.cfg.Logger.Warn(s.cfg.Logger.WithField(ctx, "customer_id", customerID.String()), "checkout.handoff.customer_missing")
			default:
				// Put the selection back so a retry on this terminal still attaches it.
				if offerErr := s.cfg.Handoff.Offer(ctx, terminal, customerID); offerErr != nil {
					s.cfg.Logger.Error(s.cfg.Logger.WithField(ctx, "customer_id", customerID.String()), "checkout.handoff.reoffer_failed", offerErr)
				}
				return State{}, err
			}
		}
	}

	s.mu.Lock()
	var previous *Session
	if prevID, ok := s.byTerminal[terminal]; ok {
		previous = s.sessions[prevID]
		delete(s.sessions, prevID)
	}
	s.sessions[session.ID()] = session
	s.byTerminal[terminal] = session.ID()
	s.mu.Unlock()

	logCtx := s.cfg.Logger.WithSessionID(s.cfg.Logger.WithTerminalID(ctx, terminal), session.ID().String())
	if previous != nil {
		previous.Abandon()
		s.cfg.Logger.Info(s.cfg.Logger.WithField(logCtx, "previous_session_id", previous.ID().String()), "checkout.session.replaced")
	}
	s.cfg.Logger.Info(logCtx, "checkout.session.opened")
	return session.State(), nil
}

func (s *service) Get(_ context.Context, sessionID uuid.UUID) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.State(), nil
}

// Close abandons the session and forgets it.
func (s *service) Close(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
		if s.byTerminal[session.TerminalID()] == sessionID {
			delete(s.byTerminal, session.TerminalID())
		}
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Abandon()
	s.cfg.Logger.Info(s.cfg.Logger.WithSessionID(ctx, sessionID.String()), "checkout.session.closed")
	return nil
}

func (s *service) AddItem(ctx context.Context, sessionID uuid.UUID, input AddItemInput) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	product, err := s.cfg.Products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return State{}, err
	}
	return session.AddItem(product, input.Quantity, input.Unit)
}

func (s *service) UpdateItem(_ context.Context, sessionID, lineID uuid.UUID, quantity int) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.UpdateQuantity(lineID, quantity)
}

func (s *service) RemoveItem(_ context.Context, sessionID, lineID uuid.UUID) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.RemoveItem(lineID)
}

// SelectCustomer attaches the customer by id; nil detaches.
func (s *service) SelectCustomer(ctx context.Context, sessionID uuid.UUID, customerID *uuid.UUID) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	if customerID == nil {
		return session.SelectCustomer(nil)
	}
	ref, err := s.cfg.Customers.GetCustomerRef(ctx, *customerID)
	if err != nil {
		return State{}, err
	}
	return session.SelectCustomer(&ref)
}

func (s *service) SelectPaymentMethod(_ context.Context, sessionID uuid.UUID, method enums.PaymentMethod) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.SelectPaymentMethod(method)
}

func (s *service) ProcessPayment(ctx context.Context, sessionID uuid.UUID, tendered decimal.Decimal) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.ProcessPayment(ctx, tendered)
}

func (s *service) AwaitPayment(ctx context.Context, sessionID uuid.UUID) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.AwaitPayment(ctx)
}

func (s *service) CancelPayment(ctx context.Context, sessionID uuid.UUID) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.CancelPayment(ctx)
}

func (s *service) RetryPayment(_ context.Context, sessionID uuid.UUID) (State, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return State{}, err
	}
	return session.RetryPayment()
}

func (s *service) GenerateReceipt(ctx context.Context, sessionID uuid.UUID) (pos.Receipt, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return pos.Receipt{}, err
	}
	return session.GenerateReceipt(ctx)
}

func (s *service) lookup(sessionID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
