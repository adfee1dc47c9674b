// Package payments authorizes card and mobile payments. The only gateway is a
// simulation that waits a configurable delay on an injectable clock.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

// DefaultDelay matches the counter terminal's processing time.
const DefaultDelay = 2 * time.Second

var (
	ErrDeclined          = pkgerrors.New(pkgerrors.CodePaymentFailed, "payment declined")
	ErrUnsupportedMethod = pkgerrors.New(pkgerrors.CodeValidation, "payment method is not authorized through the gateway")
)

// Request is a single authorization attempt.
type Request struct {
	Method    enums.PaymentMethod
	Amount    decimal.Decimal
	Reference string
}

// Authorization is the gateway's approval.
type Authorization struct {
	Code         string              `json:"code"`
	Method       enums.PaymentMethod `json:"method"`
	Amount       decimal.Decimal     `json:"amount"`
	AuthorizedAt time.Time           `json:"authorized_at"`
}

// Gateway authorizes card/mobile payments. Authorize blocks until the gateway
// answers or ctx is done.
type Gateway interface {
	Authorize(ctx context.Context, req Request) (Authorization, error)
}

// Decider approves (nil) or declines a request once the delay has elapsed.
type Decider func(Request) error

// ApproveAll never declines.
func ApproveAll(Request) error { return nil }

// DeclineAbove declines requests whose amount is strictly above ceiling.
func DeclineAbove(ceiling decimal.Decimal) Decider {
	return func(req Request) error {
		if req.Amount.GreaterThan(ceiling) {
			return ErrDeclined
		}
		return nil
	}
}

// SimulatedGateway stands in for a card terminal / mobile wallet.
type SimulatedGateway struct {
	clock  clockwork.Clock
	delays map[enums.PaymentMethod]time.Duration
	decide Decider
}

// SimulatedOption customizes a SimulatedGateway.
type SimulatedOption func(*SimulatedGateway)

func WithClock(clock clockwork.Clock) SimulatedOption {
	return func(g *SimulatedGateway) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithDelay sets the processing delay for method. Zero answers immediately.
func WithDelay(method enums.PaymentMethod, delay time.Duration) SimulatedOption {
	return func(g *SimulatedGateway) {
		if delay >= 0 {
			g.delays[method] = delay
		}
	}
}

func WithDecider(decide Decider) SimulatedOption {
	return func(g *SimulatedGateway) {
		if decide != nil {
			g.decide = decide
		}
	}
}

// NewSimulatedGateway builds a gateway approving everything after DefaultDelay
// on the real clock unless options say otherwise.
func NewSimulatedGateway(opts ...SimulatedOption) *SimulatedGateway {
	g := &SimulatedGateway{
		clock: clockwork.NewRealClock(),
		delays: map[enums.PaymentMethod]time.Duration{
			enums.PaymentMethodCard:   DefaultDelay,
			enums.PaymentMethodMobile: DefaultDelay,
		},
		decide: ApproveAll,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize waits out the method's delay and then asks the decider.
func (g *SimulatedGateway) Authorize(ctx context.Context, req Request) (Authorization, error) {
	if !req.Method.IsAsync() {
		return Authorization{}, ErrUnsupportedMethod
	}
	if req.Amount.IsNegative() {
		return Authorization{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	if delay := g.delays[req.Method]; delay > 0 {
		timer := g.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Authorization{}, ctx.Err()
		case <-timer.Chan():
		}
	}
	if err := ctx.Err(); err != nil {
		return Authorization{}, err
	}

	if err := g.decide(req); err != nil {
		return Authorization{}, err
	}
	return Authorization{
		Code:         authorizationCode(req.Method),
		Method:       req.Method,
		Amount:       req.Amount,
		AuthorizedAt: g.clock.Now().UTC(),
	}, nil
}

func authorizationCode(method enums.PaymentMethod) string {
	short := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("%s-%s", strings.ToUpper(method.String()), short)
}
