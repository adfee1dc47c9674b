// Package reports summarizes archived sales for the manager and admin screens.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

// DefaultTopProducts is how many products a summary ranks.
const DefaultTopProducts = 5

type salesRepository interface {
	Totals(ctx context.Context, from, to time.Time) (totalsRow, error)
	ByMethod(ctx context.Context, from, to time.Time) ([]methodRow, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]productRow, error)
}

// Range is a half-open window [From, To). A zero range means the current UTC day.
type Range struct {
	From time.Time
	To   time.Time
}

type SalesSummary struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Receipts      int64           `json:"receipts"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	ByMethod      []MethodTotal   `json:"by_payment_method"`
	TopProducts   []ProductTotal  `json:"top_products"`
}

type MethodTotal struct {
	Method   enums.PaymentMethod `json:"payment_method"`
	Receipts int64               `json:"receipts"`
	Revenue  decimal.Decimal     `json:"revenue"`
}

type ProductTotal struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type Service interface {
	Sales(ctx context.Context, window Range) (*SalesSummary, error)
}

type service struct {
	repo  salesRepository
	clock clockwork.Clock
	top   int
}

func NewService(repo salesRepository, clock clockwork.Clock) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &service{repo: repo, clock: clock, top: DefaultTopProducts}, nil
}

func (s *service) Sales(ctx context.Context, window Range) (*SalesSummary, error) {
	from, to, err := s.resolve(window)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.Totals(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales totals")
	}
	methods, err := s.repo.ByMethod(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales by payment method")
	}
	products, err := s.repo.TopProducts(ctx, from, to, s.top)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top products")
	}

	summary := &SalesSummary{
		From:          from,
		To:            to,
		Receipts:      totals.Receipts,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Revenue:       totals.Revenue,
		AverageTicket: decimal.Zero,
		ByMethod:      make([]MethodTotal, 0, len(methods)),
		TopProducts:   make([]ProductTotal, 0, len(products)),
	}
	if totals.Receipts > 0 {
		summary.AverageTicket = totals.Revenue.Div(decimal.NewFromInt(totals.Receipts))
	}
	for _, m := range methods {
		summary.ByMethod = append(summary.ByMethod, MethodTotal{Method: m.PaymentMethod, Receipts: m.Receipts, Revenue: m.Revenue})
	}
	for _, p := range products {
		summary.TopProducts = append(summary.TopProducts, ProductTotal(p))
	}
	return summary, nil
}

func (s *service) resolve(window Range) (time.Time, time.Time, error) {
	from, to := window.From.UTC(), window.To.UTC()
	switch {
	case window.From.IsZero() && window.To.IsZero():
		from = s.clock.Now().UTC().Truncate(24 * time.Hour)
		to = from.Add(24 * time.Hour)
	case window.From.IsZero():
		from = to.Add(-24 * time.Hour)
	case window.To.IsZero():
		to = from.Add(24 * time.Hour)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	return from, to, nil
}
