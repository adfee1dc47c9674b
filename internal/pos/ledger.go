// Package pos implements the cart ledger of a counter sale: line items,
// derived totals and the receipt snapshot taken when the sale is paid.
package pos

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity caps the quantity of a single line.
const MaxQuantity = 10000

// LineItem is one product+unit+quantity row of a cart.
// TotalPrice always equals UnitPrice × Quantity and Quantity is always ≥ 1.
type LineItem struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	PackPrice    decimal.Decimal `json:"pack_price"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Batch        string          `json:"batch"`
	Expiry       string          `json:"expiry,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
}

// Totals are derived from the line items on demand and never stored.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Cart is a read-only snapshot of the ledger.
type Cart struct {
	Items  []LineItem `json:"items"`
	Totals Totals     `json:"totals"`
}

// ItemCount is the number of lines, not the number of units.
func (c Cart) ItemCount() int {
	return len(c.Items)
}

// Ledger owns the line items of one in-progress sale. Tax is applied once to
// the subtotal and nothing is rounded here.
//
// A Ledger is not safe for concurrent use; the checkout session serializes access.
type Ledger struct {
	taxRate  decimal.Decimal
	items    []LineItem
	annotate Annotator
	newID    func() uuid.UUID
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithAnnotator replaces the batch/expiry annotator.
func WithAnnotator(a Annotator) Option {
	return func(l *Ledger) {
		if a != nil {
			l.annotate = a
		}
	}
}

// WithIDGenerator replaces the line item id generator.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(l *Ledger) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// NewLedger returns an empty ledger applying taxRate (a fraction, 0.17 == 17%).
func NewLedger(taxRate decimal.Decimal, opts ...Option) (*Ledger, error) {
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative, got %s", taxRate)
	}
	l := &Ledger{
		taxRate:  taxRate,
		annotate: DefaultAnnotator,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// AddItem adds quantity units of product. A line with the same product name and
// unit absorbs the quantity; otherwise a new line is appended. Product stock is
// not touched.
func (l *Ledger) AddItem(product Product, quantity int, unit string) (Cart, error) {
	if quantity <= 0 || quantity > MaxQuantity {
		return Cart{}, ErrInvalidQuantity
	}
	if err := product.validate(); err != nil {
		return Cart{}, err
	}
	if !product.SupportsUnit(unit) {
		return Cart{}, ErrUnsupportedUnit
	}

	if idx := l.indexOfMatch(product.Name, unit); idx >= 0 {
		merged := l.items[idx].Quantity + quantity
		if merged > MaxQuantity {
			return Cart{}, ErrInvalidQuantity
		}
		l.setQuantity(idx, merged)
		return l.Snapshot(), nil
	}

	unitPrice := product.UnitPrice(unit)
	annotation := l.annotate(product)
	l.items = append(l.items, LineItem{
		ID:           l.newID(),
		ProductID:    product.ID,
		Name:         product.Name,
		PackPrice:    product.Price,
		Quantity:     quantity,
		Unit:         unit,
		UnitPrice:    unitPrice,
		TotalPrice:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Batch:        annotation.Batch,
		Expiry:       annotation.Expiry,
		Instructions: instructionsFor(unit, quantity),
	})
	return l.Snapshot(), nil
}

// UpdateQuantity sets the quantity of a line. A quantity ≤ 0 removes the line.
func (l *Ledger) UpdateQuantity(id uuid.UUID, quantity int) (Cart, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return Cart{}, ErrLineItemNotFound
	}
	if quantity <= 0 {
		l.items = slices.Delete(l.items, idx, idx+1)
		return l.Snapshot(), nil
	}
	if quantity > MaxQuantity {
		return Cart{}, ErrInvalidQuantity
	}
	l.setQuantity(idx, quantity)
	return l.Snapshot(), nil
}

// RemoveItem drops a line. Same as UpdateQuantity(id, 0).
func (l *Ledger) RemoveItem(id uuid.UUID) (Cart, error) {
	return l.UpdateQuantity(id, 0)
}

// Totals recomputes subtotal, tax and total from the current lines.
func (l *Ledger) Totals() Totals {
	subtotal := decimal.Zero
	for _, item := range l.items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	tax := subtotal.Mul(l.taxRate)
	return Totals{
		Subtotal: subtotal,
		TaxRate:  l.taxRate,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Snapshot copies the lines and totals.
func (l *Ledger) Snapshot() Cart {
	return Cart{
		Items:  slices.Clone(l.items),
		Totals: l.Totals(),
	}
}

func (l *Ledger) Len() int {
	return len(l.items)
}

func (l *Ledger) IsEmpty() bool {
	return len(l.items) == 0
}

// TaxRate returns the rate the ledger applies to the subtotal.
func (l *Ledger) TaxRate() decimal.Decimal {
	return l.taxRate
}

// Reset empties the ledger for the next sale.
func (l *Ledger) Reset() {
	l.items = nil
}

func (l *Ledger) setQuantity(idx, quantity int) {
	item := &l.items[idx]
	item.Quantity = quantity
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func (l *Ledger) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(l.items, func(item LineItem) bool { return item.ID == id })
}

func (l *Ledger) indexOfMatch(name, unit string) int {
	return slices.IndexFunc(l.items, func(item LineItem) bool {
		return item.Name == name && item.Unit == unit
	})
}
