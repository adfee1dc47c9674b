package pos

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/pkg/enums"
)

// CustomerRef is the weak customer reference carried by a cart and copied onto
// the receipt. The ledger never changes customer data.
type CustomerRef struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Email   string    `json:"email,omitempty"`
	Address string    `json:"address,omitempty"`
}

// Receipt is the record of a completed sale. It is built once from a cart
// snapshot and owns its own copy of the lines.
type Receipt struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"receipt_number"`
	IssuedAt      time.Time           `json:"issued_at"`
	Items         []LineItem          `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	TaxRate       decimal.Decimal     `json:"tax_rate"`
	Tax           decimal.Decimal     `json:"tax"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Tendered      decimal.Decimal     `json:"tendered"`
	Change        decimal.Decimal     `json:"change"`
	Customer      *CustomerRef        `json:"customer,omitempty"`
	Cashier       string              `json:"cashier"`
	Currency      string              `json:"currency"`
}

// ReceiptDetails is everything on a receipt that does not come from the cart.
type ReceiptDetails struct {
	ID            uuid.UUID
	Number        string
	IssuedAt      time.Time
	PaymentMethod enums.PaymentMethod
	PaymentStatus enums.PaymentStatus
	Tendered      decimal.Decimal
	Change        decimal.Decimal
	Customer      *CustomerRef
	Cashier       string
	Currency      string
}

// IssueReceipt freezes cart into a Receipt.
func IssueReceipt(cart Cart, details ReceiptDetails) Receipt {
	id := details.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	var customer *CustomerRef
	if details.Customer != nil {
		c := *details.Customer
		customer = &c
	}
	return Receipt{
		ID:            id,
		Number:        details.Number,
		IssuedAt:      details.IssuedAt,
		Items:         slices.Clone(cart.Items),
		Subtotal:      cart.Totals.Subtotal,
		TaxRate:       cart.Totals.TaxRate,
		Tax:           cart.Totals.Tax,
		Total:         cart.Totals.Total,
		PaymentMethod: details.PaymentMethod,
		PaymentStatus: details.PaymentStatus,
		Tendered:      details.Tendered,
		Change:        details.Change,
		Customer:      customer,
		Cashier:       details.Cashier,
		Currency:      details.Currency,
	}
}

// UnitsSold sums quantities across lines.
func (r Receipt) UnitsSold() int {
	n := 0
	for _, item := range r.Items {
		n += item.Quantity
	}
	return n
}
