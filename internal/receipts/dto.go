package receipts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/enums"
	"github.com/medibill/pos-backend/pkg/pagination"
)

// ListParams narrows an archive listing. From is inclusive, To exclusive.
type ListParams struct {
	From       *time.Time
	To         *time.Time
	CustomerID *uuid.UUID
	pagination.Params
}

type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

// ListItem summarizes one archived sale.
type ListItem struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"receipt_number"`
	IssuedAt      time.Time           `json:"issued_at"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CustomerID    *uuid.UUID          `json:"customer_id,omitempty"`
	CustomerName  string              `json:"customer_name,omitempty"`
	Cashier       string              `json:"cashier"`
	Lines         int                 `json:"lines"`
	Units         int                 `json:"units"`
}

func toModel(r pos.Receipt) *models.Receipt {
	row := &models.Receipt{
		ID:            r.ID,
		Number:        r.Number,
		IssuedAt:      r.IssuedAt.UTC(),
		Subtotal:      r.Subtotal,
		TaxRate:       r.TaxRate,
		Tax:           r.Tax,
		Total:         r.Total,
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
		Tendered:      r.Tendered,
		ChangeDue:     r.Change,
		Cashier:       r.Cashier,
		Currency:      r.Currency,
		Lines:         make([]models.ReceiptLine, 0, len(r.Items)),
	}
	if r.Customer != nil {
		id := r.Customer.ID
		row.CustomerID = &id
		row.CustomerName = r.Customer.Name
		row.CustomerPhone = r.Customer.Phone
	}
	for i, item := range r.Items {
		row.Lines = append(row.Lines, models.ReceiptLine{
			ID:           item.ID,
			ReceiptID:    r.ID,
			Position:     i,
			ProductID:    item.ProductID,
			Name:         item.Name,
			PackPrice:    item.PackPrice,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    item.UnitPrice,
			TotalPrice:   item.TotalPrice,
			Batch:        item.Batch,
			Expiry:       item.Expiry,
			Instructions: item.Instructions,
		})
	}
	return row
}

// fromModel rebuilds the receipt. Customer email and address are not archived.
func fromModel(row *models.Receipt) pos.Receipt {
	receipt := pos.Receipt{
		ID:            row.ID,
		Number:        row.Number,
		IssuedAt:      row.IssuedAt.UTC(),
		Items:         make([]pos.LineItem, 0, len(row.Lines)),
		Subtotal:      row.Subtotal,
		TaxRate:       row.TaxRate,
		Tax:           row.Tax,
		Total:         row.Total,
		PaymentMethod: row.PaymentMethod,
		PaymentStatus: row.PaymentStatus,
		Tendered:      row.Tendered,
		Change:        row.ChangeDue,
		Cashier:       row.Cashier,
		Currency:      row.Currency,
	}
	if row.CustomerID != nil {
		receipt.Customer = &pos.CustomerRef{ID: *row.CustomerID, Name: row.CustomerName, Phone: row.CustomerPhone}
	}
	for _, line := range row.Lines {
		receipt.Items = append(receipt.Items, pos.LineItem{
			ID:           line.ID,
			ProductID:    line.ProductID,
			Name:         line.Name,
			PackPrice:    line.PackPrice,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
			UnitPrice:    line.UnitPrice,
			TotalPrice:   line.TotalPrice,
			Batch:        line.Batch,
			Expiry:       line.Expiry,
			Instructions: line.Instructions,
		})
	}
	return receipt
}

func toListItem(row models.Receipt) ListItem {
	units := 0
	for _, line := range row.Lines {
		units += line.Quantity
	}
	return ListItem{
		ID:            row.ID,
		Number:        row.Number,
		IssuedAt:      row.IssuedAt.UTC(),
		Total:         row.Total,
		PaymentMethod: row.PaymentMethod,
		CustomerID:    row.CustomerID,
		CustomerName:  row.CustomerName,
		Cashier:       row.Cashier,
		Lines:         len(row.Lines),
		Units:         units,
	}
}
