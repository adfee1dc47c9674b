package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/enums"
)

// Repository aggregates over the receipts archive.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type totalsRow struct {
	Receipts int64
	Revenue  decimal.Decimal
	Tax      decimal.Decimal
	Subtotal decimal.Decimal
}

type methodRow struct {
	PaymentMethod enums.PaymentMethod
	Receipts      int64
	Revenue       decimal.Decimal
}

type productRow struct {
	ProductID uuid.UUID
	Name      string
	Unit      string
	Quantity  int64
	Revenue   decimal.Decimal
}

func (r *Repository) window(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Receipt{}).
		Where("receipts.issued_at >= ? AND receipts.issued_at < ?", from, to)
}

func (r *Repository) Totals(ctx context.Context, from, to time.Time) (totalsRow, error) {
	var row totalsRow
	err := r.window(ctx, from, to).
		Select(`COUNT(*) AS receipts,
			COALESCE(SUM(total), 0) AS revenue,
			COALESCE(SUM(tax), 0) AS tax,
			COALESCE(SUM(subtotal), 0) AS subtotal`).
		Scan(&row).Error
	return row, err
}

func (r *Repository) ByMethod(ctx context.Context, from, to time.Time) ([]methodRow, error) {
	var rows []methodRow
	err := r.window(ctx, from, to).
		Select("payment_method, COUNT(*) AS receipts, COALESCE(SUM(total), 0) AS revenue").
		Group("payment_method").
		Order("payment_method ASC").
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks product+unit pairs by quantity sold, revenue breaking ties.
func (r *Repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]productRow, error) {
	var rows []productRow
	err := r.window(ctx, from, to).
		Joins("JOIN receipt_lines ON receipt_lines.receipt_id = receipts.id").
		Select(`receipt_lines.product_id AS product_id,
			receipt_lines.name AS name,
			receipt_lines.unit AS unit,
			SUM(receipt_lines.quantity) AS quantity,
			COALESCE(SUM(receipt_lines.total_price), 0) AS revenue`).
		Group("receipt_lines.product_id, receipt_lines.name, receipt_lines.unit").
		Order("quantity DESC").
		Order("revenue DESC").
		Order("name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
