package receipts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/pagination"
)

// Repository stores archived receipts. Rows are never updated.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type listQuery struct {
	from       *time.Time
	to         *time.Time
	customerID *uuid.UUID
	limit      int
	cursor     *pagination.Cursor
}

// Create inserts the receipt and its lines in one transaction.
func (r *Repository) Create(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(receipt).Error
	})
}

func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("number = ?", number).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// List returns receipts newest first, keyset-paginated on (issued_at, id).
// Lines are loaded so listings can report unit counts.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Receipt, error) {
	query := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })

	if opts.from != nil {
		query = query.Where("issued_at >= ?", *opts.from)
	}
	if opts.to != nil {
		query = query.Where("issued_at < ?", *opts.to)
	}
	if opts.customerID != nil {
		query = query.Where("customer_id = ?", *opts.customerID)
	}
	if opts.cursor != nil {
		query = query.Where("(issued_at < ?) OR (issued_at = ? AND id < ?)", opts.cursor.At, opts.cursor.At, opts.cursor.ID)
	}

	var rows []models.Receipt
	if err := query.Order("issued_at DESC").Order("id DESC").Limit(opts.limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
