package customers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/enums"
)

// Repository persists the customer directory.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListQuery is a resolved directory filter. RecentSince is only read for the
// recent filter.
type ListQuery struct {
	Search      string
	Filter      enums.CustomerFilter
	RecentSince time.Time
}

// List matches name and email case-insensitively and phone as typed.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).Model(&models.Customer{})

	if term := strings.TrimSpace(query.Search); term != "" {
		lowered := likePattern(strings.ToLower(term))
		raw := likePattern(term)
		q = q.Where(
			"LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR phone LIKE ? ESCAPE '\\'",
			lowered, lowered, raw,
		)
	}

	switch query.Filter {
	case enums.CustomerFilterVIP:
		q = q.Where("is_vip = ?", true)
	case enums.CustomerFilterRegular:
		q = q.Where("is_vip = ?", false)
	case enums.CustomerFilterRecent:
		q = q.Where("last_visit IS NOT NULL AND last_visit >= ?", query.RecentSince)
	}

	var customers []models.Customer
	if err := q.Order("name ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// Stats aggregates the directory header figures.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var row struct {
		Total          int64
		VIP            int64 `gorm:"column:vip"`
		LoyaltyPoints  int64
		TotalPurchases decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_vip THEN 1 ELSE 0 END), 0) AS vip,
			COALESCE(SUM(loyalty_points), 0) AS loyalty_points,
			COALESCE(SUM(total_purchases), 0) AS total_purchases`).
		Scan(&row).Error
	if err != nil {
		return Stats{}, err
	}
	return newStats(row.Total, row.VIP, row.LoyaltyPoints, row.TotalPurchases), nil
}

func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
