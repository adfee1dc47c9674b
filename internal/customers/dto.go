package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/db/models"
)

// CustomerDTO is the directory's transport shape.
type CustomerDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	LoyaltyPoints  int             `json:"loyalty_points"`
	IsVIP          bool            `json:"is_vip"`
	LastVisit      *time.Time      `json:"last_visit,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Stats are the figures above the directory.
type Stats struct {
	TotalCustomers  int64           `json:"total_customers"`
	VIPCustomers    int64           `json:"vip_customers"`
	LoyaltyPoints   int64           `json:"loyalty_points"`
	AveragePurchase decimal.Decimal `json:"average_purchase"`
}

type CreateCustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func newStats(total, vip, points int64, purchases decimal.Decimal) Stats {
	stats := Stats{
		TotalCustomers:  total,
		VIPCustomers:    vip,
		LoyaltyPoints:   points,
		AveragePurchase: decimal.Zero,
	}
	if total > 0 {
		stats.AveragePurchase = purchases.Div(decimal.NewFromInt(total))
	}
	return stats
}

func FromModel(m *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:             m.ID,
		Name:           m.Name,
		Phone:          m.Phone,
		Email:          m.Email,
		Address:        m.Address,
		TotalPurchases: m.TotalPurchases,
		LoyaltyPoints:  m.LoyaltyPoints,
		IsVIP:          m.IsVIP,
		LastVisit:      m.LastVisit,
		CreatedAt:      m.CreatedAt,
	}
}

// ToRef is the weak reference a cart carries.
func ToRef(m *models.Customer) pos.CustomerRef {
	return pos.CustomerRef{
		ID:      m.ID,
		Name:    m.Name,
		Phone:   m.Phone,
		Email:   m.Email,
		Address: m.Address,
	}
}
