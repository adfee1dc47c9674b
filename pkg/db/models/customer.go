package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer is a pharmacy customer. Sales never update these rows.
type Customer struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Phone          string          `gorm:"column:phone;not null;index"`
	Email          string          `gorm:"column:email;not null;default:''"`
	Address        string          `gorm:"column:address;not null;default:''"`
	TotalPurchases decimal.Decimal `gorm:"column:total_purchases;type:numeric(20,10);not null"`
	LoyaltyPoints  int             `gorm:"column:loyalty_points;not null"`
	IsVIP          bool            `gorm:"column:is_vip;not null"`
	LastVisit      *time.Time      `gorm:"column:last_visit"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
