package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. Price is per pack.
type Product struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string          `gorm:"column:name;not null"`
	Barcode              string          `gorm:"column:barcode;not null;uniqueIndex"`
	Category             string          `gorm:"column:category;not null;index"`
	Description          string          `gorm:"column:description;not null;default:''"`
	Price                decimal.Decimal `gorm:"column:price;type:numeric(20,10);not null"`
	UnitsPerPack         int             `gorm:"column:units_per_pack;not null"`
	UnitType             string          `gorm:"column:unit_type;not null"`
	RequiresPrescription bool            `gorm:"column:requires_prescription;not null"`
	Stock                int             `gorm:"column:stock;not null"`
	MinStock             int             `gorm:"column:min_stock;not null"`
	Batch                string          `gorm:"column:batch;not null;default:''"`
	Supplier             string          `gorm:"column:supplier;not null;default:''"`
	ExpiryDate           *time.Time      `gorm:"column:expiry_date"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
