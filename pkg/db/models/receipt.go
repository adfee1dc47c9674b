package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medibill/pos-backend/pkg/enums"
)

// Receipt is the archived copy of an issued receipt. Rows are insert-only.
type Receipt struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number        string              `gorm:"column:number;not null;uniqueIndex"`
	IssuedAt      time.Time           `gorm:"column:issued_at;not null;index"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(20,10);not null"`
	TaxRate       decimal.Decimal     `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	Tax           decimal.Decimal     `gorm:"column:tax;type:numeric(20,10);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(20,10);not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	Tendered      decimal.Decimal     `gorm:"column:tendered;type:numeric(20,10);not null"`
	ChangeDue     decimal.Decimal     `gorm:"column:change_due;type:numeric(20,10);not null"`
	CustomerID    *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	CustomerName  string              `gorm:"column:customer_name;not null;default:''"`
	CustomerPhone string              `gorm:"column:customer_phone;not null;default:''"`
	Cashier       string              `gorm:"column:cashier;not null"`
	Currency      string              `gorm:"column:currency;not null"`
	Lines         []ReceiptLine       `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// ReceiptLine is one line of an archived receipt, in cart order.
type ReceiptLine struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ReceiptID    uuid.UUID       `gorm:"column:receipt_id;type:uuid;not null;index"`
	Position     int             `gorm:"column:position;not null"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	PackPrice    decimal.Decimal `gorm:"column:pack_price;type:numeric(20,10);not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Unit         string          `gorm:"column:unit;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(20,10);not null"`
	TotalPrice   decimal.Decimal `gorm:"column:total_price;type:numeric(20,10);not null"`
	Batch        string          `gorm:"column:batch;not null;default:''"`
	Expiry       string          `gorm:"column:expiry;not null;default:''"`
	Instructions string          `gorm:"column:instructions;not null;default:''"`
}

func (r *Receipt) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (l *ReceiptLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
