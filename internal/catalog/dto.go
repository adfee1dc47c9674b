package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/enums"
)

// AllCategories is the category filter value that disables filtering.
const AllCategories = "all"

// ProductDTO is the catalog's transport shape.
type ProductDTO struct {
	ID                   uuid.UUID         `json:"id"`
	Name                 string            `json:"name"`
	Barcode              string            `json:"barcode"`
	Category             string            `json:"category"`
	Description          string            `json:"description,omitempty"`
	Price                decimal.Decimal   `json:"price"`
	UnitPrice            decimal.Decimal   `json:"unit_price"`
	UnitsPerPack         int               `json:"units_per_pack"`
	UnitType             string            `json:"unit_type"`
	Units                []string          `json:"units"`
	RequiresPrescription bool              `json:"requires_prescription"`
	Stock                int               `json:"stock"`
	MinStock             int               `json:"min_stock"`
	StockStatus          enums.StockStatus `json:"stock_status"`
	Batch                string            `json:"batch"`
	Supplier             string            `json:"supplier,omitempty"`
	ExpiryDate           *time.Time        `json:"expiry_date,omitempty"`
}

// InventorySummary is the header of the inventory screen.
type InventorySummary struct {
	TotalProducts int             `json:"total_products"`
	LowStock      int             `json:"low_stock"`
	OutOfStock    int             `json:"out_of_stock"`
	StockValue    decimal.Decimal `json:"stock_value"`
	Categories    int             `json:"categories"`
}

// CreateProductInput is a new catalog entry. Zero values get the inventory
// screen defaults.
type CreateProductInput struct {
	Name                 string
	Category             string
	Price                decimal.Decimal
	Stock                int
	MinStock             int
	Batch                string
	ExpiryDate           *time.Time
	Supplier             string
	Barcode              string
	UnitType             string
	UnitsPerPack         int
	RequiresPrescription bool
	Description          string
}

// StockStatusOf classifies a shelf: out when empty, low at or under the minimum.
func StockStatusOf(stock, minStock int) enums.StockStatus {
	switch {
	case stock <= 0:
		return enums.StockStatusOut
	case stock <= minStock:
		return enums.StockStatusLow
	default:
		return enums.StockStatusGood
	}
}

// ToPOSProduct is the read-only view the cart ledger prices from.
func ToPOSProduct(m *models.Product) pos.Product {
	return pos.Product{
		ID:                   m.ID,
		Name:                 m.Name,
		Price:                m.Price,
		UnitsPerPack:         m.UnitsPerPack,
		UnitType:             m.UnitType,
		Category:             m.Category,
		RequiresPrescription: m.RequiresPrescription,
		Stock:                m.Stock,
		Batch:                m.Batch,
		Expiry:               m.ExpiryDate,
	}
}

func FromModel(m *models.Product) ProductDTO {
	p := ToPOSProduct(m)
	return ProductDTO{
		ID:                   m.ID,
		Name:                 m.Name,
		Barcode:              m.Barcode,
		Category:             m.Category,
		Description:          m.Description,
		Price:                m.Price,
		UnitPrice:            p.UnitPrice(m.UnitType),
		UnitsPerPack:         m.UnitsPerPack,
		UnitType:             m.UnitType,
		Units:                []string{m.UnitType, pos.UnitPack},
		RequiresPrescription: m.RequiresPrescription,
		Stock:                m.Stock,
		MinStock:             m.MinStock,
		StockStatus:          StockStatusOf(m.Stock, m.MinStock),
		Batch:                m.Batch,
		Supplier:             m.Supplier,
		ExpiryDate:           m.ExpiryDate,
	}
}
