package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitPack sells a whole pack at the catalog price.
const UnitPack = "pack"

// unitPricePlaces bounds the precision of per-unit prices derived from a pack price.
const unitPricePlaces = 10

// Product is the catalog view the ledger prices from. The ledger never writes to it.
type Product struct {
	ID                   uuid.UUID
	Name                 string
	Price                decimal.Decimal
	UnitsPerPack         int
	UnitType             string
	Category             string
	RequiresPrescription bool
	Stock                int
	Batch                string
	Expiry               *time.Time
}

// SupportsUnit reports whether the product can be sold in unit.
func (p Product) SupportsUnit(unit string) bool {
	return unit == UnitPack || (unit != "" && unit == p.UnitType)
}

// UnitPrice is the price of one unit: the pack price for packs, otherwise
// the pack price spread over the units in a pack.
func (p Product) UnitPrice(unit string) decimal.Decimal {
	if unit == UnitPack || p.UnitsPerPack <= 1 {
		return p.Price
	}
	return p.Price.DivRound(decimal.NewFromInt(int64(p.UnitsPerPack)), unitPricePlaces)
}

func (p Product) validate() error {
	if p.Name == "" || p.Price.IsNegative() || p.UnitsPerPack < 1 {
		return ErrInvalidProduct
	}
	return nil
}
