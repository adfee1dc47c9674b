// Package catalog is the read side of the pharmacy's product list plus the
// inventory screen's add/remove operations. Sales never change stock.
package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/db/models"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

const (
	defaultMinStock     = 10
	defaultUnitType     = "tablets"
	defaultUnitsPerPack = 10
	barcodeDigits       = 13
)

var ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

type productRepository interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes the catalog to the POS and inventory screens.
type Service interface {
	Search(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (pos.Product, error)
	Categories(ctx context.Context) ([]string, error)
	InventorySummary(ctx context.Context) (InventorySummary, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo productRepository
}

func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Search(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(row)
	return &dto, nil
}

// GetProduct loads the ledger's view of a product.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (pos.Product, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return pos.Product{}, err
	}
	return ToPOSProduct(row), nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

// InventorySummary counts low stock the way the shelf screen does: anything at
// or below its minimum, empty shelves included.
func (s *service) InventorySummary(ctx context.Context) (InventorySummary, error) {
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return InventorySummary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	summary := InventorySummary{StockValue: decimal.Zero}
	categories := map[string]struct{}{}
	for _, row := range rows {
		summary.TotalProducts++
		if row.Stock <= row.MinStock {
			summary.LowStock++
		}
		if row.Stock <= 0 {
			summary.OutOfStock++
		}
		summary.StockValue = summary.StockValue.Add(row.Price.Mul(decimal.NewFromInt(int64(row.Stock))))
		categories[row.Category] = struct{}{}
	}
	summary.Categories = len(categories)
	return summary, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	row, err := newProductModel(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		if db.IsUniqueViolation(err, "barcode") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return ErrProductNotFound
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return row, nil
}

func newProductModel(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	if name == "" || category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and category are required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 || input.MinStock < 0 || input.UnitsPerPack < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock, minimum stock and pack size must not be negative")
	}

	row := &models.Product{
		Name:                 name,
		Category:             category,
		Description:          strings.TrimSpace(input.Description),
		Price:                input.Price,
		UnitsPerPack:         input.UnitsPerPack,
		UnitType:             strings.TrimSpace(input.UnitType),
		RequiresPrescription: input.RequiresPrescription,
		Stock:                input.Stock,
		MinStock:             input.MinStock,
		Batch:                strings.TrimSpace(input.Batch),
		Supplier:             strings.TrimSpace(input.Supplier),
		Barcode:              strings.TrimSpace(input.Barcode),
		ExpiryDate:           input.ExpiryDate,
	}
	if row.MinStock == 0 {
		row.MinStock = defaultMinStock
	}
	if row.UnitsPerPack == 0 {
		row.UnitsPerPack = defaultUnitsPerPack
	}
	if row.UnitType == "" {
		row.UnitType = defaultUnitType
	}
	if row.UnitType == pos.UnitPack {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit type must name the unit inside a pack")
	}
	if row.Batch == "" {
		row.Batch = fmt.Sprintf("BT%03d", rand.IntN(1000))
	}
	if row.Barcode == "" {
		row.Barcode = fmt.Sprintf("%0*d", barcodeDigits, rand.Int64N(10_000_000_000_000))
	}
	return row, nil
}
