package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/medibill/pos-backend/api/responses"
	"github.com/medibill/pos-backend/api/validators"
	"github.com/medibill/pos-backend/internal/catalog"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/money"
)

const maxSearchLen = 100

// CatalogSearch lists products for the POS grid and the inventory table.
func CatalogSearch(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		q := r.URL.Query()
		products, err := svc.Search(r.Context(), catalog.ListFilter{
			Query:    validators.SanitizeString(q.Get("q"), maxSearchLen),
			Category: validators.SanitizeString(q.Get("category"), maxSearchLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func InventorySummary(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		summary, err := svc.InventorySummary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// InventoryCreateProduct adds a catalog entry from the inventory screen.
func InventoryCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func InventoryDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type createProductRequest struct {
	Name                 string `json:"name" validate:"required,max=200"`
	Category             string `json:"category" validate:"required,max=100"`
	Price                string `json:"price" validate:"required"`
	Stock                int    `json:"stock" validate:"min=0"`
	MinStock             int    `json:"min_stock" validate:"min=0"`
	Batch                string `json:"batch" validate:"max=50"`
	ExpiryDate           string `json:"expiry_date"`
	Supplier             string `json:"supplier" validate:"max=200"`
	Barcode              string `json:"barcode" validate:"max=64"`
	UnitType             string `json:"unit_type" validate:"max=50"`
	UnitsPerPack         int    `json:"units_per_pack" validate:"min=0"`
	RequiresPrescription bool   `json:"requires_prescription"`
	Description          string `json:"description" validate:"max=1000"`
}

func (p createProductRequest) toInput() (catalog.CreateProductInput, error) {
	price, err := money.Parse(p.Price)
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	var expiry *time.Time
	if raw := strings.TrimSpace(p.ExpiryDate); raw != "" {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expiry_date")
		}
		expiry = &day
	}
	return catalog.CreateProductInput{
		Name:                 strings.TrimSpace(p.Name),
		Category:             strings.TrimSpace(p.Category),
		Price:                price,
		Stock:                p.Stock,
		MinStock:             p.MinStock,
		Batch:                strings.TrimSpace(p.Batch),
		ExpiryDate:           expiry,
		Supplier:             strings.TrimSpace(p.Supplier),
		Barcode:              strings.TrimSpace(p.Barcode),
		UnitType:             strings.TrimSpace(p.UnitType),
		UnitsPerPack:         p.UnitsPerPack,
		RequiresPrescription: p.RequiresPrescription,
		Description:          strings.TrimSpace(p.Description),
	}, nil
}
