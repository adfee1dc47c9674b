package pos

import pkgerrors "github.com/medibill/pos-backend/pkg/errors"

// Sentinel errors returned by the ledger. They are never mutated, so callers
// may compare with errors.Is.
var (
	ErrInvalidQuantity  = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	ErrUnsupportedUnit  = pkgerrors.New(pkgerrors.CodeValidation, "unit is not sold for this product")
	ErrInvalidProduct   = pkgerrors.New(pkgerrors.CodeValidation, "product has no valid price or pack size")
	ErrLineItemNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
)
