package checkout

import pkgerrors "github.com/medibill/pos-backend/pkg/errors"

var (
	ErrInvalidState        = pkgerrors.New(pkgerrors.CodeStateConflict, "operation not allowed in the current payment state")
	ErrInsufficientPayment = pkgerrors.New(pkgerrors.CodeInsufficientPayment, "tendered amount is below the total")
	ErrPaymentFailed       = pkgerrors.New(pkgerrors.CodePaymentFailed, "payment failed")
	ErrEmptyCart           = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	ErrSessionNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
)

func invalidState(op string, status any) error {
	return ErrInvalidState.WithDetailsCopy(map[string]any{
		"operation": op,
		"status":    status,
	})
}
