package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/api/middleware"
	"github.com/medibill/pos-backend/api/responses"
	"github.com/medibill/pos-backend/api/validators"
	"github.com/medibill/pos-backend/internal/checkout"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/money"
)

type openSessionRequest struct {
	TerminalID string `json:"terminal_id" validate:"max=64"`
	Cashier    string `json:"cashier" validate:"max=200"`
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1,max=10000"`
	Unit      string `json:"unit" validate:"required,max=50"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=10000"`
}

type selectSessionCustomerRequest struct {
	CustomerID *string `json:"customer_id" validate:"omitempty,uuid"`
}

type paymentMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

type paymentRequest struct {
	Tendered string `json:"tendered"`
}

// CheckoutOpen starts a sale on the caller's terminal. The cashier defaults
// to the signed-in username.
func CheckoutOpen(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload openSessionRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cashier := strings.TrimSpace(payload.Cashier)
		if cashier == "" {
			cashier = middleware.UsernameFromContext(r.Context())
		}
		state, err := svc.Open(r.Context(), checkout.OpenInput{
			TerminalID: terminalID(r, payload.TerminalID),
			Cashier:    cashier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, state)
	}
}

func CheckoutGet(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		state, err := svc.Get(r.Context(), sessionID)
		writeState(w, r, logg, state, err)
	})
}

func CheckoutClose(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		if err := svc.Close(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	})
}

func CheckoutAddItem(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
			return
		}
		state, err := svc.AddItem(r.Context(), sessionID, checkout.AddItemInput{
			ProductID: productID,
			Quantity:  payload.Quantity,
			Unit:      strings.TrimSpace(payload.Unit),
		})
		writeState(w, r, logg, state, err)
	})
}

// CheckoutUpdateItem sets a line's quantity; zero or less removes the line.
func CheckoutUpdateItem(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.UpdateItem(r.Context(), sessionID, itemID, *payload.Quantity)
		writeState(w, r, logg, state, err)
	})
}

func CheckoutRemoveItem(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.RemoveItem(r.Context(), sessionID, itemID)
		writeState(w, r, logg, state, err)
	})
}

// CheckoutSelectCustomer attaches a customer; a null customer_id detaches.
func CheckoutSelectCustomer(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		var payload selectSessionCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var customerID *uuid.UUID
		if payload.CustomerID != nil {
			id, err := uuid.Parse(*payload.CustomerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id"))
				return
			}
			customerID = &id
		}
		state, err := svc.SelectCustomer(r.Context(), sessionID, customerID)
		writeState(w, r, logg, state, err)
	})
}

func CheckoutSelectPaymentMethod(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		var payload paymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		state, err := svc.SelectPaymentMethod(r.Context(), sessionID, method)
		writeState(w, r, logg, state, err)
	})
}

// CheckoutProcessPayment settles cash at once and answers 202 while a card
// or mobile authorization is in flight.
func CheckoutProcessPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tendered := decimal.Zero
		if raw := strings.TrimSpace(payload.Tendered); raw != "" {
			amount, err := money.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tendered amount"))
				return
			}
			tendered = amount
		}
		state, err := svc.ProcessPayment(r.Context(), sessionID, tendered)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if state.PaymentStatus == enums.PaymentStatusProcessing {
			responses.WriteSuccessStatus(w, http.StatusAccepted, state)
			return
		}
		responses.WriteSuccess(w, state)
	})
}

// CheckoutAwaitPayment blocks until the in-flight authorization settles or
// the client goes away.
func CheckoutAwaitPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		state, err := svc.AwaitPayment(r.Context(), sessionID)
		writeState(w, r, logg, state, err)
	})
}

func CheckoutCancelPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		state, err := svc.CancelPayment(r.Context(), sessionID)
		writeState(w, r, logg, state, err)
	})
}

func CheckoutRetryPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		state, err := svc.RetryPayment(r.Context(), sessionID)
		writeState(w, r, logg, state, err)
	})
}

func CheckoutGenerateReceipt(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
		receipt, err := svc.GenerateReceipt(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID)

func withSession(svc checkout.Service, logg *logger.Logger, fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sessionID, err := parseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, sessionID.String())
		}
		fn(w, r.WithContext(ctx), sessionID)
	}
}

func writeState(w http.ResponseWriter, r *http.Request, logg *logger.Logger, state checkout.State, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, state)
}
