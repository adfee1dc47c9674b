package controllers

import (
	"net/http"

	"github.com/medibill/pos-backend/api/responses"
	"github.com/medibill/pos-backend/internal/reports"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
)

// SalesReport summarizes archived receipts in [from, to). Without dates the
// current day is reported.
func SalesReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		from, err := parseTimeQuery(r, "from", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parseTimeQuery(r, "to", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var window reports.Range
		if from != nil {
			window.From = *from
		}
		if to != nil {
			window.To = *to
		}
		summary, err := svc.Sales(r.Context(), window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
