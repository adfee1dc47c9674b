package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medibill/pos-backend/api/middleware"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func actorUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// parseTimeQuery accepts RFC3339 timestamps or plain dates. A plain date used
// as an upper bound covers that whole day.
func parseTimeQuery(r *http.Request, key string, upper bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
			WithDetails(map[string]any{"field": key, "expected": "YYYY-MM-DD or RFC3339"})
	}
	if upper {
		day = day.AddDate(0, 0, 1)
	}
	return &day, nil
}

// terminalID reads the terminal a request comes from; the header wins over
// the body value.
func terminalID(r *http.Request, fromBody string) string {
	if header := strings.TrimSpace(r.Header.Get("X-Terminal-Id")); header != "" {
		return header
	}
	return strings.TrimSpace(fromBody)
}
