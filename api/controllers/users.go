package controllers

import (
	"net/http"
	"strings"

	"github.com/medibill/pos-backend/api/responses"
	"github.com/medibill/pos-backend/api/validators"
	"github.com/medibill/pos-backend/internal/users"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
)

func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		q := r.URL.Query()
		list, err := svc.List(r.Context(), users.ListFilter{
			Search: validators.SanitizeString(q.Get("q"), maxSearchLen),
			Branch: validators.SanitizeString(q.Get("branch"), maxSearchLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"max=64"`
	Branch   string `json:"branch" validate:"required,max=100"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=8,max=128"`
}

// AdminUserCreate adds a staff account. When no password is supplied the
// generated one is returned in this response only.
func AdminUserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		var payload createUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseRole(strings.ToLower(strings.TrimSpace(payload.Role)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		created, err := svc.Create(r.Context(), users.CreateUserInput{
			Username:    payload.Username,
			DisplayName: payload.Name,
			Email:       payload.Email,
			Branch:      payload.Branch,
			Role:        role,
			Password:    payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
