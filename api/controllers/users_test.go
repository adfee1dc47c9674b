package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/medibill/pos-backend/internal/users"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

type stubUsers struct {
	filter  users.ListFilter
	created users.CreateUserInput
	err     error
}

func (s *stubUsers) List(_ context.Context, filter users.ListFilter) ([]users.UserDTO, error) {
	s.filter = filter
	return []users.UserDTO{}, nil
}

func (s *stubUsers) Create(_ context.Context, input users.CreateUserInput) (*users.CreatedUser, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &users.CreatedUser{
		User:         &users.UserDTO{ID: uuid.New(), Username: "sara", Role: input.Role},
		TempPassword: "generated-secret",
	}, nil
}

func TestAdminUserList(t *testing.T) {
	svc := &stubUsers{}
	rec := serve(AdminUserList(svc, nil), newRequest(t, http.MethodGet, "/?q=+khan+&branch=North%20Branch", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.filter.Search != "khan" || svc.filter.Branch != "North Branch" {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}
}

func TestAdminUserCreate(t *testing.T) {
	svc := &stubUsers{}
	rec := serve(AdminUserCreate(svc, nil), newRequest(t, http.MethodPost, "/", map[string]any{
		"name":   "Sara Ahmed",
		"email":  "sara@medibill.local",
		"branch": "Main Branch",
		"role":   " Manager ",
	}, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.Role != enums.RoleManager || svc.created.DisplayName != "Sara Ahmed" {
		t.Fatalf("unexpected create input %+v", svc.created)
	}
	var created users.CreatedUser
	decodeData(t, rec, &created)
	if created.TempPassword == "" {
		t.Fatal("expected the generated password in the response")
	}
}

func TestAdminUserCreateRejects(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		err  error
		want int
	}{
		{"unknown role", map[string]any{"name": "A", "email": "a@b.co", "branch": "Main", "role": "owner"}, nil, http.StatusBadRequest},
		{"short password", map[string]any{"name": "A", "email": "a@b.co", "branch": "Main", "role": "cashier", "password": "abc"}, nil, http.StatusBadRequest},
		{"missing email", map[string]any{"name": "A", "branch": "Main", "role": "cashier"}, nil, http.StatusBadRequest},
		{"duplicate username", map[string]any{"name": "A", "email": "a@b.co", "branch": "Main", "role": "cashier"}, pkgerrors.New(pkgerrors.CodeConflict, "username taken"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(AdminUserCreate(&stubUsers{err: tc.err}, nil), newRequest(t, http.MethodPost, "/", tc.body, nil))
			if rec.Code != tc.want {
				t.Fatalf("expected %d got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
