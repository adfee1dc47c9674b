// Package users manages staff accounts for the admin user management screen.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/medibill/pos-backend/pkg/config"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/db/models"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/security"
)

const tempPasswordLength = 12

var validate = validator.New()

var ErrUserExists = pkgerrors.New(pkgerrors.CodeConflict, "username or email already in use")

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	List(ctx context.Context, filter ListFilter) ([]models.User, error)
}

type Service interface {
	List(ctx context.Context, filter ListFilter) ([]UserDTO, error)
	Create(ctx context.Context, input CreateUserInput) (*CreatedUser, error)
}

type service struct {
	repo     userRepository
	password config.PasswordConfig
}

func NewService(repo userRepository, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, password: password}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*CreatedUser, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.DisplayName)
	branch := strings.TrimSpace(input.Branch)
	if name == "" || email == "" || branch == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, email and branch are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown role %q", input.Role))
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	result := &CreatedUser{}
	password := input.Password
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		password = generated
		result.TempPassword = generated
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	row, err := s.repo.Create(ctx, CreateUserDTO{
		Username:     username,
		DisplayName:  name,
		Email:        email,
		Branch:       branch,
		Role:         input.Role,
		PasswordHash: hash,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrUserExists
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	result.User = FromModel(row)
	return result, nil
}
