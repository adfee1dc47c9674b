package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/medibill/pos-backend/pkg/access"
	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID           `json:"id"`
	Username    string              `json:"username"`
	DisplayName string              `json:"display_name"`
	Email       string              `json:"email"`
	Branch      string              `json:"branch"`
	Role        enums.Role          `json:"role"`
	Permissions []access.Permission `json:"permissions"`
	IsActive    bool                `json:"is_active"`
	LastLoginAt *time.Time          `json:"last_login_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	DisplayName  string
	Email        string
	Branch       string
	Role         enums.Role
	PasswordHash string
	IsActive     *bool
}

// CreateUserInput is what an admin submits from the user management screen.
// An empty Username is taken from the email local part; an empty Password is
// replaced by a generated one returned once.
type CreateUserInput struct {
	Username    string
	DisplayName string
	Email       string
	Branch      string
	Role        enums.Role
	Password    string
}

// CreatedUser carries the generated password, if any, alongside the user.
type CreatedUser struct {
	User         *UserDTO `json:"user"`
	TempPassword string   `json:"temp_password,omitempty"`
}

// ListFilter narrows the staff list. Branch "all" or empty means every branch.
type ListFilter struct {
	Search string
	Branch string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Branch:      u.Branch,
		Role:        u.Role,
		Permissions: access.Permissions(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	return &models.User{
		Username:     c.Username,
		DisplayName:  c.DisplayName,
		Email:        c.Email,
		Branch:       c.Branch,
		Role:         c.Role,
		PasswordHash: c.PasswordHash,
		IsActive:     isActive,
	}
}
