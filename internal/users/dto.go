package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// UserDTO is a user as the API shows it; the password hash never leaves
// the package.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	BusinessID  *uuid.UUID `json:"business_id,omitempty"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
	Username    string     `json:"username"`
	Role        enums.Role `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewUser is the repository input for an account insert.
type NewUser struct {
	BusinessID   *uuid.UUID
	BranchID     *uuid.UUID
	Username     string
	PasswordHash string
	Role         enums.Role
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		BusinessID:  u.BusinessID,
		BranchID:    u.BranchID,
		Username:    u.Username,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// Model builds the row to insert. New accounts start active.
func (n NewUser) Model() *models.User {
	return &models.User{
		BusinessID:   n.BusinessID,
		BranchID:     n.BranchID,
		Username:     n.Username,
		PasswordHash: n.PasswordHash,
		Role:         n.Role,
		IsActive:     true,
	}
}

// CreateUserInput is what a business admin submits to add a branch user.
type CreateUserInput struct {
	Username string
	Password string
	Role     enums.Role
	BranchID uuid.UUID
}

// CreatedUser carries the new user plus the generated password, when one
// was generated.
type CreatedUser struct {
	User         *UserDTO `json:"user"`
	TempPassword string   `json:"temp_password,omitempty"`
}
