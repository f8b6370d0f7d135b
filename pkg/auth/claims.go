package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// AccessTokenPayload is the identity baked into a new access token. JTI
// links the token to its refresh session; an empty JTI gets a fresh UUID.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	BusinessID *uuid.UUID
	BranchID   *uuid.UUID
	Role       enums.Role
	JTI        string
}

type AccessTokenClaims struct {
	UserID     uuid.UUID  `json:"user_id"`
	BusinessID *uuid.UUID `json:"business_id,omitempty"`
	BranchID   *uuid.UUID `json:"branch_id,omitempty"`
	Role       enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered-claim checks when a token is parsed.
func (c AccessTokenClaims) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("token has no user")
	}
	return checkScope(c.Role, c.BranchID)
}

func checkScope(role enums.Role, branchID *uuid.UUID) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q", role)
	}
	if role.BranchRestricted() && branchID == nil {
		return fmt.Errorf("role %q requires a branch", role)
	}
	return nil
}
