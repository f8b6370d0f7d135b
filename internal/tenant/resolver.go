// Package tenant turns verified token claims into the actor every scoped
// operation runs as.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/auth"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

var (
	errUnknownUser   = pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
	errStaleToken    = pkgerrors.New(pkgerrors.CodeUnauthorized, "token does not match account")
	errInactiveUser  = pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	errBranchRevoked = pkgerrors.New(pkgerrors.CodeForbidden, "assigned branch is unavailable")
)

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type branchLookup interface {
	FindBranch(ctx context.Context, businessID, id uuid.UUID) (*models.Branch, error)
}

// Resolver loads the account behind a token and checks it is still allowed
// to act for the business named in the token.
type Resolver struct {
	users    userLookup
	branches branchLookup
}

func NewResolver(users userLookup, branches branchLookup) (*Resolver, error) {
	if users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if branches == nil {
		return nil, fmt.Errorf("branch lookup required")
	}
	return &Resolver{users: users, branches: branches}, nil
}

// Resolve returns the actor for claims. Role and branch come from the stored
// account so demotions and reassignments apply before the token expires.
func (r *Resolver) Resolve(ctx context.Context, claims *auth.AccessTokenClaims) (visibility.Actor, error) {
	if claims == nil || claims.UserID == uuid.Nil {
		return visibility.Actor{}, errUnknownUser
	}
	user, err := r.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return visibility.Actor{}, errUnknownUser
		}
		return visibility.Actor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return visibility.Actor{}, errInactiveUser
	}
	if !sameID(user.BusinessID, claims.BusinessID) {
		return visibility.Actor{}, errStaleToken
	}

	actor := visibility.Actor{UserID: user.ID, Role: user.Role}
	if user.BusinessID != nil {
		actor.BusinessID = *user.BusinessID
	}
	if user.BranchID == nil {
		if user.Role.BranchRestricted() {
			return visibility.Actor{}, errBranchRevoked
		}
		return actor, nil
	}

	branch, err := r.branches.FindBranch(ctx, actor.BusinessID, *user.BranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return visibility.Actor{}, errBranchRevoked
		}
		return visibility.Actor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if !branch.IsActive {
		return visibility.Actor{}, errBranchRevoked
	}
	branchID := branch.ID
	actor.BranchID = &branchID
	return actor, nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
