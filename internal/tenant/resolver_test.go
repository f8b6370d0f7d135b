package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/auth"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
)

type stubUsers struct {
	user *models.User
	err  error
}

func (s stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubBranches map[uuid.UUID]models.Branch

func (s stubBranches) FindBranch(ctx context.Context, businessID, id uuid.UUID) (*models.Branch, error) {
	b, ok := s[id]
	if !ok || b.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func TestResolve(t *testing.T) {
	businessID := uuid.New()
	branch := models.Branch{ID: uuid.New(), BusinessID: businessID, IsActive: true}
	closed := models.Branch{ID: uuid.New(), BusinessID: businessID, IsActive: false}
	branches := stubBranches{branch.ID: branch, closed.ID: closed}

	user := func(role enums.Role, branchID *uuid.UUID, active bool) *models.User {
		return &models.User{ID: uuid.New(), BusinessID: &businessID, BranchID: branchID, Role: role, IsActive: active}
	}
	claimsFor := func(u *models.User) *auth.AccessTokenClaims {
		return &auth.AccessTokenClaims{UserID: u.ID, BusinessID: u.BusinessID, BranchID: u.BranchID, Role: u.Role}
	}

	t.Run("manager resolves to stored branch", func(t *testing.T) {
		u := user(enums.RoleManager, &branch.ID, true)
		r, _ := NewResolver(stubUsers{user: u}, branches)
		actor, err := r.Resolve(context.Background(), claimsFor(u))
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if actor.BusinessID != businessID || actor.BranchID == nil || *actor.BranchID != branch.ID {
			t.Fatalf("unexpected actor %+v", actor)
		}
	})

	t.Run("admin without branch", func(t *testing.T) {
		u := user(enums.RoleAdmin, nil, true)
		r, _ := NewResolver(stubUsers{user: u}, branches)
		actor, err := r.Resolve(context.Background(), claimsFor(u))
		if err != nil || !actor.Privileged() || actor.BranchID != nil {
			t.Fatalf("unexpected actor %+v err=%v", actor, err)
		}
	})

	t.Run("superadmin has no business", func(t *testing.T) {
		u := &models.User{ID: uuid.New(), Role: enums.RoleSuperadmin, IsActive: true}
		r, _ := NewResolver(stubUsers{user: u}, branches)
		actor, err := r.Resolve(context.Background(), claimsFor(u))
		if err != nil || !actor.Operator() || actor.BusinessID != uuid.Nil {
			t.Fatalf("unexpected actor %+v err=%v", actor, err)
		}
	})

	failures := []struct {
		name   string
		user   *models.User
		claims func(u *models.User) *auth.AccessTokenClaims
		code   pkgerrors.Code
	}{
		{"deleted user", nil, func(*models.User) *auth.AccessTokenClaims { return &auth.AccessTokenClaims{UserID: uuid.New()} }, pkgerrors.CodeUnauthorized},
		{"inactive user", user(enums.RoleAdmin, nil, false), claimsFor, pkgerrors.CodeForbidden},
		{"business mismatch", user(enums.RoleAdmin, nil, true), func(u *models.User) *auth.AccessTokenClaims {
			other := uuid.New()
			return &auth.AccessTokenClaims{UserID: u.ID, BusinessID: &other}
		}, pkgerrors.CodeUnauthorized},
		{"inactive branch", user(enums.RoleStorekeeper, &closed.ID, true), claimsFor, pkgerrors.CodeForbidden},
		{"restricted without branch", user(enums.RoleStorekeeper, nil, true), claimsFor, pkgerrors.CodeForbidden},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := NewResolver(stubUsers{user: tc.user}, branches)
			u := tc.user
			if u == nil {
				u = &models.User{}
			}
			_, err := r.Resolve(context.Background(), tc.claims(u))
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestResolveDependencyFailure(t *testing.T) {
	r, _ := NewResolver(stubUsers{err: errors.New("db down")}, stubBranches{})
	_, err := r.Resolve(context.Background(), &auth.AccessTokenClaims{UserID: uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
