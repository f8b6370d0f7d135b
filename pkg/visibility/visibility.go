package visibility

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
)

var (
	// ErrBranchRequired is returned when a privileged actor writes without
	// naming a target branch.
	ErrBranchRequired = pkgerrors.New(pkgerrors.CodeValidation, "branch is required")

	errNoBusiness = pkgerrors.New(pkgerrors.CodeForbidden, "actor is not bound to a business")
	errNoBranch   = pkgerrors.New(pkgerrors.CodeForbidden, "actor is not assigned to a branch")
	errNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
)

// Actor is the verified identity a tenant request runs as.
type Actor struct {
	UserID     uuid.UUID
	BusinessID uuid.UUID
	Role       enums.Role
	BranchID   *uuid.UUID
}

// Privileged reports whether the actor sees every branch of its business.
func (a Actor) Privileged() bool {
	return a.Role == enums.RoleAdmin
}

// Operator reports whether the actor is the platform operator.
func (a Actor) Operator() bool {
	return a.Role == enums.RoleSuperadmin
}

// Request describes the branch the caller asked for and whether the
// operation writes.
type Request struct {
	Branch *uuid.UUID
	Write  bool
}

// Scope is the tenant predicate every read and write is filtered by. A nil
// BranchID means all branches of the business.
type Scope struct {
	BusinessID uuid.UUID
	BranchID   *uuid.UUID
}

// For resolves the scope an actor may operate in. Restricted roles are pinned
// to their own branch; asking for another branch reports NotFound so branch
// existence does not leak.
func For(actor Actor, req Request) (Scope, error) {
	if actor.BusinessID == uuid.Nil {
		return Scope{}, errNoBusiness
	}
	scope := Scope{BusinessID: actor.BusinessID}

	if actor.Privileged() {
		if req.Branch == nil || *req.Branch == uuid.Nil {
			if req.Write {
				return Scope{}, ErrBranchRequired
			}
			return scope, nil
		}
		branch := *req.Branch
		scope.BranchID = &branch
		return scope, nil
	}

	if !actor.Role.BranchRestricted() {
		return Scope{}, errNoBusiness
	}
	if actor.BranchID == nil || *actor.BranchID == uuid.Nil {
		return Scope{}, errNoBranch
	}
	if req.Branch != nil && *req.Branch != uuid.Nil && *req.Branch != *actor.BranchID {
		return Scope{}, errNotFound
	}
	branch := *actor.BranchID
	scope.BranchID = &branch
	return scope, nil
}

// AllBranches reports whether the scope spans every branch of the business.
func (s Scope) AllBranches() bool {
	return s.BranchID == nil
}

// Contains reports whether a row owned by business/branch is visible.
func (s Scope) Contains(businessID, branchID uuid.UUID) bool {
	if businessID != s.BusinessID {
		return false
	}
	return s.BranchID == nil || *s.BranchID == branchID
}

// Apply filters db by the scope. table qualifies the columns when the query
// joins other tables; pass "" for a single-table query.
func (s Scope) Apply(db *gorm.DB, table string) *gorm.DB {
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	db = db.Where(prefix+"business_id = ?", s.BusinessID)
	if s.BranchID != nil {
		db = db.Where(prefix+"branch_id = ?", *s.BranchID)
	}
	return db
}
