package visibility

import (
	stdErrors "errors"
	"testing"

	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/pkg/enums"
	"github.com/smartpos/smartpos-backend/pkg/errors"
)

func TestFor(t *testing.T) {
	businessID := uuid.New()
	ownBranch := uuid.New()
	otherBranch := uuid.New()

	admin := Actor{UserID: uuid.New(), BusinessID: businessID, Role: enums.RoleAdmin}
	manager := Actor{UserID: uuid.New(), BusinessID: businessID, Role: enums.RoleManager, BranchID: &ownBranch}
	storekeeper := Actor{UserID: uuid.New(), BusinessID: businessID, Role: enums.RoleStorekeeper, BranchID: &ownBranch}

	tests := []struct {
		name       string
		actor      Actor
		req        Request
		wantBranch *uuid.UUID
		wantCode   errors.Code
		wantErr    error
	}{
		{name: "admin read all branches", actor: admin, req: Request{}},
		{name: "admin read one branch", actor: admin, req: Request{Branch: &otherBranch}, wantBranch: &otherBranch},
		{name: "admin write needs branch", actor: admin, req: Request{Write: true}, wantErr: ErrBranchRequired},
		{name: "admin write with branch", actor: admin, req: Request{Branch: &ownBranch, Write: true}, wantBranch: &ownBranch},
		{name: "manager pinned to own branch", actor: manager, req: Request{}, wantBranch: &ownBranch},
		{name: "manager write without branch", actor: manager, req: Request{Write: true}, wantBranch: &ownBranch},
		{name: "storekeeper naming own branch", actor: storekeeper, req: Request{Branch: &ownBranch}, wantBranch: &ownBranch},
		{name: "storekeeper naming other branch", actor: storekeeper, req: Request{Branch: &otherBranch}, wantCode: errors.CodeNotFound},
		{name: "restricted without branch", actor: Actor{BusinessID: businessID, Role: enums.RoleManager}, wantCode: errors.CodeForbidden},
		{name: "operator has no tenant", actor: Actor{Role: enums.RoleSuperadmin}, wantCode: errors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := For(tt.actor, tt.req)
			if tt.wantErr != nil {
				if !stdErrors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if tt.wantCode != "" {
				typed := errors.As(err)
				if typed == nil || typed.Code() != tt.wantCode {
					t.Fatalf("expected code %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scope.BusinessID != businessID {
				t.Fatalf("scope lost business id")
			}
			switch {
			case tt.wantBranch == nil && scope.BranchID != nil:
				t.Fatalf("expected all branches, got %s", scope.BranchID)
			case tt.wantBranch != nil && (scope.BranchID == nil || *scope.BranchID != *tt.wantBranch):
				t.Fatalf("expected branch %s, got %v", tt.wantBranch, scope.BranchID)
			}
		})
	}
}

func TestScopeContains(t *testing.T) {
	businessID := uuid.New()
	branchA := uuid.New()
	branchB := uuid.New()

	all := Scope{BusinessID: businessID}
	if !all.Contains(businessID, branchA) || !all.Contains(businessID, branchB) {
		t.Fatal("business-wide scope should contain every branch")
	}
	if all.Contains(uuid.New(), branchA) {
		t.Fatal("scope must not contain another tenant")
	}

	one := Scope{BusinessID: businessID, BranchID: &branchA}
	if !one.Contains(businessID, branchA) {
		t.Fatal("branch scope should contain its own branch")
	}
	if one.Contains(businessID, branchB) {
		t.Fatal("branch scope should not contain other branches")
	}
}
