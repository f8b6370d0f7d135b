package branches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

// MainBranchName is the branch every business starts with.
const MainBranchName = "Main Branch"

var errInvalidBranch = pkgerrors.New(pkgerrors.CodeValidation, "invalid branch")

type branchRepository interface {
	CreateBranch(ctx context.Context, branch *models.Branch) error
	FindBranch(ctx context.Context, businessID, id uuid.UUID) (*models.Branch, error)
	ListBranches(ctx context.Context, businessID uuid.UUID) ([]models.Branch, error)
	CreateStaff(ctx context.Context, staff *models.Staff) error
	ListStaff(ctx context.Context, scope visibility.Scope) ([]models.Staff, error)
}

// Service manages branches and branch staff.
type Service interface {
	CreateBranch(ctx context.Context, actor visibility.Actor, input CreateBranchInput) (*BranchDTO, error)
	ListBranches(ctx context.Context, actor visibility.Actor) ([]BranchDTO, error)
	CreateStaff(ctx context.Context, actor visibility.Actor, input CreateStaffInput) (*StaffDTO, error)
	ListStaff(ctx context.Context, actor visibility.Actor, branchID *uuid.UUID) ([]StaffDTO, error)
}

type service struct {
	repo branchRepository
}

func NewService(repo branchRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("branch repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateBranch(ctx context.Context, actor visibility.Actor, input CreateBranchInput) (*BranchDTO, error) {
	if !actor.Privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only business admins can create branches")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}
	branch := &models.Branch{
		BusinessID: actor.BusinessID,
		Name:       name,
		Location:   trimmed(input.Location),
		IsActive:   true,
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create branch")
	}
	dto := BranchFromModel(branch)
	return &dto, nil
}

// ListBranches returns every branch to admins and only the assigned branch
// to restricted roles.
func (s *service) ListBranches(ctx context.Context, actor visibility.Actor) ([]BranchDTO, error) {
	scope, err := visibility.For(actor, visibility.Request{})
	if err != nil {
		return nil, err
	}
	if !scope.AllBranches() {
		branch, err := s.repo.FindBranch(ctx, scope.BusinessID, *scope.BranchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []BranchDTO{}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
		}
		return []BranchDTO{BranchFromModel(branch)}, nil
	}

	rows, err := s.repo.ListBranches(ctx, scope.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	out := make([]BranchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, BranchFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateStaff(ctx context.Context, actor visibility.Actor, input CreateStaffInput) (*StaffDTO, error) {
	if !actor.Role.IsOneOf(enums.RoleAdmin, enums.RoleManager) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role to add staff")
	}
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	scope, err := visibility.For(actor, visibility.Request{Branch: input.BranchID, Write: true})
	if err != nil {
		return nil, err
	}
	branch, err := s.repo.FindBranch(ctx, scope.BusinessID, *scope.BranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidBranch
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if !branch.IsActive {
		return nil, errInvalidBranch
	}

	staff := &models.Staff{
		BusinessID: scope.BusinessID,
		BranchID:   branch.ID,
		FullName:   name,
		Phone:      trimmed(input.Phone),
		IsActive:   true,
	}
	if err := s.repo.CreateStaff(ctx, staff); err != nil {
		if db.IsUniqueViolation(err, "uq_staff_name_branch") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "staff member already exists in this branch")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff")
	}
	dto := StaffFromModel(staff)
	return &dto, nil
}

func (s *service) ListStaff(ctx context.Context, actor visibility.Actor, branchID *uuid.UUID) ([]StaffDTO, error) {
	scope, err := visibility.For(actor, visibility.Request{Branch: branchID})
	if err != nil {
		return nil, err
	}
	if scope.BranchID != nil && actor.Privileged() {
		if _, err := s.repo.FindBranch(ctx, scope.BusinessID, *scope.BranchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
		}
	}
	rows, err := s.repo.ListStaff(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	out := make([]StaffDTO, 0, len(rows))
	for i := range rows {
		out = append(out, StaffFromModel(&rows[i]))
	}
	return out, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
