package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/security"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

const tempPasswordLength = 12

type usersRepository interface {
	Create(ctx context.Context, dto NewUser) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.User, error)
}

type branchLookup interface {
	FindBranch(ctx context.Context, businessID, branchID uuid.UUID) (*models.Branch, error)
}

// Service exposes business user management.
type Service interface {
	Create(ctx context.Context, actor visibility.Actor, input CreateUserInput) (*CreatedUser, error)
	List(ctx context.Context, actor visibility.Actor) ([]UserDTO, error)
}

type service struct {
	repo        usersRepository
	branches    branchLookup
	passwordCfg config.PasswordConfig
}

// NewService builds a user service with the provided repositories.
func NewService(repo usersRepository, branches branchLookup, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if branches == nil {
		return nil, fmt.Errorf("branch lookup required")
	}
	return &service{repo: repo, branches: branches, passwordCfg: passwordCfg}, nil
}

// Create adds a manager or storekeeper bound to a branch of the admin's
// business. A blank password yields a generated one that is returned once.
func (s *service) Create(ctx context.Context, actor visibility.Actor, input CreateUserInput) (*CreatedUser, error) {
	if !actor.Privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only business admins can create users")
	}
	if !input.Role.BranchRestricted() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be manager or storekeeper")
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if input.BranchID == uuid.Nil {
		return nil, visibility.ErrBranchRequired
	}

	branch, err := s.branches.FindBranch(ctx, actor.BusinessID, input.BranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid branch")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
	}

	password := input.Password
	generated := ""
	if strings.TrimSpace(password) == "" {
		generated, err = security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		password = generated
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	businessID := actor.BusinessID
	branchID := branch.ID
	user, err := s.repo.Create(ctx, NewUser{
		BusinessID:   &businessID,
		BranchID:     &branchID,
		Username:     username,
		PasswordHash: hash,
		Role:         input.Role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_users_username") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return &CreatedUser{User: FromModel(user), TempPassword: generated}, nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor) ([]UserDTO, error) {
	if !actor.Privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only business admins can list users")
	}
	rows, err := s.repo.ListByBusiness(ctx, actor.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}
