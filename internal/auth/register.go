package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/internal/branches"
	"github.com/smartpos/smartpos-backend/internal/businesses"
	"github.com/smartpos/smartpos-backend/internal/users"
	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/security"
)

var (
	errEmailTaken      = pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	errUsernameTaken   = pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
	errSuperadminTaken = pkgerrors.New(pkgerrors.CodeConflict, "superadmin already exists")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type trialCreator interface {
	CreateTrial(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (*models.Subscription, error)
}

// RegisterService opens businesses and the operator account.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*Registration, error)
	CreateSuperadmin(ctx context.Context, req SuperadminRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner       txRunner
	Trials         trialCreator
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type registerService struct {
	tx          txRunner
	trials      trialCreator
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Trials == nil {
		return nil, fmt.Errorf("trial creator required")
	}
	return &registerService{
		tx:          params.TxRunner,
		trials:      params.Trials,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

// Register creates the business, its admin, the main branch and the trial
// subscription in one transaction.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	name := strings.TrimSpace(req.BusinessName)
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	case username == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	case email == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case password == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	passwordHash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var result Registration
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		businessRepo := businesses.NewRepository(tx)
		userRepo := users.NewRepository(tx)
		branchRepo := branches.NewRepository(tx)

		if _, err := userRepo.FindByUsername(ctx, username); err == nil {
			return errUsernameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
		}

		code, err := businesses.UniqueCode(ctx, businessRepo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate business code")
		}
		business := &models.Business{
			Code:          code,
			Name:          name,
			OwnerUsername: username,
			Email:         &email,
			Phone:         trimmedOrNil(req.Phone),
		}
		if err := businessRepo.Create(ctx, business); err != nil {
			if db.IsUniqueViolation(err, "uq_businesses_email") {
				return errEmailTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create business")
		}

		businessID := business.ID
		user, err := userRepo.Create(ctx, users.NewUser{
			BusinessID:   &businessID,
			Username:     username,
			PasswordHash: passwordHash,
			Role:         enums.RoleAdmin,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "uq_users_username") {
				return errUsernameTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin user")
		}

		if err := branchRepo.CreateBranch(ctx, &models.Branch{
			BusinessID: businessID,
			Name:       branches.MainBranchName,
			IsActive:   true,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create main branch")
		}

		if _, err := s.trials.CreateTrial(ctx, tx, businessID); err != nil {
			return err
		}

		result.Business = businesses.FromModel(business)
		result.User = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithBusinessID(ctx, result.Business.ID.String())
		s.logg.Info(logCtx, "auth.business_registered")
	}
	return &result, nil
}

// CreateSuperadmin creates the operator account. It succeeds once.
func (s *registerService) CreateSuperadmin(ctx context.Context, req SuperadminRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		exists, err := userRepo.ExistsWithRole(ctx, enums.RoleSuperadmin)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check superadmin")
		}
		if exists {
			return errSuperadminTaken
		}
		created, err = userRepo.Create(ctx, users.NewUser{
			Username:     username,
			PasswordHash: passwordHash,
			Role:         enums.RoleSuperadmin,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "uq_users_username") {
				return errUsernameTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create superadmin")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users.FromModel(created), nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
