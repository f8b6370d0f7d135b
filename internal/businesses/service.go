package businesses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

type businessRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	Update(ctx context.Context, business *models.Business) error
}

// Service exposes the caller's own business profile.
type Service interface {
	Get(ctx context.Context, actor visibility.Actor) (*BusinessDTO, error)
	Update(ctx context.Context, actor visibility.Actor, input UpdateBusinessInput) (*BusinessDTO, error)
}

type service struct {
	repo businessRepository
}

// NewService builds a business service with the provided repository.
func NewService(repo businessRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("business repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, actor visibility.Actor) (*BusinessDTO, error) {
	business, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return FromModel(business), nil
}

func (s *service) Update(ctx context.Context, actor visibility.Actor, input UpdateBusinessInput) (*BusinessDTO, error) {
	if !actor.Privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only business admins can edit the business")
	}
	business, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
		}
		business.Name = name
	}
	if input.Email != nil {
		business.Email = optional(*input.Email)
	}
	if input.Phone != nil {
		business.Phone = optional(*input.Phone)
	}

	if err := s.repo.Update(ctx, business); err != nil {
		if db.IsUniqueViolation(err, "uq_businesses_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update business")
	}
	return FromModel(business), nil
}

func (s *service) load(ctx context.Context, actor visibility.Actor) (*models.Business, error) {
	if actor.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor is not bound to a business")
	}
	business, err := s.repo.FindByID(ctx, actor.BusinessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	return business, nil
}

func optional(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
