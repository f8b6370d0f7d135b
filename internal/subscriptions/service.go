package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

const (
	TrialPeriod   = 7 * 24 * time.Hour
	BillingPeriod = 30 * 24 * time.Hour

	DefaultPlan = "monthly"
)

var (
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	ErrBlocked  = pkgerrors.New(pkgerrors.CodeSubscriptionBlocked, "subscription does not allow access")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the subscription state machine.
type Service interface {
	CreateTrial(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (*models.Subscription, error)
	EnsureAccess(ctx context.Context, businessID uuid.UUID) error
	Activate(ctx context.Context, businessID uuid.UUID) (*State, error)
	Renew(ctx context.Context, businessID uuid.UUID) (*State, error)
	Suspend(ctx context.Context, businessID uuid.UUID) (*State, error)
	Reactivate(ctx context.Context, businessID uuid.UUID) (*State, error)
	State(ctx context.Context, businessID uuid.UUID) (*State, error)
	States(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]State, error)
	ExpireOverdue(ctx context.Context) (int64, error)
	EndingWithin(ctx context.Context, window time.Duration) ([]State, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              *Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
	Now               func() time.Time
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo: params.Repo,
		tx:   params.TransactionRunner,
		logg: params.Logger,
		now:  now,
	}, nil
}

// State is the read model of a subscription.
type State struct {
	BusinessID uuid.UUID                `json:"business_id"`
	Status     enums.SubscriptionStatus `json:"status"`
	Plan       string                   `json:"plan"`
	Amount     decimal.Decimal          `json:"amount"`
	StartDate  time.Time                `json:"start_date"`
	EndDate    time.Time                `json:"end_date"`
	DaysLeft   int                      `json:"days_left"`
	IsActive   bool                     `json:"is_active"`
}

// StateFromModel derives the read model at the given instant.
func StateFromModel(sub models.Subscription, now time.Time) State {
	return State{
		BusinessID: sub.BusinessID,
		Status:     sub.Status,
		Plan:       sub.PlanName,
		Amount:     sub.Amount,
		StartDate:  sub.StartDate,
		EndDate:    sub.EndDate,
		DaysLeft:   DaysLeft(sub.EndDate, now),
		IsActive:   sub.Status.Running() && !sub.EndDate.Before(now),
	}
}

// DaysLeft is the floor of whole days between now and end. It goes negative
// once end has passed.
func DaysLeft(end, now time.Time) int {
	return int(math.Floor(end.Sub(now).Hours() / 24))
}

// CreateTrial writes the initial trial row. tx may be nil to use the
// service connection.
func (s *service) CreateTrial(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (*models.Subscription, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	now := s.now()
	sub := &models.Subscription{
		BusinessID: businessID,
		PlanName:   DefaultPlan,
		Amount:     decimal.Zero,
		StartDate:  now,
		EndDate:    now.Add(TrialPeriod),
		Status:     enums.SubscriptionStatusTrial,
		IsActive:   true,
		UpdatedAt:  now,
	}
	if err := s.repo.WithTx(tx).Create(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trial subscription")
	}
	return sub, nil
}

// EnsureAccess rejects businesses whose subscription is missing, suspended
// or expired. A running subscription past its end date is persisted as
// expired before the rejection is returned.
func (s *service) EnsureAccess(ctx context.Context, businessID uuid.UUID) error {
	var (
		status  enums.SubscriptionStatus
		expired bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := repo.FindByBusinessForUpdate(ctx, businessID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		status = sub.Status
		now := s.now()
		if status.Running() && sub.EndDate.Before(now) {
			if err := repo.UpdateState(ctx, sub.ID, enums.SubscriptionStatusExpired, false, time.Time{}, time.Time{}, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire subscription")
			}
			expired = true
			status = enums.SubscriptionStatusExpired
		}
		return nil
	})
	if err != nil {
		return err
	}

	if expired && s.logg != nil {
		logCtx := s.logg.WithBusinessID(ctx, businessID.String())
		s.logg.Info(logCtx, "subscription.expired")
	}

	switch status {
	case "":
		return blocked("none")
	case enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive:
		return nil
	default:
		return blocked(status.String())
	}
}

func blocked(status string) error {
	return pkgerrors.New(pkgerrors.CodeSubscriptionBlocked, ErrBlocked.Message()).
		WithDetails(map[string]any{"status": status})
}

func (s *service) Activate(ctx context.Context, businessID uuid.UUID) (*State, error) {
	return s.transition(ctx, businessID, func(sub *models.Subscription, now time.Time) {
		sub.Status = enums.SubscriptionStatusActive
		sub.IsActive = true
		sub.StartDate = now
		sub.EndDate = now.Add(BillingPeriod)
	})
}

func (s *service) Renew(ctx context.Context, businessID uuid.UUID) (*State, error) {
	return s.transition(ctx, businessID, func(sub *models.Subscription, _ time.Time) {
		sub.Status = enums.SubscriptionStatusActive
		sub.IsActive = true
		sub.EndDate = sub.EndDate.Add(BillingPeriod)
	})
}

func (s *service) Suspend(ctx context.Context, businessID uuid.UUID) (*State, error) {
	return s.transition(ctx, businessID, func(sub *models.Subscription, _ time.Time) {
		sub.Status = enums.SubscriptionStatusSuspended
		sub.IsActive = false
	})
}

func (s *service) Reactivate(ctx context.Context, businessID uuid.UUID) (*State, error) {
	return s.transition(ctx, businessID, func(sub *models.Subscription, _ time.Time) {
		sub.Status = enums.SubscriptionStatusActive
		sub.IsActive = true
	})
}

func (s *service) transition(ctx context.Context, businessID uuid.UUID, apply func(sub *models.Subscription, now time.Time)) (*State, error) {
	var state State
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := repo.FindByBusinessForUpdate(ctx, businessID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		now := s.now()
		apply(sub, now)
		sub.UpdatedAt = now
		if err := repo.UpdateState(ctx, sub.ID, sub.Status, sub.IsActive, sub.StartDate, sub.EndDate, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
		}
		state = StateFromModel(*sub, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithBusinessID(ctx, businessID.String())
		logCtx = s.logg.WithField(logCtx, "status", state.Status.String())
		s.logg.Info(logCtx, "subscription.transitioned")
	}
	return &state, nil
}

func (s *service) State(ctx context.Context, businessID uuid.UUID) (*State, error) {
	sub, err := s.repo.FindByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	state := StateFromModel(*sub, s.now())
	return &state, nil
}

// States returns the read model for every business that has a subscription.
// Businesses without one are absent from the map.
func (s *service) States(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]State, error) {
	rows, err := s.repo.ListByBusinesses(ctx, businessIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	now := s.now()
	out := make(map[uuid.UUID]State, len(rows))
	for id, row := range rows {
		out[id] = StateFromModel(row, now)
	}
	return out, nil
}

// ExpireOverdue applies the expiry rule in bulk.
func (s *service) ExpireOverdue(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire overdue subscriptions")
	}
	return count, nil
}

// EndingWithin lists running subscriptions that close within window from now.
func (s *service) EndingWithin(ctx context.Context, window time.Duration) ([]State, error) {
	now := s.now()
	rows, err := s.repo.ListRunningEndingBetween(ctx, now, now.Add(window))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ending subscriptions")
	}
	out := make([]State, 0, len(rows))
	for _, row := range rows {
		out = append(out, StateFromModel(row, now))
	}
	return out, nil
}
