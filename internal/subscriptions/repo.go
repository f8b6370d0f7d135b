package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// Repository persists the one-to-one subscription row of each business.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *Repository) FindByBusiness(ctx context.Context, businessID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByBusinessForUpdate reads the row with FOR UPDATE. Dialects without
// row locks drop the clause.
func (r *Repository) FindByBusinessForUpdate(ctx context.Context, businessID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ?", businessID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByBusinesses returns subscriptions keyed by business.
func (r *Repository) ListByBusinesses(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]models.Subscription, error) {
	out := make(map[uuid.UUID]models.Subscription, len(businessIDs))
	if len(businessIDs) == 0 {
		return out, nil
	}
	var rows []models.Subscription
	if err := r.db.WithContext(ctx).Where("business_id IN ?", businessIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.BusinessID] = row
	}
	return out, nil
}

// UpdateState writes status, is_active and the date window. Zero times
// leave the stored column untouched.
func (r *Repository) UpdateState(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus, active bool, start, end time.Time, now time.Time) error {
	updates := map[string]any{
		"status":     status,
		"is_active":  active,
		"updated_at": now,
	}
	if !start.IsZero() {
		updates["start_date"] = start
	}
	if !end.IsZero() {
		updates["end_date"] = end
	}
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ExpireOverdue flips every running subscription whose window closed before
// now to expired and returns the number of rows changed.
func (r *Repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status IN ?", []enums.SubscriptionStatus{enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive}).
		Where("end_date < ?", now).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusExpired,
			"is_active":  false,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// ListRunningEndingBetween returns trial and active rows whose window closes
// in [from, to).
func (r *Repository) ListRunningEndingBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	var rows []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.SubscriptionStatus{enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive}).
		Where("end_date >= ? AND end_date < ?", from, to).
		Order("end_date ASC").
		Find(&rows).Error
	return rows, err
}
