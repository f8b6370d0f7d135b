package onboarding

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

// Repository reads the facts onboarding is derived from and records events.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to onboarding operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert stores (businessID, event). It reports false when the pair already
// exists.
func (r *Repository) Insert(ctx context.Context, businessID uuid.UUID, event string) (bool, error) {
	row := models.OnboardingEvent{BusinessID: businessID, Event: event}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "business_id"}, {Name: "event"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		if db.IsUniqueViolation(result.Error, "uq_onboarding_event") {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Events returns the subset of names recorded for the business.
func (r *Repository) Events(ctx context.Context, businessID uuid.UUID, names ...string) (map[string]bool, error) {
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&models.OnboardingEvent{}).
		Where("business_id = ? AND event IN ?", businessID, names).
		Pluck("event", &found).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(found))
	for _, name := range found {
		out[name] = true
	}
	return out, nil
}

// HasProduct reports whether the business owns at least one product.
func (r *Repository) HasProduct(ctx context.Context, businessID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.Product{}, businessID)
}

// HasOrder reports whether the business recorded at least one order.
func (r *Repository) HasOrder(ctx context.Context, businessID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.Order{}, businessID)
}

func (r *Repository) exists(ctx context.Context, model any, businessID uuid.UUID) (bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("business_id = ?", businessID).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// BusinessesWithEvent returns the set of businesses that recorded event.
func (r *Repository) BusinessesWithEvent(ctx context.Context, event string) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OnboardingEvent{}).
		Where("event = ?", event).
		Distinct().
		Pluck("business_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
