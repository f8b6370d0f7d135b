package push

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert stores the subscription keyed by endpoint. created is false when an
// existing endpoint was rebound to the caller.
func (r *Repository) Upsert(ctx context.Context, sub *models.PushSubscription) (created bool, err error) {
	var existing models.PushSubscription
	err = r.db.WithContext(ctx).Where("endpoint = ?", sub.Endpoint).First(&existing).Error
	switch {
	case err == nil:
		created = false
	case errors.Is(err, gorm.ErrRecordNotFound):
		created = true
	default:
		return false, err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "business_id", "p256dh", "auth"}),
	}).Create(sub).Error
	return created, err
}

func (r *Repository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.PushSubscription, error) {
	var rows []models.PushSubscription
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PushSubscription{}, "id = ?", id).Error
}
