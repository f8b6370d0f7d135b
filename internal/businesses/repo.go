package businesses

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

// Repository handles business persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to business operations.
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

// Create persists a new business row.
func (r *Repository) Create(ctx context.Context, business *models.Business) error {
	if business == nil {
		return fmt.Errorf("business is required")
	}
	return r.db.WithContext(ctx).Create(business).Error
}

// FindByID loads a business by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// FindByCode loads a business by its public code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// CodeExists reports whether code is already assigned.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Business{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns every business, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Business, error) {
	var rows []models.Business
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided business.
func (r *Repository) Update(ctx context.Context, business *models.Business) error {
	if business == nil {
		return fmt.Errorf("business is required")
	}
	return r.db.WithContext(ctx).Save(business).Error
}
