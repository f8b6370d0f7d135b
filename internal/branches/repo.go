package branches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

// Repository persists branches and the staff attached to them.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to branch operations.
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

// CreateBranch persists a new branch row.
func (r *Repository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

// FindBranch loads a branch owned by businessID. Branches of other
// businesses report gorm.ErrRecordNotFound.
func (r *Repository) FindBranch(ctx context.Context, businessID, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", id, businessID).
		First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// ListBranches returns the branches of a business ordered by name.
func (r *Repository) ListBranches(ctx context.Context, businessID uuid.UUID) ([]models.Branch, error) {
	var rows []models.Branch
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateStaff persists a new staff member.
func (r *Repository) CreateStaff(ctx context.Context, staff *models.Staff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

// FindStaff loads a staff member owned by businessID.
func (r *Repository) FindStaff(ctx context.Context, businessID, id uuid.UUID) (*models.Staff, error) {
	var staff models.Staff
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", id, businessID).
		First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

// ListStaff returns the staff visible in scope ordered by name.
func (r *Repository) ListStaff(ctx context.Context, scope visibility.Scope) ([]models.Staff, error) {
	var rows []models.Staff
	if err := scope.Apply(r.db.WithContext(ctx), "").
		Order("full_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
