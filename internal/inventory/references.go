package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/internal/ledger"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

// references answers the referential questions a movement depends on. Bound
// to the append transaction, the answers hold until commit.
type references struct {
	db *gorm.DB
}

func newReferences(db *gorm.DB) references {
	return references{db: db}
}

func (r references) product(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", productID, businessID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r references) requireProduct(ctx context.Context, businessID, productID uuid.UUID) error {
	if _, err := r.product(ctx, businessID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrInvalidProduct
		}
		return err
	}
	return nil
}

func (r references) requireBranch(ctx context.Context, businessID, branchID uuid.UUID) error {
	var branch models.Branch
	err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", branchID, businessID).
		First(&branch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrInvalidBranch
		}
		return err
	}
	if !branch.IsActive {
		return ledger.ErrInvalidBranch
	}
	return nil
}

// branchExists reports whether branchID belongs to the business. Inactive
// branches count: their history stays readable.
func (r references) branchExists(ctx context.Context, businessID, branchID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("id = ? AND business_id = ?", branchID, businessID).
		Count(&n).Error
	return n > 0, err
}

// requireStaff checks the staff member belongs to the business and works at
// branchID.
func (r references) requireStaff(ctx context.Context, businessID, branchID, staffID uuid.UUID) error {
	var staff models.Staff
	err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ? AND branch_id = ?", staffID, businessID, branchID).
		First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrInvalidStaff
		}
		return err
	}
	if !staff.IsActive {
		return ledger.ErrInvalidStaff
	}
	return nil
}

func (r references) products(ctx context.Context, businessID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
