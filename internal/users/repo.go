package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// Repository persists login accounts. Lookups return gorm.ErrRecordNotFound
// unwrapped so callers can branch on it.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to tx; a nil tx keeps the current handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, in NewUser) (*models.User, error) {
	user := in.Model()
	return user, r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) first(ctx context.Context, cond string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(cond, arg).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByBusiness returns a business's accounts, newest first.
func (r *Repository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.User, error) {
	return r.list(ctx, "created_at DESC", "business_id = ?", businessID)
}

// ListByRole returns every account holding role, oldest first.
func (r *Repository) ListByRole(ctx context.Context, role enums.Role) ([]models.User, error) {
	return r.list(ctx, "created_at ASC", "role = ?", role)
}

func (r *Repository) list(ctx context.Context, order, cond string, arg any) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).Where(cond, arg).Order(order).Find(&rows).Error
	return rows, err
}

func (r *Repository) ExistsWithRole(ctx context.Context, role enums.Role) (bool, error) {
	var found int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&found).Error
	return found > 0, err
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at.UTC()).Error
}
