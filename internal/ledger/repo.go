package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

// Repository manages persistence for stock movements. There is no update or
// delete: the table is append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.StockMovement) error
	Balance(ctx context.Context, scope visibility.Scope, productID uuid.UUID) (int64, error)
	BalancesByProduct(ctx context.Context, scope visibility.Scope) (map[uuid.UUID]int64, error)
	List(ctx context.Context, scope visibility.Scope, filter ListFilter) ([]models.StockMovement, error)
}

// ListFilter narrows a recent-activity query. Limit is the exact row count to
// fetch; callers add their own look-ahead row.
type ListFilter struct {
	Type      *enums.MovementType
	ProductID *uuid.UUID
	Since     *time.Time
	Until     *time.Time
	Cursor    *pagination.Cursor
	Limit     int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) Balance(ctx context.Context, scope visibility.Scope, productID uuid.UUID) (int64, error) {
	var total int64
	err := scope.Apply(r.db.WithContext(ctx).Model(&models.StockMovement{}), "").
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) BalancesByProduct(ctx context.Context, scope visibility.Scope) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ProductID uuid.UUID
		Total     int64
	}
	err := scope.Apply(r.db.WithContext(ctx).Model(&models.StockMovement{}), "").
		Select("product_id, COALESCE(SUM(quantity), 0) AS total").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}

func (r *repository) List(ctx context.Context, scope visibility.Scope, filter ListFilter) ([]models.StockMovement, error) {
	query := scope.Apply(r.db.WithContext(ctx).Model(&models.StockMovement{}), "")
	if filter.Type != nil {
		query = query.Where("movement_type = ?", *filter.Type)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", filter.Since.UTC())
	}
	if filter.Until != nil {
		query = query.Where("created_at < ?", filter.Until.UTC())
	}

	var movements []models.StockMovement
	if err := query.Scopes(pagination.After(filter.Cursor, filter.Limit)).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
