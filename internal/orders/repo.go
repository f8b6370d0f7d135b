package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order and its lines.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := scope.Apply(r.db.WithContext(ctx), "").
		Preload("Lines").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, scope visibility.Scope, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := scope.Apply(r.db.WithContext(ctx), "").
		Preload("Lines").
		Scopes(pagination.After(cursor, limit)).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SummaryByBusiness totals orders per business. Revenue is summed in Go so
// the decimal precision does not depend on the database driver.
func (r *repository) SummaryByBusiness(ctx context.Context) (map[uuid.UUID]SalesSummary, error) {
	var rows []struct {
		BusinessID  uuid.UUID
		TotalAmount decimal.Decimal
		CreatedAt   time.Time
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("business_id, total_amount, created_at").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]SalesSummary)
	for _, row := range rows {
		summary := out[row.BusinessID]
		summary.Orders++
		summary.Revenue = summary.Revenue.Add(row.TotalAmount)
		if summary.LastSaleAt == nil || row.CreatedAt.After(*summary.LastSaleAt) {
			at := row.CreatedAt
			summary.LastSaleAt = &at
		}
		out[row.BusinessID] = summary
	}
	return out, nil
}
