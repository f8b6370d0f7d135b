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

// Repository defines persistence operations for orders and their sale lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, scope visibility.Scope, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	SummaryByBusiness(ctx context.Context) (map[uuid.UUID]SalesSummary, error)
}

// SalesSummary aggregates the orders of one business.
type SalesSummary struct {
	Orders     int64
	Revenue    decimal.Decimal
	LastSaleAt *time.Time
}
