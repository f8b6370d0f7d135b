package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a recorded sale. TotalAmount is the sum of its lines.
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderCode   string          `gorm:"column:order_code;not null;uniqueIndex:uq_orders_code"`
	BusinessID  uuid.UUID       `gorm:"column:business_id;type:uuid;not null;index"`
	BranchID    *uuid.UUID      `gorm:"column:branch_id;type:uuid"`
	CreatedBy   uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	ClientName  *string         `gorm:"column:client_name"`
	SalesPerson *string         `gorm:"column:sales_person"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null;index"`
	Lines       []Sale          `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// Sale is a single order line.
type Sale struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	BusinessID uuid.UUID       `gorm:"column:business_id;type:uuid;not null"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity   int64           `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal  decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
