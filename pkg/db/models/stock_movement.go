package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// StockMovement is an immutable ledger row. Positive quantities are incoming,
// negative quantities outgoing.
type StockMovement struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	BusinessID   uuid.UUID          `gorm:"column:business_id;type:uuid;not null;index:idx_stock_movements_tuple,priority:1"`
	BranchID     uuid.UUID          `gorm:"column:branch_id;type:uuid;not null;index:idx_stock_movements_tuple,priority:2"`
	ProductID    uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index:idx_stock_movements_tuple,priority:3"`
	MovementType enums.MovementType `gorm:"column:movement_type;type:text;not null"`
	Quantity     int64              `gorm:"column:quantity;not null"`
	StaffID      *uuid.UUID         `gorm:"column:staff_id;type:uuid"`
	FromBranchID *uuid.UUID         `gorm:"column:from_branch_id;type:uuid"`
	Notes        *string            `gorm:"column:notes"`
	CreatedBy    uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;not null;index"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
