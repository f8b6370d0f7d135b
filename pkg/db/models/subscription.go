package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// Subscription is the one-to-one access window of a business.
type Subscription struct {
	ID         uuid.UUID                `gorm:"type:uuid;primaryKey"`
	BusinessID uuid.UUID                `gorm:"column:business_id;type:uuid;not null;uniqueIndex:uq_subscriptions_business"`
	PlanName   string                   `gorm:"column:plan_name;not null;default:'monthly'"`
	Amount     decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	StartDate  time.Time                `gorm:"column:start_date;not null"`
	EndDate    time.Time                `gorm:"column:end_date;not null"`
	Status     enums.SubscriptionStatus `gorm:"column:status;type:text;not null"`
	IsActive   bool                     `gorm:"column:is_active;not null"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
