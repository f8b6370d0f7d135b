package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PushSubscription is a browser push endpoint registered by a user.
type PushSubscription struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	BusinessID *uuid.UUID `gorm:"column:business_id;type:uuid;index"`
	Endpoint   string     `gorm:"column:endpoint;not null;uniqueIndex:uq_push_subscriptions_endpoint"`
	P256dh     string     `gorm:"column:p256dh;not null"`
	Auth       string     `gorm:"column:auth;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (p *PushSubscription) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
