package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Business is the tenant root. Every other tenant row carries its id.
type Business struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code          string    `gorm:"column:code;not null;uniqueIndex:uq_businesses_code"`
	Name          string    `gorm:"column:name;not null"`
	OwnerUsername string    `gorm:"column:owner_username;not null"`
	Email         *string   `gorm:"column:email;uniqueIndex:uq_businesses_email"`
	Phone         *string   `gorm:"column:phone"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Business) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
