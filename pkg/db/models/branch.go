package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a physical location of a business. Stock and staff are scoped to it.
type Branch struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	Location   *string   `gorm:"column:location"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Branch) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// Staff is a named worker stock can be issued to. Not a login identity.
type Staff struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;index"`
	BranchID   uuid.UUID `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:uq_staff_name_branch,priority:2"`
	FullName   string    `gorm:"column:full_name;not null;uniqueIndex:uq_staff_name_branch,priority:1"`
	Phone      *string   `gorm:"column:phone"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Staff) TableName() string { return "staff" }

func (s *Staff) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
