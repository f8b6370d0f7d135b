package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// User is a login identity. Superadmins have no business; admins have no
// branch; managers and storekeepers are bound to one branch.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BusinessID   *uuid.UUID `gorm:"column:business_id;type:uuid;index"`
	BranchID     *uuid.UUID `gorm:"column:branch_id;type:uuid"`
	Username     string     `gorm:"column:username;not null;uniqueIndex:uq_users_username"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         enums.Role `gorm:"column:role;type:text;not null"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
