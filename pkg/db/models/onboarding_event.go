package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OnboardingEvent is a deduplicated (business, event) fact.
type OnboardingEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;uniqueIndex:uq_onboarding_event,priority:1"`
	Event      string    `gorm:"column:event;not null;uniqueIndex:uq_onboarding_event,priority:2"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (e *OnboardingEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
