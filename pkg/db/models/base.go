package models

import (
	"github.com/google/uuid"
)

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Business{},
		&Branch{},
		&User{},
		&Staff{},
		&Product{},
		&StockMovement{},
		&Subscription{},
		&OnboardingEvent{},
		&Order{},
		&Sale{},
		&PushSubscription{},
	}
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
