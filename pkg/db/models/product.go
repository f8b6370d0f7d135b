package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product belongs to a business. It carries no quantity: stock lives in the
// movement ledger only.
type Product struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	BusinessID  uuid.UUID           `gorm:"column:business_id;type:uuid;not null;uniqueIndex:uq_product_name_business,priority:2"`
	Name        string              `gorm:"column:name;not null;uniqueIndex:uq_product_name_business,priority:1"`
	Price       decimal.NullDecimal `gorm:"column:price;type:numeric(12,2)"`
	BuyingPrice decimal.NullDecimal `gorm:"column:buying_price;type:numeric(12,2)"`
	MinStock    int                 `gorm:"column:min_stock;not null;default:5"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
