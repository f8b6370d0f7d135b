package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	BuyingPrice *decimal.Decimal `json:"buying_price,omitempty"`
	MinStock    int              `json:"min_stock"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewProductDTO maps a persisted product into its API shape.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       fromNull(p.Price),
		BuyingPrice: fromNull(p.BuyingPrice),
		MinStock:    p.MinStock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromNull(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	v := value.Decimal
	return &v
}

func toNull(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value.Round(2))
}
