package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
)

// CreateOrderInput is a sale recorded at the till.
type CreateOrderInput struct {
	BranchID    *uuid.UUID
	ClientName  *string
	SalesPerson *string
	Lines       []LineInput
}

// LineInput is one product on a sale. UnitPrice defaults to the product's
// selling price.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice *decimal.Decimal
}

// ListOrdersInput pages through recent orders.
type ListOrdersInput struct {
	BranchID   *uuid.UUID
	Pagination pagination.Params
}

type OrderDTO struct {
	ID          uuid.UUID       `json:"id"`
	OrderCode   string          `json:"order_code"`
	BranchID    *uuid.UUID      `json:"branch_id,omitempty"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	ClientName  *string         `json:"client_name,omitempty"`
	SalesPerson *string         `json:"sales_person,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []SaleDTO       `json:"lines"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SaleDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func orderFromModel(o *models.Order) OrderDTO {
	lines := make([]SaleDTO, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, SaleDTO{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		})
	}
	return OrderDTO{
		ID:          o.ID,
		OrderCode:   o.OrderCode,
		BranchID:    o.BranchID,
		CreatedBy:   o.CreatedBy,
		ClientName:  o.ClientName,
		SalesPerson: o.SalesPerson,
		TotalAmount: o.TotalAmount,
		Lines:       lines,
		CreatedAt:   o.CreatedAt,
	}
}
