package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
)

// RestockInput records goods received from a supplier.
type RestockInput struct {
	ProductID uuid.UUID
	Quantity  int64
	BranchID  *uuid.UUID
	Supplier  string
	Invoice   string
	Notes     string
}

// IssueInput hands stock to a staff member.
type IssueInput struct {
	ProductID uuid.UUID
	StaffID   uuid.UUID
	Quantity  int64
	BranchID  *uuid.UUID
	Notes     string
}

// AdjustInput corrects a balance after a count. Quantity is signed.
type AdjustInput struct {
	ProductID uuid.UUID
	Quantity  int64
	BranchID  *uuid.UUID
	Notes     string
}

// TransferInput moves stock between two branches of the same business.
type TransferInput struct {
	ProductID    uuid.UUID
	FromBranchID uuid.UUID
	ToBranchID   uuid.UUID
	Quantity     int64
	Notes        string
}

// MovementFilter narrows the recent-activity list.
type MovementFilter struct {
	BranchID  *uuid.UUID
	Type      *enums.MovementType
	ProductID *uuid.UUID
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Cursor    string
}

type MovementDTO struct {
	ID           uuid.UUID          `json:"id"`
	BranchID     uuid.UUID          `json:"branch_id"`
	ProductID    uuid.UUID          `json:"product_id"`
	MovementType enums.MovementType `json:"movement_type"`
	Quantity     int64              `json:"quantity"`
	StaffID      *uuid.UUID         `json:"staff_id,omitempty"`
	FromBranchID *uuid.UUID         `json:"from_branch_id,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
	CreatedBy    uuid.UUID          `json:"created_by"`
	CreatedAt    time.Time          `json:"created_at"`
}

type MovementList struct {
	Movements  []MovementDTO `json:"movements"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// StockLevel is the derived balance of one product.
type StockLevel struct {
	ProductID uuid.UUID  `json:"product_id"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
	Stock     int64      `json:"stock"`
}

// OverviewItem is one row of the inventory overview.
type OverviewItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int64     `json:"stock"`
	MinStock  int       `json:"min_stock"`
	LowStock  bool      `json:"low_stock"`
}

func movementFromModel(m *models.StockMovement) MovementDTO {
	return MovementDTO{
		ID:           m.ID,
		BranchID:     m.BranchID,
		ProductID:    m.ProductID,
		MovementType: m.MovementType,
		Quantity:     m.Quantity,
		StaffID:      m.StaffID,
		FromBranchID: m.FromBranchID,
		Notes:        m.Notes,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func movementsFromModels(rows []models.StockMovement) []MovementDTO {
	out := make([]MovementDTO, 0, len(rows))
	for i := range rows {
		out = append(out, movementFromModel(&rows[i]))
	}
	return out
}
