package branches

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

type BranchDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  *string   `json:"location,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffDTO struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBranchInput is what an admin submits to open a branch.
type CreateBranchInput struct {
	Name     string
	Location *string
}

// CreateStaffInput names a worker for a branch. Branch may be omitted by
// branch-restricted users, who always add to their own branch.
type CreateStaffInput struct {
	FullName string
	Phone    *string
	BranchID *uuid.UUID
}

func BranchFromModel(b *models.Branch) BranchDTO {
	return BranchDTO{
		ID:        b.ID,
		Name:      b.Name,
		Location:  b.Location,
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
	}
}

func StaffFromModel(s *models.Staff) StaffDTO {
	return StaffDTO{
		ID:        s.ID,
		BranchID:  s.BranchID,
		FullName:  s.FullName,
		Phone:     s.Phone,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}
