package businesses

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

// BusinessDTO exposes safe tenant data in API responses.
type BusinessDTO struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	OwnerUsername string    `json:"owner_username"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateBusinessInput captures the business fields an admin may change.
type UpdateBusinessInput struct {
	Name  *string
	Email *string
	Phone *string
}

// FromModel maps the persisted business into a DTO.
func FromModel(m *models.Business) *BusinessDTO {
	if m == nil {
		return nil
	}
	return &BusinessDTO{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		OwnerUsername: m.OwnerUsername,
		Email:         m.Email,
		Phone:         m.Phone,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
