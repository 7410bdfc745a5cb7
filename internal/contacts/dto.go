package contacts

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
)

// ContactDTO is the transport shape for a contact record.
type ContactDTO struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateContactInput captures the fields accepted on creation.
type CreateContactInput struct {
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
}

func FromModel(c *models.Contact) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		CompanyID: c.CompanyID,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromModels(contacts []models.Contact) []ContactDTO {
	dtos := make([]ContactDTO, 0, len(contacts))
	for i := range contacts {
		dtos = append(dtos, *FromModel(&contacts[i]))
	}
	return dtos
}

func (c CreateContactInput) toModel(ownerID uuid.UUID) *models.Contact {
	return &models.Contact{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		CompanyID: c.CompanyID,
		OwnerID:   ownerID,
	}
}
