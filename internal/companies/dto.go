package companies

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
)

// CompanyDTO is the transport shape for a company record.
type CompanyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Domain    *string   `json:"domain,omitempty"`
	Industry  *string   `json:"industry,omitempty"`
	Tags      []string  `json:"tags"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCompanyInput captures the fields accepted on creation. OwnerID is
// stamped from the authenticated actor, never from the request body.
type CreateCompanyInput struct {
	Name     string   `json:"name" validate:"required"`
	Domain   *string  `json:"domain,omitempty"`
	Industry *string  `json:"industry,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func FromModel(c *models.Company) *CompanyDTO {
	if c == nil {
		return nil
	}
	return &CompanyDTO{
		ID:        c.ID,
		Name:      c.Name,
		Domain:    c.Domain,
		Industry:  c.Industry,
		Tags:      append([]string(nil), []string(c.Tags)...),
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromModels(companies []models.Company) []CompanyDTO {
	dtos := make([]CompanyDTO, 0, len(companies))
	for i := range companies {
		dtos = append(dtos, *FromModel(&companies[i]))
	}
	return dtos
}

func (c CreateCompanyInput) toModel(ownerID uuid.UUID) *models.Company {
	return &models.Company{
		Name:     c.Name,
		Domain:   c.Domain,
		Industry: c.Industry,
		Tags:     pq.StringArray(c.Tags),
		OwnerID:  ownerID,
	}
}
