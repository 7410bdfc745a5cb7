package deals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
)

// DealDTO is the transport shape for a pipeline deal.
type DealDTO struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Stage     enums.DealStage `json:"stage"`
	Amount    decimal.Decimal `json:"amount"`
	CompanyID *uuid.UUID      `json:"company_id,omitempty"`
	ContactID *uuid.UUID      `json:"contact_id,omitempty"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	ClosedAt  *time.Time      `json:"closed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateDealInput captures the fields accepted on creation. An empty stage
// defaults to lead.
type CreateDealInput struct {
	Title     string          `json:"title" validate:"required"`
	Stage     enums.DealStage `json:"stage,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	CompanyID *uuid.UUID      `json:"company_id,omitempty"`
	ContactID *uuid.UUID      `json:"contact_id,omitempty"`
}

func FromModel(d *models.Deal) *DealDTO {
	if d == nil {
		return nil
	}
	return &DealDTO{
		ID:        d.ID,
		Title:     d.Title,
		Stage:     d.Stage,
		Amount:    d.Amount,
		CompanyID: d.CompanyID,
		ContactID: d.ContactID,
		OwnerID:   d.OwnerID,
		ClosedAt:  d.ClosedAt,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func FromModels(deals []models.Deal) []DealDTO {
	dtos := make([]DealDTO, 0, len(deals))
	for i := range deals {
		dtos = append(dtos, *FromModel(&deals[i]))
	}
	return dtos
}

func (c CreateDealInput) toModel(ownerID uuid.UUID) *models.Deal {
	stage := c.Stage
	if stage == "" {
		stage = enums.DealStageLead
	}
	return &models.Deal{
		Title:     c.Title,
		Stage:     stage,
		Amount:    c.Amount,
		CompanyID: c.CompanyID,
		ContactID: c.ContactID,
		OwnerID:   ownerID,
	}
}
