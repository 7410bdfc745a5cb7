package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	dbtypes "github.com/omarsegovia/pipelinecrm-backend/pkg/db/types"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
)

// EntryDTO is the transport shape for a single audit entry.
type EntryDTO struct {
	ID          uuid.UUID             `json:"id"`
	PerformedBy uuid.UUID             `json:"performed_by"`
	Action      enums.AuditAction     `json:"action"`
	EntityType  enums.AuditEntityType `json:"entity_type"`
	EntityID    uuid.UUID             `json:"entity_id"`
	Details     dbtypes.AuditDetails  `json:"details"`
	IPAddress   *string               `json:"ip_address,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// RecordInput captures the immutable data an audit entry requires.
type RecordInput struct {
	PerformedBy uuid.UUID
	Action      enums.AuditAction
	EntityType  enums.AuditEntityType
	EntityID    uuid.UUID
	Details     dbtypes.AuditDetails
	IPAddress   *string
}

func FromModel(e *models.AuditEntry) *EntryDTO {
	if e == nil {
		return nil
	}
	return &EntryDTO{
		ID:          e.ID,
		PerformedBy: e.PerformedBy,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Details:     e.Details,
		IPAddress:   e.IPAddress,
		CreatedAt:   e.CreatedAt,
	}
}

func FromModels(entries []models.AuditEntry) []EntryDTO {
	dtos := make([]EntryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, *FromModel(&entries[i]))
	}
	return dtos
}
