package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/omarsegovia/pipelinecrm-backend/pkg/db/types"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
)

// AuditEntry is an append-only record of a lifecycle- or ownership-affecting
// action. Entries are never updated or deleted once written.
type AuditEntry struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey"`
	PerformedBy uuid.UUID             `gorm:"column:performed_by;type:uuid;not null;index"`
	Action      enums.AuditAction     `gorm:"column:action;not null;index"`
	EntityType  enums.AuditEntityType `gorm:"column:entity_type;not null;index"`
	EntityID    uuid.UUID             `gorm:"column:entity_id;type:uuid;not null"`
	Details     dbtypes.AuditDetails  `gorm:"column:details;type:jsonb"`
	IPAddress   *string               `gorm:"column:ip_address"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditEntry) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
