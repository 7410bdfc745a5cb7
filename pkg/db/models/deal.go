package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
)

// Deal is an owned record representing a pipeline opportunity.
type Deal struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Title     string          `gorm:"column:title;not null"`
	Stage     enums.DealStage `gorm:"column:stage;not null;default:'lead'"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	CompanyID *uuid.UUID      `gorm:"column:company_id;type:uuid;index"`
	ContactID *uuid.UUID      `gorm:"column:contact_id;type:uuid;index"`
	OwnerID   uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index"`
	ClosedAt  *time.Time      `gorm:"column:closed_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Deal) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
