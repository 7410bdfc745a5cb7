package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Company is an owned record: owner_id always references a user.
type Company struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Domain    *string        `gorm:"column:domain"`
	Industry  *string        `gorm:"column:industry"`
	Tags      pq.StringArray `gorm:"type:text[];column:tags"`
	OwnerID   uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Company) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
