package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is an owned record tied to an optional company.
type Contact struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FirstName string     `gorm:"column:first_name;not null"`
	LastName  string     `gorm:"column:last_name;not null"`
	Email     *string    `gorm:"column:email"`
	Phone     *string    `gorm:"column:phone"`
	CompanyID *uuid.UUID `gorm:"column:company_id;type:uuid;index"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Contact) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
