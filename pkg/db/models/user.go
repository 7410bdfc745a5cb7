package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
)

// User represents the canonical identity entity with its lifecycle fields.
type User struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email           string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    string         `gorm:"column:password_hash;not null"`
	FirstName       string         `gorm:"column:first_name;not null"`
	LastName        string         `gorm:"column:last_name;not null"`
	Role            enums.UserRole `gorm:"column:role;not null"`
	ManagerID       *uuid.UUID     `gorm:"column:manager_id;type:uuid"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true"`
	IsSetupComplete bool           `gorm:"column:is_setup_complete;not null;default:false"`
	IsDeleted       bool           `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt       *time.Time     `gorm:"column:deleted_at"`
	LastLoginAt     *time.Time     `gorm:"column:last_login_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins first and last name for display and audit messages.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// BeforeCreate assigns the primary key client-side so inserts behave the same
// across drivers.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
