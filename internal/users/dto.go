package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
)

// UserDTO is the transport shape that omits the password hash.
type UserDTO struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Role            enums.UserRole  `json:"role"`
	ManagerID       *uuid.UUID      `json:"manager_id,omitempty"`
	State           enums.UserState `json:"state"`
	IsActive        bool            `json:"is_active"`
	IsSetupComplete bool            `json:"is_setup_complete"`
	IsDeleted       bool            `json:"is_deleted"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
	LastLoginAt     *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.UserRole
	ManagerID    *uuid.UUID
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		ManagerID:       u.ManagerID,
		State:           enums.DeriveUserState(u.IsActive, u.IsSetupComplete, u.IsDeleted),
		IsActive:        u.IsActive,
		IsSetupComplete: u.IsSetupComplete,
		IsDeleted:       u.IsDeleted,
		DeletedAt:       u.DeletedAt,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func FromModels(models []models.User) []UserDTO {
	dtos := make([]UserDTO, 0, len(models))
	for i := range models {
		dtos = append(dtos, *FromModel(&models[i]))
	}
	return dtos
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:           c.Email,
		PasswordHash:    c.PasswordHash,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Role:            c.Role,
		ManagerID:       c.ManagerID,
		IsActive:        true,
		IsSetupComplete: false,
	}
}
