package contacts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
)

// Repository manages contact persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	ListAll(ctx context.Context) ([]models.Contact, error)
	ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Contact, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a contacts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Contact, error) {
	var contacts []models.Contact
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repository) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Contact, error) {
	var contacts []models.Contact
	if err := r.db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("created_at DESC").
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}
