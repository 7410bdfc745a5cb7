package companies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
)

// Repository manages company persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListAll(ctx context.Context) ([]models.Company, error)
	ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Company, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a companies repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repository) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Company, error) {
	var companies []models.Company
	if err := r.db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("created_at DESC").
		Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}
