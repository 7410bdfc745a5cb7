package deals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
)

// Repository manages deal persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, deal *models.Deal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	ListAll(ctx context.Context) ([]models.Deal, error)
	ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Deal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a deals repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, deal *models.Deal) error {
	return r.db.WithContext(ctx).Create(deal).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	if err := r.db.WithContext(ctx).First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Deal, error) {
	var deals []models.Deal
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

func (r *repository) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Deal, error) {
	var deals []models.Deal
	if err := r.db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("created_at DESC").
		Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}
