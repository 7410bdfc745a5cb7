package audit

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/pagination"
)

// ListFilters narrows the audit query. Zero values mean "no filter".
type ListFilters struct {
	EntityType enums.AuditEntityType
	Action     enums.AuditAction
	Search     string
}

// Repository persists audit entries. The table is append-only: there is no
// update or delete path, on purpose.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.AuditEntry, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns one page of entries, newest first, plus the total match count.
func (r *repository) List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.AuditEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditEntry{})

	if filters.EntityType != "" {
		query = query.Where("entity_type = ?", filters.EntityType)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.Search != "" {
		// ->> works on both the Postgres jsonb column and sqlite's JSON text.
		query = query.Where("LOWER(details ->> 'message') LIKE ?", "%"+strings.ToLower(filters.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditEntry
	if err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
