package ownership

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
)

// Repository spans every owned record type (companies, contacts, deals). The
// lifecycle engine rebinds it with WithTx so reassignment commits or rolls
// back together with the user state change.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CountOwnedBy(ctx context.Context, userID uuid.UUID) (int64, error)
	ReassignAllOwnedBy(ctx context.Context, fromUserID, toUserID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an ownership repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CountOwnedBy totals the records across all three owned tables.
func (r *repository) CountOwnedBy(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64

	for _, model := range []any{&models.Company{}, &models.Contact{}, &models.Deal{}} {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(model).
			Where("owner_id = ?", userID).
			Count(&count).Error; err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// ReassignAllOwnedBy moves every owned record from one user to another and
// returns the number of rows moved. Callers are expected to run this inside a
// transaction; a partial move is never left behind because any error aborts
// the enclosing tx.
func (r *repository) ReassignAllOwnedBy(ctx context.Context, fromUserID, toUserID uuid.UUID) (int64, error) {
	var moved int64

	for _, model := range []any{&models.Company{}, &models.Contact{}, &models.Deal{}} {
		res := r.db.WithContext(ctx).
			Model(model).
			Where("owner_id = ?", fromUserID).
			UpdateColumn("owner_id", toUserID)
		if res.Error != nil {
			return 0, res.Error
		}
		moved += res.RowsAffected
	}
	return moved, nil
}
