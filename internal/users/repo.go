package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
)

// Repository exposes user persistence operations. The lifecycle engine runs
// several of these inside one transaction, so the repo can be rebound with
// WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	ListTeam(ctx context.Context, managerID uuid.UUID) ([]models.User, error)
	ListDeleted(ctx context.Context) ([]models.User, error)
	MarkInactive(ctx context.Context, id uuid.UUID) (int64, error)
	MarkActive(ctx context.Context, id uuid.UUID) (int64, error)
	MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	MarkRestored(ctx context.Context, id uuid.UUID) (int64, error)
	CompleteSetup(ctx context.Context, id uuid.UUID, passwordHash string) (int64, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID, deleted users included.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListAll returns every non-deleted user.
func (r *repository) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListTeam returns the manager plus their direct reports, deleted excluded.
func (r *repository) ListTeam(ctx context.Context, managerID uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("id = ? OR manager_id = ?", managerID, managerID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListDeleted returns soft-deleted users for the trash view.
func (r *repository) ListDeleted(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", true).
		Order("deleted_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// MarkInactive flips an active, non-deleted user to inactive. The precondition
// lives in the WHERE clause: zero rows affected means another writer got there
// first or the user was never in the expected state.
func (r *repository) MarkInactive(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active = ? AND is_deleted = ?", id, true, false).
		UpdateColumn("is_active", false)
	return res.RowsAffected, res.Error
}

// MarkActive flips an inactive, non-deleted user back to active.
func (r *repository) MarkActive(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active = ? AND is_deleted = ?", id, false, false).
		UpdateColumn("is_active", true)
	return res.RowsAffected, res.Error
}

// MarkDeleted soft-deletes a user that has not been deleted yet. Deleting
// forces is_active off so a deleted user can never authenticate.
func (r *repository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumns(map[string]any{
			"is_active":  false,
			"is_deleted": true,
			"deleted_at": at,
		})
	return res.RowsAffected, res.Error
}

// MarkRestored clears the deletion flags. The user comes back deactivated and
// has to be activated explicitly.
func (r *repository) MarkRestored(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", id, true).
		UpdateColumns(map[string]any{
			"is_deleted": false,
			"deleted_at": nil,
		})
	return res.RowsAffected, res.Error
}

// CompleteSetup stores the chosen password and marks setup done for a user
// that is still enabled.
func (r *repository) CompleteSetup(ctx context.Context, id uuid.UUID, passwordHash string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active = ? AND is_deleted = ?", id, true, false).
		UpdateColumns(map[string]any{
			"password_hash":     passwordHash,
			"is_setup_complete": true,
		})
	return res.RowsAffected, res.Error
}

// UpdatePasswordHash overwrites the stored credential.
func (r *repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
