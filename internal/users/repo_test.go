package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
)

func TestGuardedStateMutators(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	user := seedUser(t, db, enums.UserRoleSalesRep, true, false)

	// Deactivating an active user flips exactly one row.
	affected, err := repo.MarkInactive(ctx, user.ID)
	if err != nil {
		t.Fatalf("mark inactive: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	// Doing it again matches nothing: the precondition lives in the WHERE.
	affected, err = repo.MarkInactive(ctx, user.ID)
	if err != nil {
		t.Fatalf("mark inactive twice: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows on repeat, got %d", affected)
	}

	affected, err = repo.MarkActive(ctx, user.ID)
	if err != nil {
		t.Fatalf("mark active: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected reactivation to hit 1 row, got %d", affected)
	}
}

func TestMarkDeletedForcesInactive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	user := seedUser(t, db, enums.UserRoleSalesRep, true, false)
	now := time.Now().UTC()

	affected, err := repo.MarkDeleted(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row, got %d", affected)
	}

	var reloaded models.User
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsActive || !reloaded.IsDeleted || reloaded.DeletedAt == nil {
		t.Fatalf("unexpected state after delete: %+v", reloaded)
	}

	// A deleted user cannot be activated through the guarded update.
	affected, err = repo.MarkActive(ctx, user.ID)
	if err != nil {
		t.Fatalf("mark active on deleted: %v", err)
	}
	if affected != 0 {
		t.Fatal("guard must block activating a deleted user")
	}

	affected, err = repo.MarkRestored(ctx, user.ID)
	if err != nil {
		t.Fatalf("mark restored: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected restore to hit 1 row, got %d", affected)
	}

	// Reload into a fresh struct: GORM leaves a pre-set pointer field
	// untouched when the column scans back as NULL.
	reloaded = models.User{}
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsDeleted || reloaded.DeletedAt != nil || reloaded.IsActive {
		t.Fatalf("restore must leave user deactivated: %+v", reloaded)
	}
}

func TestListScopingQueries(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	manager := seedUser(t, db, enums.UserRoleSalesManager, true, false)
	seedUserWithManager(t, db, manager.ID)
	seedUserWithManager(t, db, manager.ID)
	other := seedUser(t, db, enums.UserRoleSalesRep, true, false)
	deleted := seedUser(t, db, enums.UserRoleSalesRep, false, true)

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 non-deleted users, got %d", len(all))
	}
	for _, u := range all {
		if u.ID == deleted.ID {
			t.Fatal("deleted user leaked into ListAll")
		}
	}

	team, err := repo.ListTeam(ctx, manager.ID)
	if err != nil {
		t.Fatalf("list team: %v", err)
	}
	if len(team) != 3 {
		t.Fatalf("expected manager + 2 reports, got %d", len(team))
	}
	for _, u := range team {
		if u.ID == other.ID {
			t.Fatal("unrelated rep leaked into team listing")
		}
	}
	foundManager := false
	for _, u := range team {
		if u.ID == manager.ID {
			foundManager = true
		}
	}
	if !foundManager {
		t.Fatal("manager missing from own team listing")
	}

	trash, err := repo.ListDeleted(ctx)
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != deleted.ID {
		t.Fatalf("unexpected trash contents: %d", len(trash))
	}
}

func TestCompleteSetupGuard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	invited := seedUser(t, db, enums.UserRoleSalesRep, true, false)
	inactive := seedUser(t, db, enums.UserRoleSalesRep, false, false)

	affected, err := repo.CompleteSetup(ctx, invited.ID, "new-hash")
	if err != nil {
		t.Fatalf("complete setup: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected setup to hit 1 row, got %d", affected)
	}

	var reloaded models.User
	if err := db.First(&reloaded, "id = ?", invited.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsSetupComplete || reloaded.PasswordHash != "new-hash" {
		t.Fatalf("setup not persisted: %+v", reloaded)
	}

	affected, err = repo.CompleteSetup(ctx, inactive.ID, "other-hash")
	if err != nil {
		t.Fatalf("complete setup inactive: %v", err)
	}
	if affected != 0 {
		t.Fatal("inactive users must not complete setup")
	}
}

func seedUser(t *testing.T, db *gorm.DB, role enums.UserRole, active, deleted bool) *models.User {
	t.Helper()
	var deletedAt *time.Time
	if deleted {
		now := time.Now().UTC()
		deletedAt = &now
	}
	user := &models.User{
		ID:              uuid.New(),
		Email:           uuid.NewString() + "@pipelinecrm.io",
		PasswordHash:    "x",
		FirstName:       "Jo",
		LastName:        "Reyes",
		Role:            role,
		IsActive:        active,
		IsSetupComplete: false,
		IsDeleted:       deleted,
		DeletedAt:       deletedAt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	// is_active defaults to true, so GORM omits a false zero value on insert;
	// persist the requested inactive state explicitly.
	if !active {
		if err := db.Model(user).UpdateColumn("is_active", false).Error; err != nil {
			t.Fatalf("seed user inactive: %v", err)
		}
	}
	return user
}

func seedUserWithManager(t *testing.T, db *gorm.DB, managerID uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@pipelinecrm.io",
		PasswordHash: "x",
		FirstName:    "Sam",
		LastName:     "Cole",
		Role:         enums.UserRoleSalesRep,
		ManagerID:    &managerID,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return user
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate users: %v", err)
	}
	return db
}
