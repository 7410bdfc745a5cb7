package deals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/internal/users"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB, audit.Repository) {
	t.Helper()
	dsn := "file:deals_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Deal{}, &models.AuditEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	auditRepo := audit.NewRepository(db)
	auditSvc, err := audit.NewService(auditRepo)
	if err != nil {
		t.Fatalf("audit service: %v", err)
	}
	svc, err := NewService(testTxRunner{db: db}, NewRepository(db), users.NewRepository(db), auditSvc)
	if err != nil {
		t.Fatalf("deals service: %v", err)
	}
	return svc, db, auditRepo
}

func seedRep(t *testing.T, db *gorm.DB, managerID *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@pipelinecrm.io",
		PasswordHash: "x",
		FirstName:    "Jo",
		LastName:     "Reyes",
		Role:         enums.UserRoleSalesRep,
		ManagerID:    managerID,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreateStampsOwnerAndAudits(t *testing.T) {
	t.Parallel()

	svc, db, auditRepo := newTestService(t)
	ctx := context.Background()
	rep := seedRep(t, db, nil)

	dto, err := svc.Create(ctx, rep.ID, enums.UserRoleSalesRep, nil, CreateDealInput{
		Title:  "Annual renewal",
		Amount: decimal.RequireFromString("12500.50"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.OwnerID != rep.ID {
		t.Fatalf("expected owner stamped from actor, got %s", dto.OwnerID)
	}
	if dto.Stage != enums.DealStageLead {
		t.Fatalf("expected default lead stage, got %s", dto.Stage)
	}
	if !dto.Amount.Equal(decimal.RequireFromString("12500.50")) {
		t.Fatalf("amount mismatch: %s", dto.Amount)
	}

	_, total, err := auditRepo.List(ctx, audit.ListFilters{
		Action:     enums.AuditActionCreate,
		EntityType: enums.AuditEntityDeal,
	}, pagination.Params{})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one CREATE audit entry, got %d", total)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	rep := seedRep(t, db, nil)

	_, err := svc.Create(context.Background(), rep.ID, enums.UserRoleSalesRep, nil, CreateDealInput{Title: "  "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for empty title, got %v", err)
	}

	_, err = svc.Create(context.Background(), rep.ID, enums.UserRoleSalesRep, nil, CreateDealInput{
		Title: "Bad stage",
		Stage: "daydream",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for bad stage, got %v", err)
	}

	_, err = svc.Create(context.Background(), rep.ID, enums.UserRoleSalesRep, nil, CreateDealInput{
		Title:  "Negative",
		Amount: decimal.RequireFromString("-5"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for negative amount, got %v", err)
	}
}

func TestListAndGetScoping(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()

	manager := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@pipelinecrm.io",
		PasswordHash: "x",
		FirstName:    "Mara",
		LastName:     "Lund",
		Role:         enums.UserRoleSalesManager,
		IsActive:     true,
	}
	if err := db.Create(manager).Error; err != nil {
		t.Fatalf("seed manager: %v", err)
	}
	report := seedRep(t, db, &manager.ID)
	outsider := seedRep(t, db, nil)

	reportDeal, err := svc.Create(ctx, report.ID, enums.UserRoleSalesRep, nil, CreateDealInput{Title: "Team deal"})
	if err != nil {
		t.Fatalf("create report deal: %v", err)
	}
	if _, err := svc.Create(ctx, outsider.ID, enums.UserRoleSalesRep, nil, CreateDealInput{Title: "Outside deal"}); err != nil {
		t.Fatalf("create outsider deal: %v", err)
	}

	// Manager sees the report's deal, not the outsider's.
	visible, err := svc.List(ctx, manager.ID, enums.UserRoleSalesManager)
	if err != nil {
		t.Fatalf("manager list: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != reportDeal.ID {
		t.Fatalf("unexpected manager visibility: %d deals", len(visible))
	}

	// The outsider cannot read the report's deal.
	_, err = svc.Get(ctx, outsider.ID, enums.UserRoleSalesRep, reportDeal.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for out-of-scope deal, got %v", err)
	}

	// Admins see everything.
	all, err := svc.List(ctx, uuid.New(), enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 deals for admin, got %d", len(all))
	}
}
