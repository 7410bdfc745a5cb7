package companies

import (
	"context"
	"testing"

	"github.com/google/uuid"
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
	dsn := "file:companies_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Company{}, &models.AuditEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	auditRepo := audit.NewRepository(db)
	auditSvc, err := audit.NewService(auditRepo)
	if err != nil {
		t.Fatalf("audit service: %v", err)
	}
	svc, err := NewService(testTxRunner{db: db}, NewRepository(db), users.NewRepository(db), auditSvc)
	if err != nil {
		t.Fatalf("companies service: %v", err)
	}
	return svc, db, auditRepo
}

func TestCreateCompanyWithTagsAndAudit(t *testing.T) {
	t.Parallel()

	svc, db, auditRepo := newTestService(t)
	ctx := context.Background()

	rep := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@pipelinecrm.io",
		PasswordHash: "x",
		FirstName:    "Jo",
		LastName:     "Reyes",
		Role:         enums.UserRoleSalesRep,
		IsActive:     true,
	}
	if err := db.Create(rep).Error; err != nil {
		t.Fatalf("seed rep: %v", err)
	}

	domain := "acme.io"
	dto, err := svc.Create(ctx, rep.ID, enums.UserRoleSalesRep, nil, CreateCompanyInput{
		Name:   "Acme",
		Domain: &domain,
		Tags:   []string{"enterprise", "priority"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.OwnerID != rep.ID {
		t.Fatalf("expected owner stamped, got %s", dto.OwnerID)
	}
	if len(dto.Tags) != 2 {
		t.Fatalf("tags lost: %v", dto.Tags)
	}

	loaded, err := svc.Get(ctx, rep.ID, enums.UserRoleSalesRep, dto.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Tags[0] != "enterprise" || loaded.Tags[1] != "priority" {
		t.Fatalf("tags did not round-trip: %v", loaded.Tags)
	}

	_, total, err := auditRepo.List(ctx, audit.ListFilters{
		Action:     enums.AuditActionCreate,
		EntityType: enums.AuditEntityCompany,
	}, pagination.Params{})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one CREATE audit entry, got %d", total)
	}
}

func TestCreateCompanyRequiresName(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), uuid.New(), enums.UserRoleSalesRep, nil, CreateCompanyInput{Name: "   "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
