package contacts

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
	dsn := "file:contacts_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Contact{}, &models.AuditEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	auditRepo := audit.NewRepository(db)
	auditSvc, err := audit.NewService(auditRepo)
	if err != nil {
		t.Fatalf("audit service: %v", err)
	}
	svc, err := NewService(testTxRunner{db: db}, NewRepository(db), users.NewRepository(db), auditSvc)
	if err != nil {
		t.Fatalf("contacts service: %v", err)
	}
	return svc, db, auditRepo
}

func TestCreateContactStampsOwnerAndAudits(t *testing.T) {
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

	email := "dana@acme.io"
	dto, err := svc.Create(ctx, rep.ID, enums.UserRoleSalesRep, nil, CreateContactInput{
		FirstName: "Dana",
		LastName:  "Whitfield",
		Email:     &email,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.OwnerID != rep.ID {
		t.Fatalf("expected owner stamped from actor, got %s", dto.OwnerID)
	}

	loaded, err := svc.Get(ctx, rep.ID, enums.UserRoleSalesRep, dto.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Email == nil || *loaded.Email != email {
		t.Fatalf("email did not round-trip: %v", loaded.Email)
	}

	_, total, err := auditRepo.List(ctx, audit.ListFilters{
		Action:     enums.AuditActionCreate,
		EntityType: enums.AuditEntityContact,
	}, pagination.Params{})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one CREATE audit entry, got %d", total)
	}
}

func TestCreateContactRequiresNames(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New(), enums.UserRoleSalesRep, nil, CreateContactInput{FirstName: "   ", LastName: "Whitfield"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for blank first name, got %v", err)
	}

	_, err = svc.Create(context.Background(), uuid.New(), enums.UserRoleSalesRep, nil, CreateContactInput{FirstName: "Dana"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for missing last name, got %v", err)
	}
}
