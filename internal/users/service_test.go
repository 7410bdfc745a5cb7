package users

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/config"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/pagination"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/security"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type captureMailer struct {
	to      []string
	subject []string
	body    []string
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

func newTestService(t *testing.T) (Service, *gorm.DB, *captureMailer, audit.Repository) {
	t.Helper()
	db := newTestDB(t)
	if err := db.AutoMigrate(&models.AuditEntry{}); err != nil {
		t.Fatalf("migrate audit entries: %v", err)
	}

	auditRepo := audit.NewRepository(db)
	auditSvc, err := audit.NewService(auditRepo)
	if err != nil {
		t.Fatalf("audit service: %v", err)
	}
	mail := &captureMailer{}
	svc, err := NewService(testTxRunner{db: db}, NewRepository(db), auditSvc, mail, nil, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("users service: %v", err)
	}
	return svc, db, mail, auditRepo
}

func TestInviteCreatesUserWithAuditAndMail(t *testing.T) {
	t.Parallel()

	svc, db, mail, auditRepo := newTestService(t)
	ctx := context.Background()
	admin := seedUser(t, db, enums.UserRoleAdmin, true, false)

	dto, err := svc.Invite(ctx, admin.ID, nil, InviteInput{
		Email:     "New.Rep@PipelineCRM.io",
		FirstName: "Nadia",
		LastName:  "Okafor",
		Role:      enums.UserRoleSalesRep,
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if dto.Email != "new.rep@pipelinecrm.io" {
		t.Fatalf("expected lowercased email, got %s", dto.Email)
	}
	if dto.State != enums.UserStateInvited {
		t.Fatalf("expected invited state, got %s", dto.State)
	}

	var stored models.User
	if err := db.First(&stored, "id = ?", dto.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.IsSetupComplete || !stored.IsActive {
		t.Fatalf("unexpected flags on invited user: %+v", stored)
	}

	// Temp credential is hashed, never stored raw, and arrives by mail.
	if len(mail.to) != 1 || mail.to[0] != dto.Email {
		t.Fatalf("expected one invite mail, got %v", mail.to)
	}
	rawPassword := extractTempPassword(t, mail.body[0])
	ok, err := security.VerifyPassword(rawPassword, stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("mailed password does not verify against stored hash: ok=%v err=%v", ok, err)
	}

	_, total, err := auditRepo.List(ctx, audit.ListFilters{Action: enums.AuditActionCreate}, pagination.Params{})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one CREATE audit entry, got %d", total)
	}
}

func TestInviteRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newTestService(t)
	ctx := context.Background()
	admin := seedUser(t, db, enums.UserRoleAdmin, true, false)
	existing := seedUser(t, db, enums.UserRoleSalesRep, true, false)

	_, err := svc.Invite(ctx, admin.ID, nil, InviteInput{
		Email:     existing.Email,
		FirstName: "Dup",
		LastName:  "User",
		Role:      enums.UserRoleSalesRep,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInviteValidation(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newTestService(t)
	admin := seedUser(t, db, enums.UserRoleAdmin, true, false)

	cases := map[string]InviteInput{
		"missing email": {FirstName: "A", LastName: "B", Role: enums.UserRoleSalesRep},
		"missing name":  {Email: "a@b.io", Role: enums.UserRoleSalesRep},
		"bad role":      {Email: "a@b.io", FirstName: "A", LastName: "B", Role: "intern"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Invite(context.Background(), admin.ID, nil, input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListScopesByRole(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newTestService(t)
	ctx := context.Background()

	admin := seedUser(t, db, enums.UserRoleAdmin, true, false)
	manager := seedUser(t, db, enums.UserRoleSalesManager, true, false)
	seedUserWithManager(t, db, manager.ID)
	rep := seedUser(t, db, enums.UserRoleSalesRep, true, false)

	all, err := svc.List(ctx, admin.ID, enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected admin to see 4 users, got %d", len(all))
	}

	team, err := svc.List(ctx, manager.ID, enums.UserRoleSalesManager)
	if err != nil {
		t.Fatalf("manager list: %v", err)
	}
	if len(team) != 2 {
		t.Fatalf("expected manager to see self + report, got %d", len(team))
	}

	own, err := svc.List(ctx, rep.ID, enums.UserRoleSalesRep)
	if err != nil {
		t.Fatalf("rep list: %v", err)
	}
	if len(own) != 1 || own[0].ID != rep.ID {
		t.Fatalf("expected rep to see only self, got %d", len(own))
	}
}

func TestGetHidesDeletedUsers(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newTestService(t)
	deleted := seedUser(t, db, enums.UserRoleSalesRep, false, true)

	_, err := svc.Get(context.Background(), deleted.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for deleted user, got %v", err)
	}

	trash, err := svc.ListTrash(context.Background())
	if err != nil {
		t.Fatalf("list trash: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != deleted.ID || trash[0].State != enums.UserStateDeleted {
		t.Fatalf("unexpected trash view: %+v", trash)
	}
}

func extractTempPassword(t *testing.T, body string) string {
	t.Helper()
	const marker = "temporary password "
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("mail body missing credential: %q", body)
	}
	rest := body[idx+len(marker):]
	if end := strings.IndexByte(rest, ' '); end > 0 {
		return rest[:end]
	}
	return rest
}
