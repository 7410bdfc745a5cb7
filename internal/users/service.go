package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/config"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/db"
	dbtypes "github.com/omarsegovia/pipelinecrm-backend/pkg/db/types"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/logger"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/mailer"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/security"
)

const tempPasswordLength = 16

// TxRunner executes a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InviteInput captures the fields an admin provides when inviting a user.
type InviteInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      enums.UserRole
	ManagerID *uuid.UUID
}

// Service is the user directory: reads scoped by role, the trash view, and
// the invite flow. Lifecycle transitions live in the lifecycle package.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, requesterID uuid.UUID, role enums.UserRole) ([]UserDTO, error)
	ListTrash(ctx context.Context) ([]UserDTO, error)
	Invite(ctx context.Context, invitedBy uuid.UUID, ip *string, input InviteInput) (*UserDTO, error)
}

type service struct {
	tx          TxRunner
	repo        Repository
	audit       audit.Service
	mail        mailer.Sender
	logg        *logger.Logger
	passwordCfg config.PasswordConfig
}

// NewService builds the directory service. Mail is optional.
func NewService(
	tx TxRunner,
	repo Repository,
	auditSvc audit.Service,
	mail mailer.Sender,
	logg *logger.Logger,
	passwordCfg config.PasswordConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		audit:       auditSvc,
		mail:        mail,
		logg:        logg,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return FromModel(user), nil
}

// List applies role scoping: admins see everyone, managers see themselves and
// their direct reports, reps see only themselves.
func (s *service) List(ctx context.Context, requesterID uuid.UUID, role enums.UserRole) ([]UserDTO, error) {
	if requesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requester id is required")
	}

	switch role {
	case enums.UserRoleAdmin:
		users, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
		}
		return FromModels(users), nil

	case enums.UserRoleSalesManager:
		users, err := s.repo.ListTeam(ctx, requesterID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list team")
		}
		return FromModels(users), nil

	case enums.UserRoleSalesRep:
		self, err := s.Get(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		return []UserDTO{*self}, nil

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
}

// ListTrash returns soft-deleted users. Access is gated at the router (admin
// only).
func (s *service) ListTrash(ctx context.Context) ([]UserDTO, error) {
	users, err := s.repo.ListDeleted(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deleted users")
	}
	return FromModels(users), nil
}

// Invite creates a user with a temporary credential and setup pending, writes
// the CREATE audit entry in the same transaction, and mails the credential
// after commit.
func (s *service) Invite(ctx context.Context, invitedBy uuid.UUID, ip *string, input InviteInput) (*UserDTO, error) {
	if invitedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inviter id is required")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.FirstName == "" || input.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email, first name, and last name are required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash temp password")
	}

	var created *UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.Create(ctx, CreateUserDTO{
			Email:        input.Email,
			PasswordHash: hash,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Role:         input.Role,
			ManagerID:    input.ManagerID,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "idx_users_email") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email is already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			PerformedBy: invitedBy,
			Action:      enums.AuditActionCreate,
			EntityType:  enums.AuditEntityUser,
			EntityID:    user.ID,
			Details:     dbtypes.AuditDetails{Message: fmt.Sprintf("Invited %s", user.FullName())},
			IPAddress:   ip,
		}); err != nil {
			return err
		}

		created = FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mail != nil {
		body := fmt.Sprintf("You have been invited to PipelineCRM. Sign in with the temporary password %s and finish your account setup.", tempPassword)
		if mailErr := s.mail.Send(ctx, created.Email, "You're invited to PipelineCRM", body); mailErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "recipient", created.Email), "invite mail failed: "+mailErr.Error())
		}
	}
	return created, nil
}
