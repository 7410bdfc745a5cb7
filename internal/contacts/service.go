package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	dbtypes "github.com/omarsegovia/pipelinecrm-backend/pkg/db/types"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
)

// TxRunner executes a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type teamLister interface {
	ListTeam(ctx context.Context, managerID uuid.UUID) ([]models.User, error)
}

// Service exposes contact reads scoped by role and owner-stamped creation.
type Service interface {
	Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*ContactDTO, error)
	List(ctx context.Context, actorID uuid.UUID, role enums.UserRole) ([]ContactDTO, error)
	Create(ctx context.Context, actorID uuid.UUID, role enums.UserRole, ip *string, input CreateContactInput) (*ContactDTO, error)
}

type service struct {
	tx    TxRunner
	repo  Repository
	users teamLister
	audit audit.Service
}

// NewService builds a contacts service with the provided dependencies.
func NewService(tx TxRunner, repo Repository, users teamLister, auditSvc audit.Service) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("contacts repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{tx: tx, repo: repo, users: users, audit: auditSvc}, nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*ContactDTO, error) {
	contact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
	}

	visible, err := s.canSee(ctx, actorID, role, contact.OwnerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
	}
	return FromModel(contact), nil
}

func (s *service) List(ctx context.Context, actorID uuid.UUID, role enums.UserRole) ([]ContactDTO, error) {
	owners, all, err := s.visibleOwners(ctx, actorID, role)
	if err != nil {
		return nil, err
	}

	var contacts []models.Contact
	if all {
		contacts, err = s.repo.ListAll(ctx)
	} else {
		contacts, err = s.repo.ListByOwners(ctx, owners)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}
	return FromModels(contacts), nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, role enums.UserRole, ip *string, input CreateContactInput) (*ContactDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if input.FirstName == "" || input.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact first and last name are required")
	}

	var created *ContactDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		contact := input.toModel(actorID)
		if err := s.repo.WithTx(tx).Create(ctx, contact); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contact")
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			PerformedBy: actorID,
			Action:      enums.AuditActionCreate,
			EntityType:  enums.AuditEntityContact,
			EntityID:    contact.ID,
			Details:     dbtypes.AuditDetails{Message: fmt.Sprintf("Created contact %s %s", contact.FirstName, contact.LastName)},
			IPAddress:   ip,
		}); err != nil {
			return err
		}

		created = FromModel(contact)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) canSee(ctx context.Context, actorID uuid.UUID, role enums.UserRole, ownerID uuid.UUID) (bool, error) {
	owners, all, err := s.visibleOwners(ctx, actorID, role)
	if err != nil {
		return false, err
	}
	if all {
		return true, nil
	}
	for _, id := range owners {
		if id == ownerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) visibleOwners(ctx context.Context, actorID uuid.UUID, role enums.UserRole) ([]uuid.UUID, bool, error) {
	switch role {
	case enums.UserRoleAdmin:
		return nil, true, nil
	case enums.UserRoleSalesManager:
		team, err := s.users.ListTeam(ctx, actorID)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list team")
		}
		ids := make([]uuid.UUID, 0, len(team))
		for _, member := range team {
			ids = append(ids, member.ID)
		}
		return ids, false, nil
	case enums.UserRoleSalesRep:
		return []uuid.UUID{actorID}, false, nil
	default:
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
}
