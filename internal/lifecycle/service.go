package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/internal/ownership"
	"github.com/omarsegovia/pipelinecrm-backend/internal/users"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	dbtypes "github.com/omarsegovia/pipelinecrm-backend/pkg/db/types"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/logger"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/mailer"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/metrics"
)

// TxRunner executes a function inside one database transaction. Satisfied by
// *db.Client.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies who performs a transition, for the audit trail.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
	IP   *string
}

// TransitionResult reports a completed transition, including how many owned
// records the operation moved.
type TransitionResult struct {
	User         *users.UserDTO `json:"user"`
	RecordsMoved int64          `json:"records_moved"`
	ReassignedTo *uuid.UUID     `json:"reassigned_to,omitempty"`
	Message      string         `json:"message"`
}

// Service drives the user lifecycle state machine. Every mutating operation
// runs as one transaction: precondition check, optional ownership
// reassignment, guarded state update, and the audit entry commit or roll back
// together.
type Service interface {
	Deactivate(ctx context.Context, actor Actor, userID uuid.UUID, reassignTo *uuid.UUID) (*TransitionResult, error)
	Activate(ctx context.Context, actor Actor, userID uuid.UUID) (*TransitionResult, error)
	SoftDelete(ctx context.Context, actor Actor, userID uuid.UUID, reassignTo *uuid.UUID) (*TransitionResult, error)
	Restore(ctx context.Context, actor Actor, userID uuid.UUID) (*TransitionResult, error)
	BulkReassign(ctx context.Context, actor Actor, fromUserID, toUserID uuid.UUID) (*TransitionResult, error)
	CountOwnedBy(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	tx        TxRunner
	users     users.Repository
	ownership ownership.Repository
	audit     audit.Service
	mail      mailer.Sender
	logg      *logger.Logger
	metrics   *metrics.LifecycleMetrics
}

// NewService wires the lifecycle engine. Mail and metrics are optional; the
// transaction runner, repositories, and audit service are not.
func NewService(
	tx TxRunner,
	usersRepo users.Repository,
	ownershipRepo ownership.Repository,
	auditSvc audit.Service,
	mail mailer.Sender,
	logg *logger.Logger,
	m *metrics.LifecycleMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if ownershipRepo == nil {
		return nil, fmt.Errorf("ownership repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{
		tx:        tx,
		users:     usersRepo,
		ownership: ownershipRepo,
		audit:     auditSvc,
		mail:      mail,
		logg:      logg,
		metrics:   m,
	}, nil
}

func (s *service) Deactivate(ctx context.Context, actor Actor, userID uuid.UUID, reassignTo *uuid.UUID) (*TransitionResult, error) {
	if err := validateIDs(userID, reassignTo); err != nil {
		s.metrics.IncTransition("deactivate", false)
		return nil, err
	}

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		user, err := s.loadMutableUser(ctx, usersRepo, userID)
		if err != nil {
			return err
		}
		if user.IsDeleted || !user.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user is not active")
		}

		moved, target, err := s.maybeReassign(ctx, tx, usersRepo, userID, reassignTo)
		if err != nil {
			return err
		}

		affected, err := usersRepo.MarkInactive(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
		}
		if affected == 0 {
			// Another writer changed the state after our read. Rolling back
			// also undoes the reassignment above.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user is no longer active")
		}

		details := transitionDetails(fmt.Sprintf("Deactivated %s", user.FullName()), moved, target)
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			PerformedBy: actor.ID,
			Action:      enums.AuditActionDeactivate,
			EntityType:  enums.AuditEntityUser,
			EntityID:    userID,
			Details:     details,
			IPAddress:   actor.IP,
		}); err != nil {
			return err
		}

		user.IsActive = false
		result = &TransitionResult{
			User:         users.FromModel(user),
			RecordsMoved: moved,
			ReassignedTo: reassignTo,
			Message:      details.Message,
		}
		return nil
	})

	s.metrics.IncTransition("deactivate", err == nil)
	if err != nil {
		return nil, err
	}
	s.metrics.AddReassigned(result.RecordsMoved)
	s.notify(ctx, result.User.Email, "Your account was deactivated",
		"An administrator deactivated your account. Contact them if you believe this is a mistake.")
	return result, nil
}

func (s *service) Activate(ctx context.Context, actor Actor, userID uuid.UUID) (*TransitionResult, error) {
	if userID == uuid.Nil {
		s.metrics.IncTransition("activate", false)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		user, err := s.loadMutableUser(ctx, usersRepo, userID)
		if err != nil {
			return err
		}
		if user.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deleted users must be restored first")
		}
		if user.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user is already active")
		}

		affected, err := usersRepo.MarkActive(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate user")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user state changed concurrently")
		}

		message := fmt.Sprintf("Reactivated %s", user.FullName())
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			PerformedBy: actor.ID,
			Action:      enums.AuditActionActivate,
			EntityType:  enums.AuditEntityUser,
			EntityID:    userID,
			Details:     dbtypes.AuditDetails{Message: message},
			IPAddress:   actor.IP,
		}); err != nil {
			return err
		}

		user.IsActive = true
		result = &TransitionResult{User: users.FromModel(user), Message: message}
		return nil
	})

	s.metrics.IncTransition("activate", err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) SoftDelete(ctx context.Context, actor Actor, userID uuid.UUID, reassignTo *uuid.UUID) (*TransitionResult, error) {
	if err := validateIDs(userID, reassignTo); err != nil {
		s.metrics.IncTransition("delete", false)
		return nil, err
	}

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		user, err := s.loadMutableUser(ctx, usersRepo, userID)
		if err != nil {
			return err
		}
		if user.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user is already deleted")
		}

		moved, target, err := s.maybeReassign(ctx, tx, usersRepo, userID, reassignTo)
		if err != nil {
			return err
		}

		now := nowUTC()
		affected, err := usersRepo.MarkDeleted(ctx, userID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user was deleted concurrently")
		}

		details := transitionDetails(fmt.Sprintf("Deleted %s", user.FullName()), moved, target)
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			PerformedBy: actor.ID,
			Action:      enums.AuditActionDelete,
			EntityType:  enums.AuditEntityUser,
			EntityID:    userID,
			Details:     details,
			IPAddress:   actor.IP,
		}); err != nil {
			return err
		}

		user.IsActive = false
		user.IsDeleted = true
		user.DeletedAt = &now
		result = &TransitionResult{
			User:         users.FromModel(user),
			RecordsMoved: moved,
			ReassignedTo: reassignTo,
			Message:      details.Message,
		}
		return nil
	})

	s.metrics.IncTransition("delete", err == nil)
	if err != nil {
		return nil, err
	}
	s.metrics.AddReassigned(result.RecordsMoved)
	return result, nil
}

func (s *service) Restore(ctx context.Context, actor Actor, userID uuid.UUID) (*TransitionResult, error) {
	if userID == uuid.Nil {
		s.metrics.IncTransition("restore", false)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		user, err := s.loadMutableUser(ctx, usersRepo, userID)
		if err != nil {
			return err
		}
		if !user.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user is not deleted")
		}

		affected, err := usersRepo.MarkRestored(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore user")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user state changed concurrently")
		}

		message := fmt.Sprintf("Restored %s", user.FullName())
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			PerformedBy: actor.ID,
			Action:      enums.AuditActionRestore,
			EntityType:  enums.AuditEntityUser,
			EntityID:    userID,
			Details:     dbtypes.AuditDetails{Message: message},
			IPAddress:   actor.IP,
		}); err != nil {
			return err
		}

		// Restored users come back deactivated.
		user.IsDeleted = false
		user.DeletedAt = nil
		result = &TransitionResult{User: users.FromModel(user), Message: message}
		return nil
	})

	s.metrics.IncTransition("restore", err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) BulkReassign(ctx context.Context, actor Actor, fromUserID, toUserID uuid.UUID) (*TransitionResult, error) {
	if fromUserID == uuid.Nil || toUserID == uuid.Nil {
		s.metrics.IncTransition("reassign", false)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and target user ids are required")
	}
	if fromUserID == toUserID {
		s.metrics.IncTransition("reassign", false)
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTarget, "records cannot be reassigned to the same user")
	}

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		// The admin pin covers the source side too; only the target may be
		// an admin.
		from, err := s.loadMutableUser(ctx, usersRepo, fromUserID)
		if err != nil {
			return err
		}

		target, err := s.validateTarget(ctx, usersRepo, toUserID)
		if err != nil {
			return err
		}

		moved, err := s.ownership.WithTx(tx).ReassignAllOwnedBy(ctx, fromUserID, toUserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign owned records")
		}

		message := fmt.Sprintf("Reassigned %d records from %s to %s", moved, from.FullName(), target.FullName())
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			PerformedBy: actor.ID,
			Action:      enums.AuditActionReassign,
			EntityType:  enums.AuditEntityUser,
			EntityID:    fromUserID,
			Details: dbtypes.AuditDetails{
				Message:          message,
				ReassignedTo:     &toUserID,
				ReassignedToName: target.FullName(),
				RecordsMoved:     moved,
			},
			IPAddress: actor.IP,
		}); err != nil {
			return err
		}

		result = &TransitionResult{
			User:         users.FromModel(from),
			RecordsMoved: moved,
			ReassignedTo: &toUserID,
			Message:      message,
		}
		return nil
	})

	s.metrics.IncTransition("reassign", err == nil)
	if err != nil {
		return nil, err
	}
	s.metrics.AddReassigned(result.RecordsMoved)
	return result, nil
}

// CountOwnedBy reports how many records a user owns, so callers can warn
// before deactivating without a reassignment target.
func (s *service) CountOwnedBy(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	count, err := s.ownership.CountOwnedBy(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count owned records")
	}
	return count, nil
}

// loadMutableUser fetches the transition subject and enforces the admin pin:
// admin accounts never pass through the state machine.
func (s *service) loadMutableUser(ctx context.Context, repo users.Repository, userID uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeImmutableAdmin, "admin accounts cannot be modified")
	}
	return user, nil
}

// validateTarget re-checks the reassignment target inside the transaction so
// a concurrently deactivated target cannot receive records.
func (s *service) validateTarget(ctx context.Context, repo users.Repository, targetID uuid.UUID) (*models.User, error) {
	target, err := repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTarget, "reassignment target not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reassignment target")
	}
	if target.IsDeleted || !target.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTarget, "reassignment target is not active")
	}
	return target, nil
}

func (s *service) maybeReassign(ctx context.Context, tx *gorm.DB, repo users.Repository, fromID uuid.UUID, toID *uuid.UUID) (int64, *models.User, error) {
	if toID == nil {
		return 0, nil, nil
	}
	target, err := s.validateTarget(ctx, repo, *toID)
	if err != nil {
		return 0, nil, err
	}
	moved, err := s.ownership.WithTx(tx).ReassignAllOwnedBy(ctx, fromID, *toID)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign owned records")
	}
	return moved, target, nil
}

func (s *service) notify(ctx context.Context, to, subject, body string) {
	if s.mail == nil || to == "" {
		return
	}
	if err := s.mail.Send(ctx, to, subject, body); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "recipient", to), "lifecycle notification failed: "+err.Error())
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func validateIDs(userID uuid.UUID, reassignTo *uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if reassignTo != nil {
		if *reassignTo == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "reassignment target id is required when provided")
		}
		if *reassignTo == userID {
			return pkgerrors.New(pkgerrors.CodeInvalidTarget, "records cannot be reassigned to the same user")
		}
	}
	return nil
}

func transitionDetails(message string, moved int64, target *models.User) dbtypes.AuditDetails {
	details := dbtypes.AuditDetails{Message: message}
	if target != nil {
		details.ReassignedTo = &target.ID
		details.ReassignedToName = target.FullName()
		details.RecordsMoved = moved
		details.Message = fmt.Sprintf("%s; %d records reassigned to %s", message, moved, target.FullName())
	}
	return details
}
