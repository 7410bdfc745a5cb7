package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omarsegovia/pipelinecrm-backend/api/responses"
	"github.com/omarsegovia/pipelinecrm-backend/api/validators"
	"github.com/omarsegovia/pipelinecrm-backend/internal/lifecycle"
	"github.com/omarsegovia/pipelinecrm-backend/internal/users"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/logger"
)

type userInviteRequest struct {
	Email     string     `json:"email" validate:"required,email"`
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Role      string     `json:"role" validate:"required"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty"`
}

type reassignTargetRequest struct {
	ReassignTo *uuid.UUID `json:"reassign_to,omitempty"`
}

type bulkReassignRequest struct {
	ToUserID uuid.UUID `json:"to_user_id" validate:"required"`
}

// UserInvite creates an INVITED user and mails them a temporary password.
func UserInvite(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body userInviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		dto, err := svc.Invite(r.Context(), actor.ID, actor.IP, users.InviteInput{
			Email:     body.Email,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Role:      role,
			ManagerID: body.ManagerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// UserList returns the users visible to the caller's role.
func UserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor.ID, actor.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// UserGet loads one user. Soft-deleted users read as missing.
func UserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// UserTrash lists soft-deleted users for admin review.
func UserTrash(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		list, err := svc.ListTrash(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// UserDeactivate suspends a user, optionally reassigning their records.
func UserDeactivate(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, userID, reassignTo, err := lifecycleRequest(r, svc == nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Deactivate(r.Context(), actor, userID, reassignTo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UserActivate returns a deactivated user to ACTIVE.
func UserActivate(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, userID, _, err := lifecycleRequest(r, svc == nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Activate(r.Context(), actor, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UserDelete soft-deletes a user, optionally reassigning their records.
func UserDelete(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, userID, reassignTo, err := lifecycleRequest(r, svc == nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SoftDelete(r.Context(), actor, userID, reassignTo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UserRestore brings a soft-deleted user back as DEACTIVATED.
func UserRestore(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, userID, _, err := lifecycleRequest(r, svc == nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Restore(r.Context(), actor, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UserReassign moves every record a user owns to another user without
// touching the owner's lifecycle state.
func UserReassign(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := pathUUID(r, chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkReassignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BulkReassign(r.Context(), actor, userID, body.ToUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UserOwnedCount previews how many records a lifecycle transition would move.
func UserOwnedCount(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		userID, err := pathUUID(r, chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.CountOwnedBy(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"owned_records": count})
	}
}

// lifecycleRequest gathers the actor, target user, and optional reassignment
// target shared by the transition endpoints. The body is optional: an absent
// or empty body means "do not reassign".
func lifecycleRequest(r *http.Request, svcMissing bool) (lifecycle.Actor, uuid.UUID, *uuid.UUID, error) {
	if svcMissing {
		return lifecycle.Actor{}, uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable")
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		return lifecycle.Actor{}, uuid.Nil, nil, err
	}

	userID, err := pathUUID(r, chi.URLParam(r, "userId"))
	if err != nil {
		return lifecycle.Actor{}, uuid.Nil, nil, err
	}

	if r.Body == nil || r.ContentLength == 0 {
		return actor, userID, nil, nil
	}

	var body reassignTargetRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return lifecycle.Actor{}, uuid.Nil, nil, err
	}
	return actor, userID, body.ReassignTo, nil
}
