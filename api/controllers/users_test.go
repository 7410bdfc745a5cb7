package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omarsegovia/pipelinecrm-backend/api/middleware"
	"github.com/omarsegovia/pipelinecrm-backend/internal/lifecycle"
	"github.com/omarsegovia/pipelinecrm-backend/internal/users"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
)

type stubLifecycleService struct {
	result *lifecycle.TransitionResult
	count  int64
	err    error

	lastActor      lifecycle.Actor
	lastUserID     uuid.UUID
	lastReassignTo *uuid.UUID
	lastToUserID   uuid.UUID
}

func (s *stubLifecycleService) Deactivate(_ context.Context, actor lifecycle.Actor, userID uuid.UUID, reassignTo *uuid.UUID) (*lifecycle.TransitionResult, error) {
	s.lastActor, s.lastUserID, s.lastReassignTo = actor, userID, reassignTo
	return s.result, s.err
}

func (s *stubLifecycleService) Activate(_ context.Context, actor lifecycle.Actor, userID uuid.UUID) (*lifecycle.TransitionResult, error) {
	s.lastActor, s.lastUserID = actor, userID
	return s.result, s.err
}

func (s *stubLifecycleService) SoftDelete(_ context.Context, actor lifecycle.Actor, userID uuid.UUID, reassignTo *uuid.UUID) (*lifecycle.TransitionResult, error) {
	s.lastActor, s.lastUserID, s.lastReassignTo = actor, userID, reassignTo
	return s.result, s.err
}

func (s *stubLifecycleService) Restore(_ context.Context, actor lifecycle.Actor, userID uuid.UUID) (*lifecycle.TransitionResult, error) {
	s.lastActor, s.lastUserID = actor, userID
	return s.result, s.err
}

func (s *stubLifecycleService) BulkReassign(_ context.Context, actor lifecycle.Actor, fromUserID, toUserID uuid.UUID) (*lifecycle.TransitionResult, error) {
	s.lastActor, s.lastUserID, s.lastToUserID = actor, fromUserID, toUserID
	return s.result, s.err
}

func (s *stubLifecycleService) CountOwnedBy(_ context.Context, userID uuid.UUID) (int64, error) {
	s.lastUserID = userID
	return s.count, s.err
}

func lifecycleTestRequest(t *testing.T, method, target string, body []byte, userID uuid.UUID) *http.Request {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, enums.UserRoleAdmin.String())
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestUserDeactivateWithReassignment(t *testing.T) {
	actorID := uuid.New()
	subjectID := uuid.New()
	targetID := uuid.New()

	stub := &stubLifecycleService{
		result: &lifecycle.TransitionResult{
			User:         &users.UserDTO{ID: subjectID, State: enums.UserStateDeactivated},
			RecordsMoved: 12,
			ReassignedTo: &targetID,
		},
	}
	handler := UserDeactivate(stub, nil)

	payload := []byte(`{"reassign_to":"` + targetID.String() + `"}`)
	req := lifecycleTestRequest(t, http.MethodPost, "/api/v1/users/"+subjectID.String()+"/deactivate", payload, actorID)
	req = withURLParam(req, "userId", subjectID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.lastUserID != subjectID {
		t.Fatalf("expected subject %s got %s", subjectID, stub.lastUserID)
	}
	if stub.lastReassignTo == nil || *stub.lastReassignTo != targetID {
		t.Fatalf("reassignment target not forwarded: %v", stub.lastReassignTo)
	}
	if stub.lastActor.ID != actorID {
		t.Fatalf("actor not forwarded: %s", stub.lastActor.ID)
	}

	var envelope struct {
		Data lifecycle.TransitionResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RecordsMoved != 12 {
		t.Fatalf("expected 12 records moved, got %d", envelope.Data.RecordsMoved)
	}
}

func TestUserDeactivateWithoutBody(t *testing.T) {
	stub := &stubLifecycleService{result: &lifecycle.TransitionResult{User: &users.UserDTO{}}}
	handler := UserDeactivate(stub, nil)

	subjectID := uuid.New()
	req := lifecycleTestRequest(t, http.MethodPost, "/api/v1/users/"+subjectID.String()+"/deactivate", nil, uuid.New())
	req = withURLParam(req, "userId", subjectID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.lastReassignTo != nil {
		t.Fatalf("expected no reassignment target, got %v", stub.lastReassignTo)
	}
}

func TestUserDeactivateErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid transition", pkgerrors.New(pkgerrors.CodeStateConflict, "user is already deactivated"), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"immutable admin", pkgerrors.New(pkgerrors.CodeImmutableAdmin, "admin accounts cannot be modified"), http.StatusForbidden, "IMMUTABLE_ADMIN"},
		{"invalid target", pkgerrors.New(pkgerrors.CodeInvalidTarget, "records cannot be reassigned to the same user"), http.StatusUnprocessableEntity, "INVALID_TARGET"},
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "user not found"), http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := UserDeactivate(&stubLifecycleService{err: tc.err}, nil)

			subjectID := uuid.New()
			req := lifecycleTestRequest(t, http.MethodPost, "/api/v1/users/"+subjectID.String()+"/deactivate", nil, uuid.New())
			req = withURLParam(req, "userId", subjectID.String())
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var envelope struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if envelope.Error.Code != tc.code {
				t.Fatalf("expected code %s got %s", tc.code, envelope.Error.Code)
			}
		})
	}
}

func TestUserDeactivateBadUserID(t *testing.T) {
	handler := UserDeactivate(&stubLifecycleService{}, nil)

	req := lifecycleTestRequest(t, http.MethodPost, "/api/v1/users/nope/deactivate", nil, uuid.New())
	req = withURLParam(req, "userId", "nope")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUserReassignRequiresBody(t *testing.T) {
	handler := UserReassign(&stubLifecycleService{}, nil)

	subjectID := uuid.New()
	req := lifecycleTestRequest(t, http.MethodPost, "/api/v1/users/"+subjectID.String()+"/reassign", []byte(`{}`), uuid.New())
	req = withURLParam(req, "userId", subjectID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing to_user_id, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserReassignForwardsTarget(t *testing.T) {
	stub := &stubLifecycleService{result: &lifecycle.TransitionResult{User: &users.UserDTO{}, RecordsMoved: 4}}
	handler := UserReassign(stub, nil)

	subjectID := uuid.New()
	targetID := uuid.New()
	payload := []byte(`{"to_user_id":"` + targetID.String() + `"}`)
	req := lifecycleTestRequest(t, http.MethodPost, "/api/v1/users/"+subjectID.String()+"/reassign", payload, uuid.New())
	req = withURLParam(req, "userId", subjectID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.lastUserID != subjectID || stub.lastToUserID != targetID {
		t.Fatalf("reassign args not forwarded: from=%s to=%s", stub.lastUserID, stub.lastToUserID)
	}
}

func TestUserOwnedCount(t *testing.T) {
	stub := &stubLifecycleService{count: 23}
	handler := UserOwnedCount(stub, nil)

	subjectID := uuid.New()
	req := lifecycleTestRequest(t, http.MethodGet, "/api/v1/users/"+subjectID.String()+"/owned-count", nil, uuid.New())
	req = withURLParam(req, "userId", subjectID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["owned_records"] != 23 {
		t.Fatalf("expected 23 owned records, got %d", envelope.Data["owned_records"])
	}
}

func TestUserDeactivateMissingActorContext(t *testing.T) {
	handler := UserDeactivate(&stubLifecycleService{}, nil)

	subjectID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+subjectID.String()+"/deactivate", nil)
	req = withURLParam(req, "userId", subjectID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
