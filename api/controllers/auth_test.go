package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/omarsegovia/pipelinecrm-backend/internal/auth"
	"github.com/omarsegovia/pipelinecrm-backend/internal/users"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
)

type stubAuthService struct {
	resp *auth.LoginResponse
	err  error
}

func (s stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.resp, s.err
}

func (s stubAuthService) CompleteSetup(context.Context, auth.CompleteSetupRequest) (*auth.LoginResponse, error) {
	return s.resp, s.err
}

func TestAuthLoginSuccess(t *testing.T) {
	userID := uuid.New()
	handler := AuthLogin(stubAuthService{resp: &auth.LoginResponse{
		AccessToken: "token-123",
		User:        &users.UserDTO{ID: userID},
	}}, nil)

	payload := []byte(`{"email":"rep@pipelinecrm.io","password":"secret-pass"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "token-123" {
		t.Fatalf("token missing from response: %+v", envelope.Data)
	}
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	handler := AuthLogin(stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}, nil)

	payload := []byte(`{"email":"rep@pipelinecrm.io","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLoginRejectsMalformedBody(t *testing.T) {
	handler := AuthLogin(stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthCompleteSetupConflict(t *testing.T) {
	handler := AuthCompleteSetup(stubAuthService{err: pkgerrors.New(pkgerrors.CodeConflict, "setup already completed")}, nil)

	payload := []byte(`{"email":"rep@pipelinecrm.io","temp_password":"temp-pass-123","new_password":"brand-new-pass"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/complete-setup", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
}
