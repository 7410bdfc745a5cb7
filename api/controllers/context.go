package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/omarsegovia/pipelinecrm-backend/api/middleware"
	"github.com/omarsegovia/pipelinecrm-backend/internal/lifecycle"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
)

// actorFromRequest resolves the authenticated actor seeded by the auth
// middleware, including the caller's IP for the audit trail.
func actorFromRequest(r *http.Request) (lifecycle.Actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return lifecycle.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return lifecycle.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return lifecycle.Actor{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid actor role")
	}
	return lifecycle.Actor{ID: id, Role: role, IP: clientIP(r)}, nil
}

func pathUUID(r *http.Request, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id")
	}
	return id, nil
}

func clientIP(r *http.Request) *string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
		if first != "" {
			return &first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return nil
		}
		addr := r.RemoteAddr
		return &addr
	}
	return &host
}
