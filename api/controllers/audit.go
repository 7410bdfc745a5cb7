package controllers

import (
	"net/http"
	"strings"

	"github.com/omarsegovia/pipelinecrm-backend/api/responses"
	"github.com/omarsegovia/pipelinecrm-backend/api/validators"
	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/enums"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/logger"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/pagination"
)

const auditSearchMaxLen = 256

// AuditQuery pages through the audit trail, newest first. Filters arrive as
// query parameters: entity_type, action, search, page, page_size.
func AuditQuery(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		filters := audit.ListFilters{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), auditSearchMaxLen),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("entity_type")); raw != "" {
			entityType, err := enums.ParseAuditEntityType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity_type"))
				return
			}
			filters.EntityType = entityType
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
			action, err := enums.ParseAuditAction(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
				return
			}
			filters.Action = action
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Query(r.Context(), filters, pagination.Params{Page: page, PageSize: pageSize})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
