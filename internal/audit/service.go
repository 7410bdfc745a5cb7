package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/db/models"
	pkgerrors "github.com/omarsegovia/pipelinecrm-backend/pkg/errors"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/pagination"
)

// Service exposes the audit trail. Record is meant to run inside the same
// transaction as the action it documents; Query serves the admin history view.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*EntryDTO, error)
	Query(ctx context.Context, filters ListFilters, page pagination.Params) (*QueryResult, error)
}

// QueryResult is one page of the audit trail plus pagination metadata.
type QueryResult struct {
	Entries    []EntryDTO `json:"entries"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int64      `json:"total_pages"`
}

type service struct {
	repo Repository
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

// Record validates and persists one entry. Passing the caller's transaction
// makes the entry part of the caller's atomic unit: if the insert fails the
// caller must abort, so no action ever lands without its trail.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*EntryDTO, error) {
	if input.PerformedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "performed_by is required")
	}
	if input.EntityID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entity id is required")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid audit action %q", input.Action))
	}
	if !input.EntityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid audit entity type %q", input.EntityType))
	}

	entry := &models.AuditEntry{
		PerformedBy: input.PerformedBy,
		Action:      input.Action,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		Details:     input.Details,
		IPAddress:   input.IPAddress,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
	}
	return FromModel(entry), nil
}

// Query returns one page of the trail, newest first.
func (s *service) Query(ctx context.Context, filters ListFilters, page pagination.Params) (*QueryResult, error) {
	if filters.EntityType != "" && !filters.EntityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entity type filter %q", filters.EntityType))
	}
	if filters.Action != "" && !filters.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid action filter %q", filters.Action))
	}

	page = page.Normalize()
	entries, total, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}

	return &QueryResult{
		Entries:    FromModels(entries),
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(total),
	}, nil
}
