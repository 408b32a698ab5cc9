package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

import (
	"context"

	"ednaapi/internal/model"
)

// AnalysisRepository defines persistence for analysis documents using SQL
// queries only. No business logic here, strictly persistence operations.
type AnalysisRepository interface {
	// Create inserts a new analysis row. The caller provides ID and
	// CreatedAt; species and metrics are stored as JSON documents.
	Create(ctx context.Context, a *model.Analysis) (*model.Analysis, error)

	// FindByID returns an analysis by its ID.
	FindByID(ctx context.Context, id string) (*model.Analysis, error)

	// List returns a paginated list of analyses (newest first) and the total
	// row count. Species payloads are included; callers trim as needed.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Analysis], error)

	// Delete removes an analysis by ID. It returns nil if the row was deleted
	// or did not exist; comments and proposals cascade in the schema.
	Delete(ctx context.Context, id string) error
}

// CommentRepository defines persistence for analysis comments.
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) (*model.Comment, error)
	ListByAnalysis(ctx context.Context, analysisID string) ([]model.Comment, error)
}

// ProposalRepository defines persistence for species-correction proposals.
type ProposalRepository interface {
	Create(ctx context.Context, p *model.Proposal) (*model.Proposal, error)
	ListByAnalysis(ctx context.Context, analysisID string) ([]model.Proposal, error)

	// UpdateStatus moves a proposal to the given status and returns the
	// updated row. sql.ErrNoRows is returned when the proposal does not
	// belong to the analysis or does not exist.
	UpdateStatus(ctx context.Context, analysisID, proposalID, status string) (*model.Proposal, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
