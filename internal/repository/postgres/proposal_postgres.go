package postgres

import (
	"context"
	"database/sql"

	"ednaapi/internal/model"
	"ednaapi/internal/repository"
)

// ProposalPostgres is a PostgreSQL implementation of repository.ProposalRepository.
type ProposalPostgres struct {
	db *sql.DB
}

// NewProposalPostgres creates a new ProposalPostgres repository.
func NewProposalPostgres(db *sql.DB) *ProposalPostgres {
	return &ProposalPostgres{db: db}
}

var _ repository.ProposalRepository = (*ProposalPostgres)(nil)

const proposalColumns = "id, analysis_id, sequence_id, proposed_species, reason, proposed_by, status, created_at"

// Create inserts a new proposal row and returns the stored record.
func (r *ProposalPostgres) Create(ctx context.Context, p *model.Proposal) (*model.Proposal, error) {
	const q = `
		INSERT INTO proposals (id, analysis_id, sequence_id, proposed_species, reason, proposed_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + proposalColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.AnalysisID,
		p.SequenceID,
		p.ProposedSpecies,
		p.Reason,
		p.ProposedBy,
		p.Status,
		p.CreatedAt,
	)
	return scanProposal(row)
}

// ListByAnalysis returns all proposals for an analysis, oldest first.
func (r *ProposalPostgres) ListByAnalysis(ctx context.Context, analysisID string) ([]model.Proposal, error) {
	const q = `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE analysis_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// UpdateStatus moves a proposal to the given status. sql.ErrNoRows is
// returned when the proposal is missing or belongs to another analysis.
func (r *ProposalPostgres) UpdateStatus(ctx context.Context, analysisID, proposalID, status string) (*model.Proposal, error) {
	const q = `
		UPDATE proposals
		SET status = $1
		WHERE id = $2 AND analysis_id = $3
		RETURNING ` + proposalColumns
	row := r.db.QueryRowContext(ctx, q, status, proposalID, analysisID)
	return scanProposal(row)
}

func scanProposal(row rowScanner) (*model.Proposal, error) {
	var p model.Proposal
	if err := row.Scan(
		&p.ID,
		&p.AnalysisID,
		&p.SequenceID,
		&p.ProposedSpecies,
		&p.Reason,
		&p.ProposedBy,
		&p.Status,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
