package postgres

import (
	"context"
	"database/sql"

	"ednaapi/internal/model"
	"ednaapi/internal/repository"
)

// CommentPostgres is a PostgreSQL implementation of repository.CommentRepository.
type CommentPostgres struct {
	db *sql.DB
}

// NewCommentPostgres creates a new CommentPostgres repository.
func NewCommentPostgres(db *sql.DB) *CommentPostgres {
	return &CommentPostgres{db: db}
}

var _ repository.CommentRepository = (*CommentPostgres)(nil)

const commentColumns = "id, analysis_id, author_name, job, goal, comment_text, familiarity_pct, unfamiliarity_pct, created_at"

// Create inserts a new comment row and returns the stored record.
func (r *CommentPostgres) Create(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	const q = `
		INSERT INTO comments (id, analysis_id, author_name, job, goal, comment_text, familiarity_pct, unfamiliarity_pct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + commentColumns
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.AnalysisID,
		c.AuthorName,
		c.Job,
		c.Goal,
		c.CommentText,
		c.FamiliarityPct,
		c.UnfamiliarityPct,
		c.CreatedAt,
	)
	return scanComment(row)
}

// ListByAnalysis returns all comments for an analysis, oldest first.
func (r *CommentPostgres) ListByAnalysis(ctx context.Context, analysisID string) ([]model.Comment, error) {
	const q = `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE analysis_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func scanComment(row rowScanner) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(
		&c.ID,
		&c.AnalysisID,
		&c.AuthorName,
		&c.Job,
		&c.Goal,
		&c.CommentText,
		&c.FamiliarityPct,
		&c.UnfamiliarityPct,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
