package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ednaapi/internal/model"
	"ednaapi/internal/repository"
)

// AnalysisPostgres is a PostgreSQL implementation of
// repository.AnalysisRepository. Species entries and metrics live in JSONB
// columns so the analysis row behaves like one document.
type AnalysisPostgres struct {
	db *sql.DB
}

// NewAnalysisPostgres creates a new AnalysisPostgres repository.
func NewAnalysisPostgres(db *sql.DB) *AnalysisPostgres {
	return &AnalysisPostgres{db: db}
}

var _ repository.AnalysisRepository = (*AnalysisPostgres)(nil)

const analysisColumns = "id, file_name, uploaded_by, storage_path, metrics, species, created_at"

// Create inserts a new analysis row and returns the stored record.
func (r *AnalysisPostgres) Create(ctx context.Context, a *model.Analysis) (*model.Analysis, error) {
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	species, err := json.Marshal(a.Species)
	if err != nil {
		return nil, fmt.Errorf("marshal species: %w", err)
	}

	const q = `
		INSERT INTO analyses (id, file_name, uploaded_by, storage_path, metrics, species, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + analysisColumns
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.FileName,
		a.UploadedBy,
		a.StoragePath,
		metrics,
		species,
		a.CreatedAt,
	)
	return scanAnalysis(row)
}

// FindByID fetches a single analysis by its ID.
func (r *AnalysisPostgres) FindByID(ctx context.Context, id string) (*model.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, id))
}

// List returns analyses using LIMIT/OFFSET pagination and a total count.
func (r *AnalysisPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Analysis], error) {
	const qCount = `SELECT COUNT(*) FROM analyses`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + analysisColumns + `
		FROM analyses
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Analysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Analysis]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes an analysis by ID. It does not return an error if the row
// does not exist; comments and proposals cascade.
func (r *AnalysisPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM analyses WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*model.Analysis, error) {
	var (
		a       model.Analysis
		metrics []byte
		species []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.FileName,
		&a.UploadedBy,
		&a.StoragePath,
		&metrics,
		&species,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &a.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	if len(species) > 0 {
		if err := json.Unmarshal(species, &a.Species); err != nil {
			return nil, fmt.Errorf("unmarshal species: %w", err)
		}
	}
	return &a, nil
}
