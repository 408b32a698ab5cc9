package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ednaapi/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var proposalCols = []string{"id", "analysis_id", "sequence_id", "proposed_species", "reason", "proposed_by", "status", "created_at"}

func TestProposalPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProposalPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	p := &model.Proposal{
		ID:              "prop-id",
		AnalysisID:      "analysis-id",
		SequenceID:      "seq_1",
		ProposedSpecies: "Panthera leo",
		Reason:          "morphology mismatch",
		ProposedBy:      "reviewer",
		Status:          model.ProposalPending,
		CreatedAt:       now,
	}

	rows := sqlmock.NewRows(proposalCols).
		AddRow(p.ID, p.AnalysisID, p.SequenceID, p.ProposedSpecies, p.Reason, p.ProposedBy, p.Status, p.CreatedAt)

	mock.ExpectQuery("INSERT INTO proposals").
		WithArgs(p.ID, p.AnalysisID, p.SequenceID, p.ProposedSpecies, p.Reason, p.ProposedBy, p.Status, p.CreatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, p)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.ProposalPending, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalPostgres_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProposalPostgres(db)
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		rows := sqlmock.NewRows(proposalCols).
			AddRow("prop-id", "analysis-id", "seq_1", "Panthera leo", "", "", model.ProposalAccepted, time.Now())

		mock.ExpectQuery("UPDATE proposals").
			WithArgs(model.ProposalAccepted, "prop-id", "analysis-id").
			WillReturnRows(rows)

		p, err := repo.UpdateStatus(ctx, "analysis-id", "prop-id", model.ProposalAccepted)

		assert.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, model.ProposalAccepted, p.Status)
	})

	t.Run("wrong analysis", func(t *testing.T) {
		mock.ExpectQuery("UPDATE proposals").
			WithArgs(model.ProposalRejected, "prop-id", "other-analysis").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.UpdateStatus(ctx, "other-analysis", "prop-id", model.ProposalRejected)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestProposalPostgres_ListByAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProposalPostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows(proposalCols).
		AddRow("p1", "analysis-id", "seq_1", "Panthera leo", "", "", model.ProposalPending, time.Now()).
		AddRow("p2", "analysis-id", "seq_2", "Canis aureus", "", "", model.ProposalRejected, time.Now())

	mock.ExpectQuery("SELECT (.+) FROM proposals WHERE analysis_id = ?").
		WithArgs("analysis-id").
		WillReturnRows(rows)

	items, err := repo.ListByAnalysis(ctx, "analysis-id")

	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, model.ProposalRejected, items[1].Status)
}

func TestCommentPostgres_CreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCommentPostgres(db)
	ctx := context.Background()

	commentCols := []string{"id", "analysis_id", "author_name", "job", "goal", "comment_text", "familiarity_pct", "unfamiliarity_pct", "created_at"}
	now := time.Now().UTC()
	c := &model.Comment{
		ID:          "comment-id",
		AnalysisID:  "analysis-id",
		AuthorName:  "ranger",
		CommentText: "low confidence on seq_2",
		CreatedAt:   now,
	}

	rows := sqlmock.NewRows(commentCols).
		AddRow(c.ID, c.AnalysisID, c.AuthorName, c.Job, c.Goal, c.CommentText, c.FamiliarityPct, c.UnfamiliarityPct, c.CreatedAt)

	mock.ExpectQuery("INSERT INTO comments").
		WithArgs(c.ID, c.AnalysisID, c.AuthorName, c.Job, c.Goal, c.CommentText, c.FamiliarityPct, c.UnfamiliarityPct, c.CreatedAt).
		WillReturnRows(rows)

	created, err := repo.Create(ctx, c)
	assert.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "ranger", created.AuthorName)

	listRows := sqlmock.NewRows(commentCols).
		AddRow(c.ID, c.AnalysisID, c.AuthorName, c.Job, c.Goal, c.CommentText, c.FamiliarityPct, c.UnfamiliarityPct, c.CreatedAt)

	mock.ExpectQuery("SELECT (.+) FROM comments WHERE analysis_id = ?").
		WithArgs("analysis-id").
		WillReturnRows(listRows)

	items, err := repo.ListByAnalysis(ctx, "analysis-id")
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "low confidence on seq_2", items[0].CommentText)
	assert.NoError(t, mock.ExpectationsWereMet())
}
