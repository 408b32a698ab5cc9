package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"ednaapi/internal/backend"
	"ednaapi/internal/fasta"
	"ednaapi/internal/model"
	"ednaapi/internal/repository"
	"ednaapi/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("analysis not found")
	ErrNoUpload      = errors.New("analysis has no archived upload")
	ErrNoSequences   = errors.New("no valid sequences")
	ErrBadStatus     = errors.New("invalid proposal status")
	ErrSpeciesNeeded = errors.New("proposed species is required")
)

// AnalyzeOptions carries upload metadata into an analysis run. Raw holds the
// original FASTA bytes when the request was a file upload; it is archived to
// object storage alongside the stored analysis.
type AnalyzeOptions struct {
	FileName   string
	UploadedBy string
	Raw        []byte
}

// AnalyzeResult is the service-level DTO for one analysis run.
type AnalyzeResult struct {
	AnalysisID  string             `json:"analysis_id"`
	Predictions []model.Prediction `json:"predictions"`
}

// AnalysisDetail bundles an analysis with its review workflow records.
type AnalysisDetail struct {
	Analysis  model.Analysis   `json:"analysis"`
	Comments  []model.Comment  `json:"comments"`
	Proposals []model.Proposal `json:"proposals"`
}

// AnalysisListResult is the service-level DTO for paginated analyses.
type AnalysisListResult struct {
	Items []model.Analysis `json:"data"`
	Total int              `json:"total"`
}

// AnalysisService defines the use cases for sequence analysis and review.
type AnalysisService interface {
	// Analyze classifies the sequences, persists the run as an analysis
	// document, and archives the raw upload (if any) to object storage.
	// Records without a sequence id get a positional seq_<n> fallback.
	Analyze(ctx context.Context, records []model.SequenceRecord, opts AnalyzeOptions) (*AnalyzeResult, error)

	// Get returns an analysis with its comments and proposals.
	Get(ctx context.Context, id string) (*AnalysisDetail, error)

	// List returns analyses using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*AnalysisListResult, error)

	// Delete removes an analysis, its archived upload, and (via schema
	// cascade) its comments and proposals.
	Delete(ctx context.Context, id string) error

	// Download streams the archived FASTA upload of an analysis.
	Download(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)

	// DownloadURL returns a time-limited presigned URL for the archived
	// upload so large files can be fetched from object storage directly.
	DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error)

	// AddComment attaches a comment to an analysis.
	AddComment(ctx context.Context, analysisID string, c *model.Comment) (*model.Comment, error)

	// AddProposal files a species-correction proposal; status starts pending.
	AddProposal(ctx context.Context, analysisID string, p *model.Proposal) (*model.Proposal, error)

	// ReviewProposal moves a proposal to accepted or rejected.
	ReviewProposal(ctx context.Context, analysisID, proposalID, status string) (*model.Proposal, error)
}

// analysisService is a concrete implementation of AnalysisService.
type analysisService struct {
	predictor backend.Predictor
	store     storage.Storage
	analyses  repository.AnalysisRepository
	comments  repository.CommentRepository
	proposals repository.ProposalRepository
}

// NewAnalysisService constructs a new AnalysisService.
func NewAnalysisService(
	predictor backend.Predictor,
	store storage.Storage,
	analyses repository.AnalysisRepository,
	comments repository.CommentRepository,
	proposals repository.ProposalRepository,
) AnalysisService {
	return &analysisService{
		predictor: predictor,
		store:     store,
		analyses:  analyses,
		comments:  comments,
		proposals: proposals,
	}
}

func (s *analysisService) Analyze(ctx context.Context, records []model.SequenceRecord, opts AnalyzeOptions) (*AnalyzeResult, error) {
	records = withFallbackIDs(records)
	if len(records) == 0 {
		return nil, ErrNoSequences
	}

	start := time.Now()
	predictions := s.predictor.Predict(ctx, records)

	id := uuid.New().String()

	// Archive the raw upload first; roll it back if the DB save fails so no
	// orphaned object remains.
	var storagePath string
	if len(opts.Raw) > 0 {
		key := "uploads/" + id + ".fasta"
		info, err := s.store.Put(ctx, key, bytes.NewReader(opts.Raw), storage.PutObjectOptions{
			Size:        int64(len(opts.Raw)),
			ContentType: "text/x-fasta",
			Metadata: map[string]string{
				"original-filename": opts.FileName,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("archive upload: %w", err)
		}
		storagePath = info.Key
	}

	analysis := &model.Analysis{
		ID:          id,
		FileName:    opts.FileName,
		UploadedBy:  opts.UploadedBy,
		StoragePath: storagePath,
		Metrics: model.AnalysisMetrics{
			SequenceCount:  len(predictions),
			MeanConfidence: meanConfidence(predictions),
			DurationMs:     time.Since(start).Milliseconds(),
			Backend:        predictionBackend(predictions),
			InvalidChars:   invalidChars(records),
		},
		Species:   predictions,
		CreatedAt: time.Now().UTC(),
	}

	stored, err := s.analyses.Create(ctx, analysis)
	if err != nil {
		if storagePath != "" {
			if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
				return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	return &AnalyzeResult{
		AnalysisID:  stored.ID,
		Predictions: stored.Species,
	}, nil
}

// Get returns an analysis with comments and proposals attached.
func (s *analysisService) Get(ctx context.Context, id string) (*AnalysisDetail, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	analysis, err := s.analyses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	comments, err := s.comments.ListByAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	proposals, err := s.proposals.ListByAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}

	return &AnalysisDetail{
		Analysis:  *analysis,
		Comments:  comments,
		Proposals: proposals,
	}, nil
}

// List returns paginated analyses without exposing repository types.
func (s *analysisService) List(ctx context.Context, limit, offset int) (*AnalysisListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.analyses.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &AnalysisListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the archived upload, then deletes the analysis row.
func (s *analysisService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	analysis, err := s.analyses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep the DB row so the
	// archived object is not lost track of.
	if analysis.StoragePath != "" {
		if err := s.store.Delete(ctx, analysis.StoragePath); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	return s.analyses.Delete(ctx, id)
}

// Download streams the archived FASTA upload of an analysis.
func (s *analysisService) Download(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	path, err := s.archivedPath(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("get storage: %w", err)
	}
	return rc, info, nil
}

// DownloadURL returns a presigned URL for the archived upload.
func (s *analysisService) DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	path, err := s.archivedPath(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, path, expiry)
	if err != nil {
		return "", fmt.Errorf("presign storage: %w", err)
	}
	return url, nil
}

// archivedPath resolves an analysis id to its object storage key.
func (s *analysisService) archivedPath(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	analysis, err := s.analyses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if analysis.StoragePath == "" {
		return "", ErrNoUpload
	}
	return analysis.StoragePath, nil
}

func (s *analysisService) AddComment(ctx context.Context, analysisID string, c *model.Comment) (*model.Comment, error) {
	if analysisID == "" {
		return nil, ErrIDRequired
	}
	if _, err := s.analyses.FindByID(ctx, analysisID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.ID = uuid.New().String()
	c.AnalysisID = analysisID
	c.CreatedAt = time.Now().UTC()
	return s.comments.Create(ctx, c)
}

func (s *analysisService) AddProposal(ctx context.Context, analysisID string, p *model.Proposal) (*model.Proposal, error) {
	if analysisID == "" {
		return nil, ErrIDRequired
	}
	if p.ProposedSpecies == "" {
		return nil, ErrSpeciesNeeded
	}
	if _, err := s.analyses.FindByID(ctx, analysisID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.ID = uuid.New().String()
	p.AnalysisID = analysisID
	p.Status = model.ProposalPending
	p.CreatedAt = time.Now().UTC()
	return s.proposals.Create(ctx, p)
}

func (s *analysisService) ReviewProposal(ctx context.Context, analysisID, proposalID, status string) (*model.Proposal, error) {
	if analysisID == "" || proposalID == "" {
		return nil, ErrIDRequired
	}
	if status != model.ProposalAccepted && status != model.ProposalRejected {
		return nil, ErrBadStatus
	}

	p, err := s.proposals.UpdateStatus(ctx, analysisID, proposalID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// withFallbackIDs drops records whose sequence is empty and assigns seq_<n>
// ids to the remaining records that arrived without one. Numbering runs over
// the retained records so ids stay contiguous when empties are dropped.
func withFallbackIDs(records []model.SequenceRecord) []model.SequenceRecord {
	out := make([]model.SequenceRecord, 0, len(records))
	for _, rec := range records {
		if rec.Sequence == "" {
			continue
		}
		if rec.SequenceID == "" {
			rec.SequenceID = fmt.Sprintf("seq_%d", len(out)+1)
		}
		out = append(out, rec)
	}
	return out
}

// invalidChars totals the non-IUPAC characters across the input sequences.
func invalidChars(records []model.SequenceRecord) int {
	n := 0
	for _, rec := range records {
		n += fasta.CountInvalid(rec.Sequence)
	}
	return n
}

func meanConfidence(predictions []model.Prediction) float64 {
	if len(predictions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range predictions {
		sum += p.Confidence
	}
	return sum / float64(len(predictions))
}

// predictionBackend reports the source tag shared by the predictions; a run
// is always served by a single backend.
func predictionBackend(predictions []model.Prediction) string {
	if len(predictions) == 0 {
		return ""
	}
	return predictions[0].Source
}
