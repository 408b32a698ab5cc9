package model

import "time"

// Analysis represents one stored analysis run. Species entries and run metrics
// are persisted as JSONB documents; the struct itself carries no
// database-specific dependencies or tags and is shared across layers.
type Analysis struct {
	ID          string          `json:"id"`
	FileName    string          `json:"file_name,omitempty"`
	UploadedBy  string          `json:"uploaded_by,omitempty"`
	StoragePath string          `json:"storage_path,omitempty"`
	Metrics     AnalysisMetrics `json:"metrics"`
	Species     []Prediction    `json:"species"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AnalysisMetrics summarizes a run for dashboards and listings. InvalidChars
// counts input characters outside the IUPAC DNA alphabet across all
// sequences; such characters are tolerated by prediction but flagged for QC.
type AnalysisMetrics struct {
	SequenceCount  int     `json:"sequence_count"`
	MeanConfidence float64 `json:"mean_confidence"`
	DurationMs     int64   `json:"duration_ms"`
	Backend        string  `json:"backend"`
	InvalidChars   int     `json:"invalid_chars"`
}

// Comment is reviewer feedback attached to an analysis.
type Comment struct {
	ID               string    `json:"id"`
	AnalysisID       string    `json:"analysis_id"`
	AuthorName       string    `json:"author_name,omitempty"`
	Job              string    `json:"job,omitempty"`
	Goal             string    `json:"goal,omitempty"`
	CommentText      string    `json:"comment_text,omitempty"`
	FamiliarityPct   float64   `json:"familiarity_pct,omitempty"`
	UnfamiliarityPct float64   `json:"unfamiliarity_pct,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Proposal statuses.
const (
	ProposalPending  = "pending"
	ProposalAccepted = "accepted"
	ProposalRejected = "rejected"
)

// Proposal is a species-correction request filed against one sequence of an
// analysis. Status moves pending -> accepted|rejected.
type Proposal struct {
	ID              string    `json:"id"`
	AnalysisID      string    `json:"analysis_id"`
	SequenceID      string    `json:"sequence_id,omitempty"`
	ProposedSpecies string    `json:"proposed_species"`
	Reason          string    `json:"reason,omitempty"`
	ProposedBy      string    `json:"proposed_by,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
