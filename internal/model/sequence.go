package model

// SequenceRecord is one input sequence extracted from a FASTA upload or a JSON
// request body. SequenceID may be empty on input; the service assigns a
// positional fallback before prediction.
type SequenceRecord struct {
	SequenceID string `json:"sequence_id"`
	Sequence   string `json:"sequence"`
}

// Prediction is the canonical per-sequence classification record. Every
// backend output, whatever its raw shape, is normalized into this.
type Prediction struct {
	SequenceID       string  `json:"sequence_id"`
	Sequence         string  `json:"sequence"`
	PredictedSpecies string  `json:"predicted_species"`
	Confidence       float64 `json:"confidence"`
	Source           string  `json:"source"`
}
