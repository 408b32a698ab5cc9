package backend

import (
	"context"

	"ednaapi/internal/model"
)

// Dummy is the terminal fallback backend. It is always available and labels
// everything Unknown with zero confidence.
type Dummy struct{}

func NewDummy() *Dummy { return &Dummy{} }

func (Dummy) Name() string    { return "dummy" }
func (Dummy) Source() string  { return SourceNone }
func (Dummy) Available() bool { return true }

func (Dummy) Predict(_ context.Context, records []model.SequenceRecord) ([]RawPrediction, error) {
	out := make([]RawPrediction, len(records))
	for i, rec := range records {
		out[i] = RawPrediction{SequenceID: rec.SequenceID, Label: UnknownSpecies}
	}
	return out, nil
}
