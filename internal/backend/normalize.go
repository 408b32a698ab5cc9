package backend

import (
	"encoding/json"
	"fmt"

	"ednaapi/internal/model"
)

// RawPrediction is one loosely-shaped backend result. Backends built in this
// repository fill the struct directly; remote backends return JSON in one of
// several shapes, all accepted by UnmarshalJSON:
//
//   - a bare label string:            "Panthera tigris"
//   - a [label, score] tuple:         ["Panthera tigris", 0.92]
//   - an object with variant keys:    {"label": ..., "score": ...}
//
// Recognized object keys: predicted_species|label|species|prediction for the
// label and confidence|score|probability for the score.
type RawPrediction struct {
	SequenceID string
	Label      string
	Confidence float64
}

type rawObject struct {
	SequenceID       string   `json:"sequence_id"`
	ID               string   `json:"id"`
	PredictedSpecies string   `json:"predicted_species"`
	Label            string   `json:"label"`
	Species          string   `json:"species"`
	Prediction       string   `json:"prediction"`
	Confidence       *float64 `json:"confidence"`
	Score            *float64 `json:"score"`
	Probability      *float64 `json:"probability"`
}

// UnmarshalJSON accepts the raw output variants produced by external model
// packages and hosted inference endpoints.
func (r *RawPrediction) UnmarshalJSON(data []byte) error {
	// Bare label string. A label-only result is treated as fully confident,
	// matching how drop-in model packages report plain labels.
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		r.Label = label
		r.Confidence = 1.0
		return nil
	}

	// [label, score] tuple.
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) < 2 {
			return fmt.Errorf("raw prediction tuple needs label and score, got %d elements", len(tuple))
		}
		if err := json.Unmarshal(tuple[0], &r.Label); err != nil {
			return fmt.Errorf("raw prediction tuple label: %w", err)
		}
		if err := json.Unmarshal(tuple[1], &r.Confidence); err != nil {
			return fmt.Errorf("raw prediction tuple score: %w", err)
		}
		return nil
	}

	// Object with variant keys.
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unsupported raw prediction shape: %w", err)
	}
	r.SequenceID = firstNonEmpty(obj.SequenceID, obj.ID)
	r.Label = firstNonEmpty(obj.PredictedSpecies, obj.Label, obj.Species, obj.Prediction)
	switch {
	case obj.Confidence != nil:
		r.Confidence = *obj.Confidence
	case obj.Score != nil:
		r.Confidence = *obj.Score
	case obj.Probability != nil:
		r.Confidence = *obj.Probability
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Normalize reconciles raw backend output into canonical predictions. The
// result always has the same length and order as records: missing entries
// become Unknown, labels default to Unknown, confidences are clamped to
// [0, 1], and every record is stamped with source. Sequence ids come from the
// input records, never from the raw output.
func Normalize(records []model.SequenceRecord, raw []RawPrediction, source string) []model.Prediction {
	out := make([]model.Prediction, len(records))
	for i, rec := range records {
		p := model.Prediction{
			SequenceID:       rec.SequenceID,
			Sequence:         rec.Sequence,
			PredictedSpecies: UnknownSpecies,
			Source:           source,
		}
		if i < len(raw) {
			if raw[i].Label != "" {
				p.PredictedSpecies = raw[i].Label
			}
			p.Confidence = clamp01(raw[i].Confidence)
		}
		out[i] = p
	}
	return out
}

// Unknowns returns all-Unknown predictions for records, used when no backend
// is available or every backend failed.
func Unknowns(records []model.SequenceRecord, source string) []model.Prediction {
	return Normalize(records, nil, source)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
