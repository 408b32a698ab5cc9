package backend

// Package backend contains the interchangeable species-prediction backends
// and the priority chain that selects between them at runtime. Backends
// produce loosely-shaped RawPredictions; the chain reconciles them into the
// canonical model.Prediction record.

import (
	"context"

	"ednaapi/internal/model"
)

// Source tags stamped on normalized predictions.
const (
	SourceCustom = "custom_local"
	SourceRemote = "remote_inference"
	SourceONNX   = "onnx_local"
	SourceNone   = "none"
	SourceError  = "error"
)

// UnknownSpecies is the terminal fallback label.
const UnknownSpecies = "Unknown"

// Backend is one prediction source. Available is probed at predict time so a
// backend that gains or loses its assets (model files, remote endpoint,
// feature flags) changes status without a restart.
type Backend interface {
	// Name is the short key used in the MODEL_BACKENDS priority list.
	Name() string
	// Source is the tag stamped on predictions produced by this backend.
	Source() string
	// Available reports whether the backend can currently serve predictions.
	Available() bool
	// Predict classifies the given sequences. The result may be shorter or
	// longer than the input and in any of the supported raw shapes; callers
	// normalize it.
	Predict(ctx context.Context, records []model.SequenceRecord) ([]RawPrediction, error)
}

// Predictor is the prediction entrypoint the service layer depends on. It is
// implemented by Chain and by the caching wrapper around it.
type Predictor interface {
	Predict(ctx context.Context, records []model.SequenceRecord) []model.Prediction
}
