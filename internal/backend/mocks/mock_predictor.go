package mocks

import (
	"context"

	"ednaapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, records []model.SequenceRecord) []model.Prediction {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Prediction)
}
