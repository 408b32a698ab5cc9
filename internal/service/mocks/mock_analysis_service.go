package mocks

import (
	"context"
	"io"
	"time"

	"ednaapi/internal/model"
	"ednaapi/internal/service"
	"ednaapi/internal/storage"
	"github.com/stretchr/testify/mock"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, records []model.SequenceRecord, opts service.AnalyzeOptions) (*service.AnalyzeResult, error) {
	args := m.Called(ctx, records, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalyzeResult), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, id string) (*service.AnalysisDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisDetail), args.Error(1)
}

func (m *MockAnalysisService) List(ctx context.Context, limit, offset int) (*service.AnalysisListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisListResult), args.Error(1)
}

func (m *MockAnalysisService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAnalysisService) Download(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockAnalysisService) DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockAnalysisService) AddComment(ctx context.Context, analysisID string, c *model.Comment) (*model.Comment, error) {
	args := m.Called(ctx, analysisID, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockAnalysisService) AddProposal(ctx context.Context, analysisID string, p *model.Proposal) (*model.Proposal, error) {
	args := m.Called(ctx, analysisID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *MockAnalysisService) ReviewProposal(ctx context.Context, analysisID, proposalID, status string) (*model.Proposal, error) {
	args := m.Called(ctx, analysisID, proposalID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}
