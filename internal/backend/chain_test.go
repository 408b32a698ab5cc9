package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ednaapi/internal/model"
)

// fakeBackend is a scriptable backend for chain tests.
type fakeBackend struct {
	name      string
	source    string
	available bool
	raw       []RawPrediction
	err       error
	calls     int
}

func (f *fakeBackend) Name() string    { return f.name }
func (f *fakeBackend) Source() string  { return f.source }
func (f *fakeBackend) Available() bool { return f.available }

func (f *fakeBackend) Predict(_ context.Context, records []model.SequenceRecord) ([]RawPrediction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.raw != nil {
		return f.raw, nil
	}
	out := make([]RawPrediction, len(records))
	for i := range records {
		out[i] = RawPrediction{Label: f.name + "_hit", Confidence: 0.9}
	}
	return out, nil
}

var testRecords = []model.SequenceRecord{
	{SequenceID: "seq_1", Sequence: "ATGCGTACGTAGCTAGCTAG"},
	{SequenceID: "seq_2", Sequence: "TTGACGATCGATCGATGCAA"},
}

func TestChainUsesFirstAvailable(t *testing.T) {
	first := &fakeBackend{name: "custom", source: SourceCustom, available: false}
	second := &fakeBackend{name: "remote", source: SourceRemote, available: true}

	chain := NewChain(first, second)
	got := chain.Predict(context.Background(), testRecords)

	require.Len(t, got, 2)
	assert.Equal(t, "remote_hit", got[0].PredictedSpecies)
	assert.Equal(t, SourceRemote, got[0].Source)
	assert.Zero(t, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, "remote", chain.Active())
}

func TestChainFallsThroughOnError(t *testing.T) {
	failing := &fakeBackend{name: "custom", source: SourceCustom, available: true, err: errors.New("model exploded")}
	working := &fakeBackend{name: "onnx", source: SourceONNX, available: true}

	chain := NewChain(failing, working)
	got := chain.Predict(context.Background(), testRecords)

	require.Len(t, got, 2)
	assert.Equal(t, SourceONNX, got[0].Source)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
}

func TestChainNoBackendAvailable(t *testing.T) {
	chain := &Chain{backends: []Backend{
		&fakeBackend{name: "custom", source: SourceCustom, available: false},
	}}

	got := chain.Predict(context.Background(), testRecords)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, UnknownSpecies, p.PredictedSpecies)
		assert.Equal(t, SourceNone, p.Source)
		assert.Zero(t, p.Confidence)
	}
}

func TestChainAllBackendsFail(t *testing.T) {
	chain := &Chain{backends: []Backend{
		&fakeBackend{name: "custom", source: SourceCustom, available: true, err: errors.New("boom")},
		&fakeBackend{name: "remote", source: SourceRemote, available: true, err: errors.New("bang")},
	}}

	got := chain.Predict(context.Background(), testRecords)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, UnknownSpecies, p.PredictedSpecies)
		assert.Equal(t, SourceError, p.Source)
	}
}

func TestChainAppendsDummyTerminal(t *testing.T) {
	chain := NewChain(&fakeBackend{name: "custom", source: SourceCustom, available: false})

	got := chain.Predict(context.Background(), testRecords)
	require.Len(t, got, 2)
	// The implicit Dummy terminal answered, so the source is "none" but the
	// chain did not error out.
	assert.Equal(t, SourceNone, got[0].Source)
	assert.Equal(t, "dummy", chain.Active())
}

func TestChainEmptyInput(t *testing.T) {
	chain := NewChain(&fakeBackend{name: "custom", source: SourceCustom, available: true})
	got := chain.Predict(context.Background(), nil)
	assert.Empty(t, got)
}

func TestChainStatuses(t *testing.T) {
	chain := NewChain(
		&fakeBackend{name: "custom", source: SourceCustom, available: false},
		&fakeBackend{name: "remote", source: SourceRemote, available: true},
	)

	statuses := chain.Statuses()
	require.Len(t, statuses, 3) // custom, remote, implicit dummy
	assert.Equal(t, Status{Name: "custom", Source: SourceCustom, Available: false}, statuses[0])
	assert.Equal(t, Status{Name: "remote", Source: SourceRemote, Available: true}, statuses[1])
	assert.True(t, statuses[2].Available)
}
