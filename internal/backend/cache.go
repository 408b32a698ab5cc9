package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"ednaapi/internal/model"
)

// CachingPredictor memoizes per-sequence predictions in an LRU cache keyed by
// the backend name and the sequence digest. Lookups are keyed on a fresh
// availability probe of the chain, not on whichever backend served last, so
// disabling a backend at runtime stops its cached results from being served.
// Results computed by a fallback source (none/error) are never cached.
type CachingPredictor struct {
	chain *Chain
	cache *lru.Cache[string, model.Prediction]
}

// NewCachingPredictor wraps chain with a cache of the given size. A size of
// zero or less disables caching and returns the chain itself.
func NewCachingPredictor(chain *Chain, size int) (Predictor, error) {
	if size <= 0 {
		return chain, nil
	}
	cache, err := lru.New[string, model.Prediction](size)
	if err != nil {
		return nil, err
	}
	return &CachingPredictor{chain: chain, cache: cache}, nil
}

func (p *CachingPredictor) Predict(ctx context.Context, records []model.SequenceRecord) []model.Prediction {
	out := make([]model.Prediction, len(records))
	serving := p.chain.probe()

	var misses []model.SequenceRecord
	missIdx := make([]int, 0, len(records))
	for i, rec := range records {
		if cached, ok := p.cache.Get(cacheKey(serving, rec.Sequence)); ok {
			// The cached entry keeps its own label/confidence/source; only
			// the id differs between uploads.
			cached.SequenceID = rec.SequenceID
			out[i] = cached
			continue
		}
		misses = append(misses, rec)
		missIdx = append(missIdx, i)
	}
	if len(misses) == 0 {
		return out
	}

	fresh := p.chain.Predict(ctx, misses)
	for j, pred := range fresh {
		out[missIdx[j]] = pred
		if pred.Source == SourceNone || pred.Source == SourceError {
			continue
		}
		p.cache.Add(cacheKey(p.chain.Active(), pred.Sequence), pred)
	}
	return out
}

func cacheKey(backend, sequence string) string {
	sum := sha256.Sum256([]byte(sequence))
	return backend + ":" + hex.EncodeToString(sum[:])
}
