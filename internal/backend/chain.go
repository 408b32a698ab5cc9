package backend

import (
	"context"
	"log"
	"sync"

	"ednaapi/internal/model"
)

// Status describes one backend for health reporting.
type Status struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Available bool   `json:"available"`
}

// Chain is the priority list of prediction backends. At predict time it
// probes the backends in order and uses the first available one; when a
// predict call fails it falls through to the next backend, and when none
// succeeds it emits Unknown records instead of an error. Probing at predict
// time keeps the chain in step with backends whose availability changes at
// runtime (model packages dropped on disk, remote flags toggled).
type Chain struct {
	backends []Backend

	mu     sync.RWMutex
	active string
}

// NewChain builds a chain over the given backends in priority order. A Dummy
// terminal backend is appended when the list does not already end with one.
func NewChain(backends ...Backend) *Chain {
	if len(backends) == 0 || backends[len(backends)-1].Name() != (Dummy{}).Name() {
		backends = append(backends, NewDummy())
	}
	return &Chain{backends: backends}
}

var _ Predictor = (*Chain)(nil)

// Predict classifies records with the highest-priority working backend.
// The result always matches the input in length and order.
func (c *Chain) Predict(ctx context.Context, records []model.SequenceRecord) []model.Prediction {
	if len(records) == 0 {
		return []model.Prediction{}
	}

	attempted := false
	for _, b := range c.backends {
		if !b.Available() {
			continue
		}
		raw, err := b.Predict(ctx, records)
		if err != nil {
			attempted = true
			log.Printf("backend %s predict failed, falling through: %v", b.Name(), err)
			continue
		}
		c.setActive(b.Name())
		return Normalize(records, raw, b.Source())
	}

	// Nothing worked. Distinguish "no backend available" from "every
	// available backend errored" in the source tag.
	source := SourceNone
	if attempted {
		source = SourceError
	}
	c.setActive("")
	return Unknowns(records, source)
}

func (c *Chain) setActive(name string) {
	c.mu.Lock()
	c.active = name
	c.mu.Unlock()
}

// Active returns the name of the backend that served the most recent
// prediction, or the first currently-available backend before any traffic.
func (c *Chain) Active() string {
	c.mu.RLock()
	active := c.active
	c.mu.RUnlock()
	if active != "" {
		return active
	}
	return c.probe()
}

// probe returns the name of the highest-priority backend currently reporting
// available, ignoring which backend served last. Unlike Active it reflects
// runtime toggles (remote flag flipped, model dropped on disk) immediately.
func (c *Chain) probe() string {
	for _, b := range c.backends {
		if b.Available() {
			return b.Name()
		}
	}
	return ""
}

// Statuses reports every backend in priority order for /health.
func (c *Chain) Statuses() []Status {
	out := make([]Status, len(c.backends))
	for i, b := range c.backends {
		out[i] = Status{
			Name:      b.Name(),
			Source:    b.Source(),
			Available: b.Available(),
		}
	}
	return out
}
