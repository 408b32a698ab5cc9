package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"ednaapi/internal/model"
)

const localConfigFile = "model_config.json"

// localConfig is the on-disk layout of a drop-in model package: a directory
// holding model_config.json with per-label k-mer centroid vectors.
type localConfig struct {
	Labels    []string             `json:"labels"`
	KmerSize  int                  `json:"kmer_size"`
	Centroids map[string][]float32 `json:"centroids"`
}

// Local classifies sequences with a nearest-centroid model loaded from a
// drop-in package directory. The package can be swapped on disk; loading is
// retried until it succeeds, so a directory that appears after startup is
// picked up without a restart.
type Local struct {
	dir string

	mu     sync.Mutex
	cfg    *localConfig
	probed bool
}

// NewLocal creates the custom-package backend rooted at dir. The backend is
// unavailable until dir/model_config.json exists and parses.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

func (l *Local) Name() string   { return "custom" }
func (l *Local) Source() string { return SourceCustom }

// Available reports whether the model package is loaded, attempting a load on
// first use and again whenever the package was previously missing.
func (l *Local) Available() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked() == nil
}

func (l *Local) loadLocked() error {
	if l.cfg != nil {
		return nil
	}
	if l.dir == "" {
		return fmt.Errorf("custom model dir not configured")
	}
	path := filepath.Join(l.dir, localConfigFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if !l.probed {
			l.probed = true
			log.Printf("custom model package not loadable at %s: %v", path, err)
		}
		return err
	}
	var cfg localConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.KmerSize <= 0 {
		cfg.KmerSize = KmerSize
	}
	dims := KmerDims(cfg.KmerSize)
	for label, vec := range cfg.Centroids {
		if len(vec) != dims {
			return fmt.Errorf("centroid %q has %d dims, want %d", label, len(vec), dims)
		}
	}
	if len(cfg.Centroids) == 0 {
		return fmt.Errorf("model package at %s has no centroids", l.dir)
	}
	// Fixed label order keeps tie-breaking deterministic.
	if len(cfg.Labels) == 0 {
		for label := range cfg.Centroids {
			cfg.Labels = append(cfg.Labels, label)
		}
		sort.Strings(cfg.Labels)
	}
	l.cfg = &cfg
	log.Printf("custom model package loaded from %s (%d labels, k=%d)", l.dir, len(cfg.Centroids), cfg.KmerSize)
	return nil
}

// Predict assigns each sequence the label of its nearest centroid by cosine
// similarity over k-mer frequencies.
func (l *Local) Predict(ctx context.Context, records []model.SequenceRecord) ([]RawPrediction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.loadLocked(); err != nil {
		return nil, fmt.Errorf("custom model package: %w", err)
	}

	out := make([]RawPrediction, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec := KmerVector(rec.Sequence, l.cfg.KmerSize)
		bestLabel, bestSim := "", 0.0
		for _, label := range l.cfg.Labels {
			centroid, ok := l.cfg.Centroids[label]
			if !ok {
				continue
			}
			if sim := Cosine(vec, centroid); bestLabel == "" || sim > bestSim {
				bestLabel, bestSim = label, sim
			}
		}
		out = append(out, RawPrediction{
			SequenceID: rec.SequenceID,
			Label:      bestLabel,
			Confidence: bestSim,
		})
	}
	return out, nil
}
