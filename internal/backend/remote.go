package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ednaapi/internal/model"
)

// RemoteEnabledEnv gates the remote backend. It is read at call time, not at
// startup, so the flag can be toggled without restarting the service.
const RemoteEnabledEnv = "USE_REMOTE_INFERENCE"

// Remote sends sequences to a hosted transformer inference endpoint. The
// endpoint receives {"sequences": [...]} and may answer with any of the raw
// prediction shapes accepted by RawPrediction.
type Remote struct {
	url    string
	token  string
	client *http.Client
}

// NewRemote builds the remote backend for the given endpoint URL. An empty
// token omits the Authorization header.
func NewRemote(url, token string) *Remote {
	return &Remote{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (r *Remote) Name() string   { return "remote" }
func (r *Remote) Source() string { return SourceRemote }

// Available requires both a configured endpoint and the runtime enable flag.
func (r *Remote) Available() bool {
	return r.url != "" && remoteEnabled()
}

func remoteEnabled() bool {
	v := strings.ToLower(os.Getenv(RemoteEnabledEnv))
	return v == "1" || v == "true" || v == "yes"
}

type remoteRequest struct {
	Sequences []string `json:"sequences"`
}

// Predict posts the batch to the inference endpoint and decodes the
// heterogeneous response into raw predictions.
func (r *Remote) Predict(ctx context.Context, records []model.SequenceRecord) ([]RawPrediction, error) {
	seqs := make([]string, len(records))
	for i, rec := range records {
		seqs[i] = rec.Sequence
	}
	body, err := json.Marshal(remoteRequest{Sequences: seqs})
	if err != nil {
		return nil, fmt.Errorf("encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded amount of the error body for the log line.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var raw []RawPrediction
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	return raw, nil
}
