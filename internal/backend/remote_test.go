package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteAvailability(t *testing.T) {
	r := NewRemote("http://inference.example/v1/classify", "")

	t.Setenv(RemoteEnabledEnv, "")
	assert.False(t, r.Available())

	t.Setenv(RemoteEnabledEnv, "true")
	assert.True(t, r.Available())

	t.Setenv(RemoteEnabledEnv, "0")
	assert.False(t, r.Available())

	// No endpoint configured means never available, flag or not.
	t.Setenv(RemoteEnabledEnv, "1")
	assert.False(t, NewRemote("", "tok").Available())
}

func TestRemotePredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))

		var body remoteRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Len(t, body.Sequences, 2)

		// Mixed raw shapes in one response.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"label":"Panthera tigris","score":0.91}, ["Canis lupus", 0.75]]`))
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "secret")
	raw, err := r.Predict(context.Background(), testRecords)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, "Panthera tigris", raw[0].Label)
	assert.Equal(t, 0.91, raw[0].Confidence)
	assert.Equal(t, "Canis lupus", raw[1].Label)
}

func TestRemotePredictServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model is warming up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "")
	_, err := r.Predict(context.Background(), testRecords)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRemotePredictBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "")
	_, err := r.Predict(context.Background(), testRecords)
	assert.Error(t, err)
}

func TestRemotePredictContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRemote(srv.URL, "")
	_, err := r.Predict(ctx, testRecords)
	assert.Error(t, err)
}
