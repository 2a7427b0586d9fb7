package relevance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rerankTestOptions(baseURL string) Options {
	return Options{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-reranker",
		Timeout: 5 * time.Second,
	}
}

func TestCrossEncoder_AlignsScoresByIndex(t *testing.T) {
	seen := make(chan rerankRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		seen <- req

		// Results in arbitrary order; the client must align by index.
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 2, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.1},
				{"index": 1, "relevance_score": 0.5},
			},
		})
	}))
	defer srv.Close()

	c := NewCrossEncoder(rerankTestOptions(srv.URL), nil)
	scores, err := c.Score(context.Background(), "the query", []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.5, 0.9}, scores)

	req := <-seen
	assert.Equal(t, "test-reranker", req.Model)
	assert.Equal(t, "the query", req.Query)
	assert.Equal(t, []string{"a", "b", "c"}, req.Documents)
	assert.Equal(t, 3, req.TopN)
}

func TestCrossEncoder_ServerErrorReportsUnavailable(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model loading", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCrossEncoder(rerankTestOptions(srv.URL), nil)
	_, err := c.Score(context.Background(), "q", []string{"a"})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCrossEncoder_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"index": 0, "relevance_score": 0.7}},
		})
	}))
	defer srv.Close()

	opts := rerankTestOptions(srv.URL)
	opts.MaxRetries = 2
	c := NewCrossEncoder(opts, nil)
	scores, err := c.Score(context.Background(), "q", []string{"a"})

	require.NoError(t, err)
	assert.Equal(t, []float64{0.7}, scores)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCrossEncoder_ResultCountMismatchNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"index": 0, "relevance_score": 0.7}},
		})
	}))
	defer srv.Close()

	opts := rerankTestOptions(srv.URL)
	opts.MaxRetries = 3
	c := NewCrossEncoder(opts, nil)
	_, err := c.Score(context.Background(), "q", []string{"a", "b"})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCrossEncoder_CallerErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	opts := rerankTestOptions(srv.URL)
	opts.MaxRetries = 3
	c := NewCrossEncoder(opts, nil)
	_, err := c.Score(context.Background(), "q", []string{"a"})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCrossEncoder_EmptyTextsSkipCall(t *testing.T) {
	c := NewCrossEncoder(rerankTestOptions("http://localhost:1"), nil)

	scores, err := c.Score(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.Nil(t, scores)
}

func TestCrossEncoder_UnreachableHostReportsUnavailable(t *testing.T) {
	opts := rerankTestOptions("http://127.0.0.1:1")
	c := NewCrossEncoder(opts, nil)

	_, err := c.Score(context.Background(), "q", []string{"a"})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}
