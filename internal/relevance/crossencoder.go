package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/stats"
)

// Options configures the cross-encoder client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// CrossEncoder scores (query, text) pairs jointly through a remote
// re-rank endpoint. Joint encoding is more accurate than comparing
// independently produced vectors, which is why it only runs on the
// small post-retrieval candidate set.
type CrossEncoder struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
	calls      *stats.CallStats
}

func NewCrossEncoder(opts Options, calls *stats.CallStats) *CrossEncoder {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	if calls == nil {
		calls = stats.New(0)
	}
	return &CrossEncoder{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
		calls:      calls,
	}
}

func (c *CrossEncoder) Name() string { return "cross-encoder" }

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score returns one relevance score per text, in input order. Every
// failure surfaces as an UnavailableError so callers can degrade.
func (c *CrossEncoder) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: texts,
		TopN:      len(texts),
	})
	if err != nil {
		return nil, &UnavailableError{Cause: fmt.Errorf("marshal request: %w", err)}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &UnavailableError{Cause: ctx.Err()}
			case <-time.After(rerankBackoff(attempt - 1)):
			}
		}
		scores, retryable, err := c.call(ctx, body, len(texts))
		if err == nil {
			return scores, nil
		}
		c.calls.RecordError()
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, &UnavailableError{Cause: lastErr}
}

func (c *CrossEncoder) call(ctx context.Context, body []byte, n int) ([]float64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("rerank call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("rerank status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("rerank status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Results) != n {
		return nil, false, fmt.Errorf("rerank returned %d scores for %d documents", len(parsed.Results), n)
	}
	scores := make([]float64, n)
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= n {
			return nil, false, fmt.Errorf("rerank result index %d out of range", r.Index)
		}
		scores[r.Index] = r.RelevanceScore
	}
	c.calls.Record(time.Since(start))
	return scores, false, nil
}

// Close releases idle connections.
func (c *CrossEncoder) Close() {
	c.httpClient.CloseIdleConnections()
}

// rerankBackoff stays short; a slow re-ranker is worse than falling
// back to union order.
func rerankBackoff(attempt int) time.Duration {
	d := (250 * time.Millisecond) << uint(attempt)
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Scorer = (*CrossEncoder)(nil)
