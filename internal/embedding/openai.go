package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/stats"
)

// maxAPIBatch is the largest input array one embeddings call accepts.
const maxAPIBatch = 100

// Options configures the embeddings client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int
}

// OpenAIClient talks to an OpenAI-compatible embeddings endpoint.
// Local servers (text-embeddings-inference, vLLM) expose the same
// surface, so the base URL decides where vectors come from.
type OpenAIClient struct {
	client     openai.Client
	model      string
	dimension  int
	batchSize  int
	timeout    time.Duration
	maxRetries int
	calls      *stats.CallStats
}

func NewOpenAIClient(opts Options, calls *stats.CallStats) *OpenAIClient {
	// Retries are handled here with visible backoff; the SDK's own
	// retry loop would stack on top of it.
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	batch := opts.BatchSize
	if batch <= 0 || batch > maxAPIBatch {
		batch = maxAPIBatch
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	if calls == nil {
		calls = stats.New(0)
	}
	return &OpenAIClient{
		client:     openai.NewClient(reqOpts...),
		model:      opts.Model,
		dimension:  opts.Dimension,
		batchSize:  batch,
		timeout:    timeout,
		maxRetries: retries,
		calls:      calls,
	}
}

// Embed returns the vector for a single text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// BatchEmbed returns one vector per input text, splitting the inputs
// into endpoint-sized calls. Output order follows the inputs.
func (c *OpenAIClient) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (c *OpenAIClient) MaxBatchSize() int { return c.batchSize }

func (c *OpenAIClient) Dimension() int { return c.dimension }

func (c *OpenAIClient) ModelName() string { return c.model }

// embedBatch performs one embeddings call with bounded backoff retries.
func (c *OpenAIClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = normalizeInput(t)
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
	}
	if len(inputs) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(inputs[0]),
		}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: inputs,
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		resp, err := c.client.Embeddings.New(callCtx, params)
		cancel()
		if err != nil {
			c.calls.RecordError()
			lastErr = err
			if IsRetryable(err) && ctx.Err() == nil {
				continue
			}
			return nil, fmt.Errorf("embeddings call: %w", err)
		}
		c.calls.Record(time.Since(start))

		if len(resp.Data) != len(inputs) {
			return nil, fmt.Errorf("embeddings call returned %d vectors for %d inputs", len(resp.Data), len(inputs))
		}
		vectors := make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			if c.dimension > 0 && len(data.Embedding) != c.dimension {
				return nil, fmt.Errorf("embedding dimension %d, want %d", len(data.Embedding), c.dimension)
			}
			vec := make([]float32, len(data.Embedding))
			for j, v := range data.Embedding {
				vec[j] = float32(v)
			}
			vectors[i] = vec
		}
		return vectors, nil
	}
	return nil, &UnavailableError{Attempts: c.maxRetries + 1, Last: lastErr}
}

// normalizeInput flattens whitespace so page breaks and layout newlines
// inside a chunk do not skew the vector. Empty input becomes a single
// space; the endpoint rejects empty strings.
func normalizeInput(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return " "
	}
	return strings.Join(fields, " ")
}

var _ Client = (*OpenAIClient)(nil)
