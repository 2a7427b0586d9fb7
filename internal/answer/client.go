// Package answer generates grounded answers from retrieved context via
// an OpenAI-compatible chat completion endpoint.
package answer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/stats"
)

const (
	defaultModel       = "openai/gpt-oss-20b"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.2
	defaultTimeout     = 60 * time.Second

	baseBackoff = 2 * time.Second
	maxBackoff  = 32 * time.Second
)

// Options configures the answer client. Zero values fall back to
// defaults suited to a Groq-hosted model.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Result is one generated answer with its usage accounting.
type Result struct {
	Text       string
	Model      string
	TokensUsed int
}

// Client wraps the chat completion API behind a single Answer call.
type Client struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	maxRetries  int
	calls       *stats.CallStats
}

func NewClient(opts Options, calls *stats.CallStats) *Client {
	// Retries are handled here with visible backoff; the SDK's own
	// retry loop would stack on top of it.
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if calls == nil {
		calls = stats.New(0)
	}
	return &Client{
		client:      openai.NewClient(reqOpts...),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		maxRetries:  opts.MaxRetries,
		calls:       calls,
	}
}

func (c *Client) ModelName() string { return c.model }

// Generate asks the model the question over the given context blocks.
// Rate limits and transient upstream failures are retried with
// exponential backoff; other errors return immediately.
func (c *Client) Generate(ctx context.Context, question string, blocks []ContextBlock) (Result, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(BuildSystemPrompt(blocks)),
			openai.UserMessage(question),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(answerBackoff(attempt - 1)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		started := time.Now()
		completion, err := c.client.Chat.Completions.New(callCtx, params)
		cancel()
		if err != nil {
			c.calls.RecordError()
			lastErr = err
			if isRetryable(err) && ctx.Err() == nil {
				continue
			}
			return Result{}, fmt.Errorf("answer generation: %w", err)
		}
		c.calls.Record(time.Since(started))

		if len(completion.Choices) == 0 {
			return Result{}, errors.New("answer generation: no choices returned")
		}
		return Result{
			Text:       completion.Choices[0].Message.Content,
			Model:      string(completion.Model),
			TokensUsed: int(completion.Usage.TotalTokens),
		}, nil
	}
	return Result{}, fmt.Errorf("answer generation: retries exhausted: %w", lastErr)
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func answerBackoff(attempt int) time.Duration {
	d := baseBackoff << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
