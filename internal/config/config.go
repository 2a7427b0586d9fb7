package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth (optional; empty disables bearer auth)
	APIKey string

	// Embedding service (OpenAI-compatible /v1/embeddings)
	EmbeddingBaseURL   string
	EmbeddingAPIKey    string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbedBatchSize     int
	EmbedConcurrency   int
	EmbedTimeout       time.Duration
	EmbedMaxRetries    int

	// Cross-encoder re-rank service
	RerankBaseURL string
	RerankAPIKey  string
	RerankModel   string
	RerankTimeout time.Duration

	// Answer generation (OpenAI-compatible chat; empty key disables)
	AnswerBaseURL     string
	AnswerAPIKey      string
	AnswerModel       string
	AnswerMaxTokens   int
	AnswerTemperature float64
	AnswerTimeout     time.Duration

	// Chunking
	MaxTokensPerChunk int
	OverlapTokens     int
	Tokenizer         string // "tiktoken" or "heuristic"

	// Retrieval
	OverfetchMultiplier int
	ShortlistSize       int
	TitleMatchThreshold float64

	// Parsing
	HeadingSizeDelta     float64 // Points above body size to call a line a heading
	PDFFallbackPdftotext bool

	// Upload limits
	MaxUploadBytes int64

	// Session state
	SessionTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("API_KEY"),

		EmbeddingBaseURL:   envOr("EMBEDDING_BASE_URL", "http://localhost:8080/v1"),
		EmbeddingAPIKey:    os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:     envOr("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
		EmbeddingDimension: envInt("EMBEDDING_DIMENSION", 384),
		EmbedBatchSize:     envInt("EMBED_BATCH_SIZE", 64),
		EmbedConcurrency:   envInt("EMBED_CONCURRENCY", 4),
		EmbedTimeout:       envDuration("EMBED_TIMEOUT", 30*time.Second),
		EmbedMaxRetries:    envInt("EMBED_MAX_RETRIES", 3),

		RerankBaseURL: envOr("RERANK_BASE_URL", "http://localhost:8081"),
		RerankAPIKey:  os.Getenv("RERANK_API_KEY"),
		RerankModel:   envOr("RERANK_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
		RerankTimeout: envDuration("RERANK_TIMEOUT", 15*time.Second),

		AnswerBaseURL:     envOr("ANSWER_BASE_URL", "https://api.groq.com/openai/v1"),
		AnswerAPIKey:      os.Getenv("GROQ_API_KEY"),
		AnswerModel:       envOr("ANSWER_MODEL", "openai/gpt-oss-20b"),
		AnswerMaxTokens:   envInt("ANSWER_MAX_TOKENS", 8192),
		AnswerTemperature: envFloat("ANSWER_TEMPERATURE", 1.0),
		AnswerTimeout:     envDuration("ANSWER_TIMEOUT", 60*time.Second),

		MaxTokensPerChunk: envInt("MAX_TOKENS_PER_CHUNK", 512),
		OverlapTokens:     envInt("OVERLAP_TOKENS", 128),
		Tokenizer:         envOr("TOKENIZER", "tiktoken"),

		OverfetchMultiplier: envInt("OVERFETCH_MULTIPLIER", 3),
		ShortlistSize:       envInt("SHORTLIST_SIZE", 5),
		TitleMatchThreshold: envFloat("TITLE_MATCH_THRESHOLD", 0.55),

		HeadingSizeDelta:     envFloat("HEADING_SIZE_DELTA", 0.9),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),
	}

	if cfg.EmbeddingDimension <= 0 {
		cfg.EmbeddingDimension = 384
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 64
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 4
	}
	if cfg.EmbedMaxRetries <= 0 {
		cfg.EmbedMaxRetries = 3
	}
	if cfg.MaxTokensPerChunk <= 0 {
		cfg.MaxTokensPerChunk = 512
	}
	if cfg.OverlapTokens < 0 {
		cfg.OverlapTokens = 128
	}
	if cfg.OverfetchMultiplier <= 0 {
		cfg.OverfetchMultiplier = 3
	}
	if cfg.ShortlistSize <= 0 {
		cfg.ShortlistSize = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.EmbeddingBaseURL == "" {
		return fmt.Errorf("EMBEDDING_BASE_URL is required")
	}
	if c.OverlapTokens >= c.MaxTokensPerChunk {
		return fmt.Errorf("OVERLAP_TOKENS (%d) must be smaller than MAX_TOKENS_PER_CHUNK (%d)", c.OverlapTokens, c.MaxTokensPerChunk)
	}
	if c.TitleMatchThreshold <= 0 || c.TitleMatchThreshold > 1 {
		return fmt.Errorf("TITLE_MATCH_THRESHOLD must be in (0,1], got %v", c.TitleMatchThreshold)
	}
	if c.Tokenizer != "tiktoken" && c.Tokenizer != "heuristic" {
		return fmt.Errorf("TOKENIZER must be tiktoken or heuristic, got %q", c.Tokenizer)
	}
	return nil
}

// AnswerEnabled reports whether answer generation is configured.
func (c Config) AnswerEnabled() bool { return c.AnswerAPIKey != "" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
