package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8091", cfg.Port)
	assert.Equal(t, 512, cfg.MaxTokensPerChunk)
	assert.Equal(t, 128, cfg.OverlapTokens)
	assert.Equal(t, 384, cfg.EmbeddingDimension)
	assert.Equal(t, 3, cfg.OverfetchMultiplier)
	assert.Equal(t, 5, cfg.ShortlistSize)
	assert.InDelta(t, 0.55, cfg.TitleMatchThreshold, 1e-9)
	assert.Equal(t, int64(52428800), cfg.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MAX_TOKENS_PER_CHUNK", "256")
	t.Setenv("OVERLAP_TOKENS", "32")
	t.Setenv("EMBED_TIMEOUT", "5s")
	t.Setenv("TOKENIZER", "heuristic")

	cfg := Load()

	assert.Equal(t, 256, cfg.MaxTokensPerChunk)
	assert.Equal(t, 32, cfg.OverlapTokens)
	assert.Equal(t, 5*time.Second, cfg.EmbedTimeout)
	assert.Equal(t, "heuristic", cfg.Tokenizer)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("EMBED_BATCH_SIZE", "lots")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 64, cfg.EmbedBatchSize)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestValidate_RejectsOverlapAtOrAboveChunkSize(t *testing.T) {
	cfg := Load()
	cfg.OverlapTokens = cfg.MaxTokensPerChunk

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVERLAP_TOKENS")
}

func TestValidate_RejectsBadThresholdAndTokenizer(t *testing.T) {
	cfg := Load()
	cfg.TitleMatchThreshold = 1.5
	require.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Tokenizer = "wordpiece"
	require.Error(t, cfg.Validate())
}

func TestAnswerEnabled(t *testing.T) {
	cfg := Load()
	cfg.AnswerAPIKey = ""
	assert.False(t, cfg.AnswerEnabled())

	cfg.AnswerAPIKey = "gsk_test"
	assert.True(t, cfg.AnswerEnabled())
}
