package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/answer"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/api"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/chunker"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/config"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/embedding"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/pipeline"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/relevance"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/retrieval"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/session"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/stats"
	"github.com/joho/godotenv"
)

func main() {
	// Values from .env fill in for absent environment variables.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared stats instances: the clients record, the API reads.
	embedStats := stats.New(time.Hour)
	rerankStats := stats.New(time.Hour)

	embedder := embedding.NewOpenAIClient(embedding.Options{
		BaseURL:    cfg.EmbeddingBaseURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimension:  cfg.EmbeddingDimension,
		BatchSize:  cfg.EmbedBatchSize,
		Timeout:    cfg.EmbedTimeout,
		MaxRetries: cfg.EmbedMaxRetries,
	}, embedStats)

	reranker := relevance.NewCrossEncoder(relevance.Options{
		BaseURL:    cfg.RerankBaseURL,
		APIKey:     cfg.RerankAPIKey,
		Model:      cfg.RerankModel,
		Timeout:    cfg.RerankTimeout,
		MaxRetries: 1,
	}, rerankStats)

	var answerStats *stats.CallStats
	var answerer *answer.Client
	if cfg.AnswerEnabled() {
		answerStats = stats.New(time.Hour)
		answerer = answer.NewClient(answer.Options{
			BaseURL:     cfg.AnswerBaseURL,
			APIKey:      cfg.AnswerAPIKey,
			Model:       cfg.AnswerModel,
			MaxTokens:   cfg.AnswerMaxTokens,
			Temperature: cfg.AnswerTemperature,
			Timeout:     cfg.AnswerTimeout,
		}, answerStats)
	} else {
		log.Info("answer generation disabled, GROQ_API_KEY not set")
	}

	var counter chunker.Counter = chunker.HeuristicCounter{}
	if cfg.Tokenizer == "tiktoken" {
		tc, err := chunker.NewTiktokenCounter()
		if err != nil {
			log.Warn("tiktoken unavailable, counting tokens heuristically", "error", err)
		} else {
			counter = tc
		}
	}

	sessions := session.NewManager(cfg.SessionTTL)
	go sessions.Sweep(ctx, 5*time.Minute)

	builder := pipeline.NewBuilder(cfg, embedder, relevance.NewStringSimilarity(), counter,
		log.With("component", "pipeline"))
	retriever := retrieval.NewRetriever(embedder, reranker, cfg.OverfetchMultiplier, cfg.ShortlistSize,
		log.With("component", "retrieval"))

	srv := api.NewServer(api.Deps{
		Sessions:    sessions,
		Builder:     builder,
		Retriever:   retriever,
		Answerer:    answerer,
		EmbedStats:  embedStats,
		RerankStats: rerankStats,
		AnswerStats: answerStats,
	}, log.With("component", "api"), cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		reranker.Close()
	}()

	log.Info("starting server",
		"port", cfg.Port,
		"embedding_model", cfg.EmbeddingModel,
		"rerank_model", cfg.RerankModel,
		"tokenizer", counter.Name(),
		"answer_enabled", cfg.AnswerEnabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
