// Command server starts the AI interview orchestrator HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/ai/openrouter"
	httpserver "github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/repo/postgres"
	redisstore "github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/store/redis"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/tts"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/app"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/config"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/usecase"
)

// redisAdapter bridges *redis.Client to the readiness check interface.
type redisAdapter struct{ c *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) app.RedisPingResult { return r.c.Ping(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Infra: record store and session store.
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()

	sessions := redisstore.NewSessionStore(rdb, cfg.SessionGraceMargin)
	interviews := postgres.NewInterviewRepo(pool)

	// Completion events (best-effort; the interview still finalizes when the
	// broker is unreachable).
	var events domain.CompletionEvents
	producer, err := redpanda.NewProducer(cfg.KafkaBrokers, cfg.CompletionTopic)
	if err != nil {
		slog.Error("redpanda producer connect failed, completion events disabled", slog.Any("error", err))
	} else {
		events = producer
		defer producer.Close()
	}

	// Speech synthesis chain: neural, then hosted, then local.
	artifacts, err := tts.NewFSArtifactStore(cfg.AudioArtifactDir)
	if err != nil {
		slog.Error("artifact store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	speech := tts.NewChain(artifacts, cfg.VoiceProfile,
		tts.NewHTTPProvider(domain.ProviderNeural, cfg.NeuralTTSURL, cfg.NeuralTTSAPIKey, artifacts, cfg.TTSTimeout),
		tts.NewHTTPProvider(domain.ProviderHosted, cfg.HostedTTSURL, cfg.HostedTTSAPIKey, artifacts, cfg.TTSTimeout),
		tts.NewHTTPProvider(domain.ProviderLocal, cfg.LocalTTSURL, "", artifacts, cfg.TTSTimeout),
	)

	// Usecases.
	followups := usecase.NewFollowupComposer(openrouter.New(cfg), cfg.ResponseCharCap)
	debounce := usecase.NewDebouncer(cfg.DebounceWindow)
	completion := usecase.NewCompletionService(interviews, events)
	turns := usecase.NewTurnService(sessions, interviews, followups, debounce, speech, completion, usecase.Pacing{
		ClosingThreshold:    cfg.ClosingThreshold,
		FinalQuestionWindow: cfg.FinalQuestionWindow,
		HistoryCap:          cfg.HistoryCap,
		ResponseCharCap:     cfg.ResponseCharCap,
	})

	dbCheck, redisCheck := app.BuildReadinessChecks(pool, redisAdapter{c: rdb})

	srv := httpserver.NewServer(cfg, turns, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
