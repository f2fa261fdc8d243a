package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"career-compass/internal/agents"
	"career-compass/internal/config"
	"career-compass/internal/llm"
	"career-compass/internal/logger"
	"career-compass/internal/orchestrator"
	"career-compass/internal/parsing"
	"career-compass/internal/store"
	"career-compass/internal/telemetry"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	st, err := store.New(ctx, cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer st.Close()

	if err := st.RunMigrations(ctx); err != nil {
		zl.Fatal("migrations", zap.Error(err))
	}

	client, err := llm.NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
	if err != nil {
		zl.Fatal("init gemini client", zap.Error(err))
	}
	defer client.Close()

	dispatcher := orchestrator.NewDispatcher(st, zl)
	pipeline := orchestrator.NewPipeline(
		st,
		parsing.NewParser(),
		agents.NewResumeAnalyzer(client),
		agents.NewSkillsAnalyzer(client),
		agents.NewRecommender(client),
		agents.NewResourcesAgent(client),
		zl,
	)
	pipeline.Register(dispatcher)

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			zl.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	zl.Info("worker started",
		zap.Duration("tick_interval", cfg.TickInterval),
		zap.Int("max_events_per_tick", cfg.MaxEventsPerTick),
		zap.Int("max_attempts", cfg.MaxAttempts),
	)

	// The dispatcher has no timer of its own; this loop drives it.
	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			zl.Info("worker stopped")
			return
		case <-ticker.C:
			completed, err := dispatcher.Tick(ctx, cfg.MaxEventsPerTick, cfg.MaxAttempts)
			if err != nil {
				zl.Error("tick", zap.Error(err))
				continue
			}
			if completed > 0 {
				zl.Info("tick completed events", zap.Int("count", completed))
			}
		}
	}
}
