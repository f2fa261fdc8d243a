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
	"career-compass/internal/api"
	"career-compass/internal/config"
	"career-compass/internal/llm"
	"career-compass/internal/logger"
	"career-compass/internal/orchestrator"
	"career-compass/internal/parsing"
	"career-compass/internal/store"
	"career-compass/internal/workflow"
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

	skills := agents.NewSkillsAnalyzer(client)
	analyzer := agents.NewResumeAnalyzer(client)
	recommender := agents.NewRecommender(client)
	resources := agents.NewResourcesAgent(client)
	matcher := agents.NewCareerMatcher(client)

	dispatcher := orchestrator.NewDispatcher(st, zl)
	pipeline := orchestrator.NewPipeline(st, parsing.NewParser(), analyzer, skills, recommender, resources, zl)
	pipeline.Register(dispatcher)

	profiles := workflow.NewAnalyzer(st, skills, analyzer, recommender, zl)

	server := api.New(cfg, st, dispatcher, profiles, matcher, zl)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Router(),
	}

	zl.Info("api listening", zap.String("port", cfg.HTTPPort))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
}
