package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/mcqgest/internal/api"
	"github.com/dgallion1/mcqgest/internal/config"
	"github.com/dgallion1/mcqgest/internal/extract"
	"github.com/dgallion1/mcqgest/internal/pipeline"
	"github.com/dgallion1/mcqgest/internal/publish"
	"github.com/dgallion1/mcqgest/internal/source"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	completer, err := extract.New(cfg, log)
	if err != nil {
		log.Error("completion client", "error", err)
		os.Exit(1)
	}
	var stats extract.StatsProvider
	if sp, ok := completer.(extract.StatsProvider); ok {
		stats = sp
	}
	pub := publish.NewClient(cfg.PublishURL, cfg.PublishAPIKey, log)
	router := source.NewRouter(source.OptionsFromConfig(cfg), log)

	// Initialize pipeline.
	p := pipeline.New(router, completer, pipeline.Options{
		MaxLen:          cfg.ChunkMaxLen,
		ContinueOnError: cfg.ContinueOnError,
	}, log)
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
	}, p, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, pub, log, cfg)

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

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		pub.Close()
	}()

	log.Info("starting mcqgest",
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"workers", cfg.WorkerCount,
		"chunk_max_len", cfg.ChunkMaxLen,
		"publish_configured", pub.Configured(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
