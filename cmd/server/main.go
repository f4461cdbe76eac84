package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/classifier"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/monitoring"
	"github.com/spacesedan/sentiscope/internal/textprep"
	"github.com/spacesedan/sentiscope/internal/web"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger("info")
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("[Main] Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set, err := classifier.Load(ctx, cfg)
	if err != nil {
		return err
	}
	defer set.Close()

	var opts []analysis.Option
	if cfg.PreprocessEnabled {
		opts = append(opts, analysis.WithPreprocessor(textprep.Preprocess))
	}
	analyzer := analysis.NewAnalyzerFromSet(set, opts...)

	ready := &atomic.Bool{}
	go monitoring.MonitorPredictorHealth(ctx, set, ready, time.Second*monitoring.HEALTHCHECK_TIMER)

	handler := web.NewHandler(analyzer, ready,
		web.WithHateSpeechAggregation(cfg.Predictor.HateSpeechAggregation))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           web.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      classifier.RequestBudget(cfg.Predictor) + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("[Main] Starting server",
			slog.String("address", srv.Addr),
			slog.String("env", cfg.Env),
			slog.String("backend", cfg.Predictor.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("[Main] Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("[Main] Server exited")
	return nil
}
