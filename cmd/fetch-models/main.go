package main

import (
	"log/slog"
	"os"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/clients"
	"github.com/spacesedan/sentiscope/internal/logging"
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
		slog.Error("[FetchModels] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	failed := false
	for _, model := range []string{cfg.Predictor.EmotionModel, cfg.Predictor.HateSpeechModel} {
		path, err := clients.EnsureModel(cfg.Predictor.ModelsDir, model, cfg.Predictor.APIToken, true)
		if err != nil {
			slog.Error("[FetchModels] Failed to fetch model",
				slog.String("model", model),
				slog.String("error", err.Error()))
			failed = true
			continue
		}
		slog.Info("[FetchModels] Model available",
			slog.String("model", model),
			slog.String("path", path))
	}

	if failed {
		os.Exit(1)
	}
}
