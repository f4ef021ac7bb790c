package main

import (
	"context"
	"log/slog"
	"os"

	"storyboard/server/internal/api"
	"storyboard/server/internal/asset"
	"storyboard/server/internal/config"
	"storyboard/server/internal/credential"
	"storyboard/server/internal/events"
	"storyboard/server/internal/provider"
	"storyboard/server/internal/session"
	"storyboard/server/internal/store"
	"storyboard/server/internal/storyboard"
	"storyboard/server/internal/telemetry"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := telemetry.NewLogger()

	ctx := context.Background()
	gemini, err := provider.NewGemini(ctx, cfg.APIKey, provider.Models{
		Image:         cfg.ImageModel,
		Video:         cfg.VideoModel,
		AdvancedVideo: cfg.AdvancedVideoModel,
		Text:          cfg.TextModel,
	}, logger)
	if err != nil {
		logger.Error("provider init failed", "error", err)
		os.Exit(1)
	}
	client := provider.NewRateLimited(gemini, cfg.RequestsPerSec)

	st := store.NewMemoryStore()
	hub := events.NewHub()
	assets := asset.NewStore()
	mat := asset.NewMaterializer(assets, cfg.APIKey, logger)
	checker := credential.NewEnvChecker(func() string { return os.Getenv("GEMINI_API_KEY") }, logger)
	board := storyboard.NewService(client, mat, cfg.MaxSceneWorkers, logger)

	ctrl := session.NewController(session.Config{
		Store:           st,
		Hub:             hub,
		Client:          client,
		Materializer:    mat,
		Assets:          assets,
		Checker:         checker,
		Storyboard:      board,
		Logger:          logger,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
	})
	ctrl.SetBaseContext(ctx)

	srv := api.NewServer(ctrl, assets, hub, checker, logger, cfg.AllowedOrigins)
	router := srv.Router()

	logger.Info("server_start",
		"addr", cfg.Addr,
		"poll_interval", cfg.PollInterval.String(),
		"scene_workers", cfg.MaxSceneWorkers,
	)
	if err := router.Run(cfg.Addr); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
