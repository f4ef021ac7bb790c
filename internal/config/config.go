package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr            string
	APIKey          string
	PollInterval    time.Duration
	MaxPollAttempts int
	MaxSceneWorkers int
	RequestsPerSec  int

	ImageModel         string
	VideoModel         string
	AdvancedVideoModel string
	TextModel          string

	AllowedOrigins []string
}

func Load() Config {
	return Config{
		Addr:            env("STORYBOARD_SERVER_ADDR", ":8080"),
		APIKey:          env("GEMINI_API_KEY", ""),
		PollInterval:    envDuration("STORYBOARD_POLL_INTERVAL", 10*time.Second),
		MaxPollAttempts: envInt("STORYBOARD_MAX_POLL_ATTEMPTS", 0),
		MaxSceneWorkers: envInt("STORYBOARD_MAX_SCENE_WORKERS", 4),
		RequestsPerSec:  envInt("STORYBOARD_PROVIDER_RPS", 2),

		ImageModel:         env("STORYBOARD_IMAGE_MODEL", "imagen-4.0-generate-001"),
		VideoModel:         env("STORYBOARD_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		AdvancedVideoModel: env("STORYBOARD_ADVANCED_VIDEO_MODEL", "veo-3.1-generate-preview"),
		TextModel:          env("STORYBOARD_TEXT_MODEL", "gemini-2.5-pro"),

		AllowedOrigins: []string{env("STORYBOARD_ALLOWED_ORIGIN", "*")},
	}
}

func env(key, fallback string) string {
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
