package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voicedesk/speechadmin/internal/api"
	"github.com/voicedesk/speechadmin/internal/cache"
	"github.com/voicedesk/speechadmin/internal/config"
	"github.com/voicedesk/speechadmin/internal/conversion"
	"github.com/voicedesk/speechadmin/internal/database"
	"github.com/voicedesk/speechadmin/internal/storage"
	"github.com/voicedesk/speechadmin/internal/tts"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it record reads just skip the cache.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var recordCache *cache.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
	} else {
		recordCache = cache.NewCache(rdb)
	}

	synth, err := newProvider(cfg.TTS)
	if err != nil {
		slog.Error("failed to configure TTS backend", "error", err)
		os.Exit(1)
	}
	slog.Info("using TTS backend", "backend", synth.Name())

	media := storage.NewMediaStore(cfg.Media.Root, cfg.Media.VoiceDir)

	repo := conversion.NewPostgresRepository(db)
	conversions := conversion.NewService(repo, synth, media, recordCache)
	conversions.SetMaxTextLength(cfg.TTS.MaxTextLength)
	conversions.SetDefaultLanguage(cfg.TTS.DefaultLanguage)

	router := api.NewRouter(db, rdb, cfg, conversions)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func newProvider(cfg config.TTSConfig) (tts.Provider, error) {
	switch cfg.Backend {
	case "google", "":
		return tts.NewGoogleTTS(tts.GoogleTTSConfig{BaseURL: cfg.GoogleBaseURL}), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
		return tts.NewOpenAITTS(tts.OpenAITTSConfig{
			APIKey: cfg.OpenAIKey,
			Model:  cfg.OpenAIModel,
			Voice:  cfg.OpenAIVoice,
		}), nil
	case "piper":
		return tts.NewPiper(tts.PiperConfig{
			BinPath:   cfg.PiperBinPath,
			ModelPath: cfg.PiperModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown TTS backend %q", cfg.Backend)
	}
}
