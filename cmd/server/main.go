package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studyroom/internal/ai"
	_ "studyroom/internal/ai/gemini"
	"studyroom/internal/api"
	"studyroom/internal/config"
	"studyroom/internal/engine"
	"studyroom/internal/jobs"
	"studyroom/internal/mastery"
	"studyroom/internal/models"
	"studyroom/internal/ops"
	"studyroom/internal/routers"
	"studyroom/internal/session"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.AIProvider),
		zap.Duration("grace_period", cfg.RoomGracePeriod))

	// Redis is optional; without it the ops cache and mastery cache are off.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	statusCache := ops.NewStatusCache(rdb, logger)

	provider, err := ai.NewProvider(cfg.AIProvider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	masteryClient := mastery.NewClient(cfg.MasteryURL, rdb)
	masterySvc := mastery.NewService(masteryClient, logger)

	registry := session.NewRegistry(cfg.RoomGracePeriod, logger)
	registry.SetOnExpire(func(room *session.Room) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		statusCache.RemoveRoom(ctx, room.ID)
		statusCache.PublishSessionEnded(ctx, models.SessionEndedEvent{
			RoomID:       room.ID,
			CreatedAt:    room.CreatedAt(),
			EndedAt:      time.Now(),
			MessageCount: room.ChatLen(),
			QuizCount:    room.QuizCount(),
			DurationSec:  int(time.Since(room.CreatedAt()).Seconds()),
		})
	})

	eng := engine.New(registry, masterySvc, provider, logger)
	handlers := api.NewHandlers(eng, logger)

	janitor := jobs.NewJanitor(registry, statusCache, &jobs.JanitorConfig{
		Schedule: cfg.JanitorSchedule,
	}, logger)
	if err := janitor.Start(); err != nil {
		logger.Error("Failed to start janitor job", zap.Error(err))
	}

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	router.Mount("/", routers.New(handlers))

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("study-room service starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("study-room service shutting down...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("study-room service exited")
}
