package main

import (
	"context"
	stdlog "log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emberfall/internal/config"
	"emberfall/internal/events"
	"emberfall/internal/game"
	"emberfall/internal/handlers"
	"emberfall/internal/logger"
	"emberfall/internal/middleware"
	"emberfall/internal/services"
	"emberfall/internal/storage"
	"emberfall/internal/vision"
	"emberfall/pkg/combat"
	"emberfall/pkg/dialogue"
	"emberfall/pkg/emotion"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Emberfall game server",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_base_url", cfg.LLMBaseURL,
		"model_name", cfg.ModelName)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	llmService := services.NewLocalLLMService(cfg.LLMBaseURL, cfg.ModelName, log)
	gateway := dialogue.NewGateway(llmService, log)
	hub := events.NewHub(log)

	// The emotion pipeline is optional: a missing classifier model is
	// reported per-request, never a startup failure.
	var pipeline *emotion.Pipeline
	classifier, classifierErr := vision.NewClient(cfg.VisionBaseURL, cfg.ModelAssetDir, log)
	if classifierErr != nil {
		log.Warn("Emotion classifier unavailable", "error", classifierErr)
	} else {
		device := vision.NewDevice(cfg.VisionBaseURL, log)
		pipeline = emotion.NewPipeline(device, classifier, log)
		pipeline.Subscribe(func(s *emotion.Sample) {
			hub.Broadcast(events.TypeEmotionUpdate, s)
		})
	}

	var mood combat.MoodSource
	if pipeline != nil {
		mood = pipeline
	}
	sink := func(msg combat.Message) {
		hub.Broadcast(events.TypeCombatMessage, msg)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := game.NewGenerator(rng, log)
	registry := game.NewRegistry(store, gateway, mood, sink, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	mux.Handle("/v1/chat", handlers.NewChatHandler(registry, gateway, mood, log))
	mux.Handle("/v1/combat", handlers.NewCombatHandler(registry, log))

	worldHandler := handlers.NewWorldHandler(registry, generator, store, hub, log)
	mux.Handle("/v1/worlds", worldHandler)
	mux.Handle("/v1/worlds/", worldHandler)

	mux.Handle("/v1/layouts", handlers.NewLayoutsHandler(store, log))

	emotionHandler := handlers.NewEmotionHandler(pipeline, classifierErr, log)
	mux.Handle("/v1/emotion", emotionHandler)
	mux.Handle("/v1/emotion/", emotionHandler)

	mux.Handle("/v1/events", hub)

	handler := middleware.Logger(mux, log)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if pipeline != nil {
		pipeline.Disable()
	}
	hub.Close()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
