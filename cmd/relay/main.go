package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/buddyaid/server/adapters/llm"
	"github.com/buddyaid/server/adapters/tts"
	"github.com/buddyaid/server/domain/repositories"
	"github.com/buddyaid/server/internal/api"
	"github.com/buddyaid/server/internal/config"
	"github.com/buddyaid/server/internal/relay"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	classifier := buildClassifier(cfg, logger)
	synthesizer := buildSynthesizer(cfg, logger)
	voiceRelay := relay.NewRelay(cfg.OpenAIRealtimeURL, cfg.OpenAIAPIKey, logger)

	api.InitRoutes(e, voiceRelay, classifier, synthesizer, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Relay started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func buildClassifier(cfg *config.Config, logger *zap.Logger) repositories.EmergencyClassifier {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using keyword classifier")
		return llm.NewMockClassifier()
	}
	classifier, err := llm.NewGeminiClassifier(context.Background(), llm.GeminiClassifierConfig{
		APIKey: cfg.GeminiAPIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize classifier", zap.Error(err))
	}
	return classifier
}

func buildSynthesizer(cfg *config.Config, logger *zap.Logger) repositories.TextToSpeech {
	if cfg.ElevenLabsAPIKey == "" {
		logger.Warn("ELEVENLABS_API_KEY not set, using mock synthesizer")
		return tts.NewMockTextToSpeech()
	}
	synthesizer, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
		APIKey: cfg.ElevenLabsAPIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize synthesizer", zap.Error(err))
	}
	return synthesizer
}
