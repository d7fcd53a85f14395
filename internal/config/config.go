package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = "8080"
	defaultRealtimeURL = "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-10-01"
)

// Config holds the relay server configuration, loaded from environment
// variables (a local .env file is honored when present).
type Config struct {
	Port string

	// Upstream realtime model service.
	OpenAIAPIKey      string
	OpenAIRealtimeURL string

	// Collaborator services for the guided flow.
	GeminiAPIKey     string
	ElevenLabsAPIKey string
}

// Load reads configuration from the environment. OPENAI_API_KEY is the
// only hard requirement; the classification and synthesis adapters fall
// back to mocks when their keys are absent.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:              os.Getenv("PORT"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIRealtimeURL: os.Getenv("OPENAI_REALTIME_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.OpenAIRealtimeURL == "" {
		cfg.OpenAIRealtimeURL = defaultRealtimeURL
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	return cfg, nil
}
