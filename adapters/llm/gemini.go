package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/buddyaid/server/domain/protocol"
	"github.com/buddyaid/server/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.1
	defaultMaxTokens      = 50
	defaultTimeoutSeconds = 15
)

const classifierPrompt = `You are BuddyAid, a calm emergency first aid assistant. Based on the emergency description provided, identify the most appropriate emergency protocol from these options:
- "choking-adult" - for adult choking situations
- "choking-baby" - for baby/infant choking situations
- "cpr-adult" - for unconscious, not breathing situations requiring CPR
- "severe-bleeding" - for severe bleeding emergencies
- "unconscious-breathing" - for unconscious but breathing situations
- "heart-attack" - for heart attack symptoms
- "seizure" - for seizure situations
- "stroke" - for stroke symptoms

Respond with ONLY the protocol identifier (e.g., "cpr-adult") and nothing else.`

// GeminiClassifierConfig holds configuration for the GeminiClassifier.
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: generation model id (default: "gemini-2.0-flash")
// - Temperature: sampling temperature (default: 0.1)
// - TimeoutSeconds: per-call deadline (default: 15)
type GeminiClassifierConfig struct {
	APIKey         string
	Model          string
	Temperature    float32
	TimeoutSeconds int
}

// GeminiClassifier implements EmergencyClassifier using Google's Gemini API.
type GeminiClassifier struct {
	client         *genai.Client
	logger         *zap.Logger
	model          string
	temperature    float32
	timeoutSeconds int
}

// Ensure GeminiClassifier implements the EmergencyClassifier interface
var _ repositories.EmergencyClassifier = (*GeminiClassifier)(nil)

// NewGeminiClassifier creates a new Gemini-backed emergency classifier.
func NewGeminiClassifier(ctx context.Context, config GeminiClassifierConfig, logger *zap.Logger) (*GeminiClassifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("google AI API key is required")
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = float32(defaultTemperature)
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiClassifier{
		client:         client,
		logger:         logger,
		model:          model,
		temperature:    temperature,
		timeoutSeconds: timeoutSeconds,
	}, nil
}

// Classify maps a free-text emergency description to one category id
// from the protocol enumeration. Any output outside the enumeration is
// an error; the caller decides how to degrade.
func (g *GeminiClassifier) Classify(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("description cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.timeoutSeconds)*time.Second)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(classifierPrompt, genai.RoleUser),
		genai.NewContentFromText(description, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(defaultMaxTokens),
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.Error("Failed to classify emergency description", zap.Error(err))
		return "", fmt.Errorf("classification request failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("classification returned no content")
	}

	var raw string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			raw += part.Text
		}
	}

	category := strings.Trim(strings.TrimSpace(raw), `"`)
	if !protocol.IsCategory(category) {
		g.logger.Warn("Classifier returned unexpected category",
			zap.String("raw", raw))
		return "", fmt.Errorf("unexpected classification result: %q", category)
	}

	g.logger.Info("Emergency description classified",
		zap.String("category", category))

	return category, nil
}
