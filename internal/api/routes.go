package api

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/buddyaid/server/domain/repositories"
	"github.com/buddyaid/server/internal/relay"
)

// InitRoutes initializes all API routes.
func InitRoutes(
	e *echo.Echo,
	r *relay.Relay,
	classifier repositories.EmergencyClassifier,
	synthesizer repositories.TextToSpeech,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "buddyaid-relay",
		})
	})

	// Realtime flow: duplex relay to the model service.
	e.GET("/ws", r.HandleWebSocket)

	// Guided (non-realtime) flow collaborators.
	v1 := e.Group("/api/v1")
	v1.POST("/classify", func(c echo.Context) error {
		return classify(c, classifier, logger)
	})
	v1.POST("/speak", func(c echo.Context) error {
		return speak(c, synthesizer, logger)
	})
}

// classify maps a free-text emergency description to one category id.
func classify(c echo.Context, classifier repositories.EmergencyClassifier, logger *zap.Logger) error {
	var req ClassifyRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind classify request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Description is required",
		})
	}

	category, err := classifier.Classify(c.Request().Context(), req.Description)
	if err != nil {
		logger.Error("Classification failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "classification_failed",
			Message: "Could not classify the emergency description",
		})
	}

	return c.JSON(http.StatusOK, ClassifyResponse{EmergencyType: category})
}

// speak synthesizes one instruction text and returns the audio inline.
func speak(c echo.Context, synthesizer repositories.TextToSpeech, logger *zap.Logger) error {
	var req SpeakRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind speak request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Text is required",
		})
	}

	audioChan, err := synthesizer.ConvertTextToSpeech(c.Request().Context(), req.Text)
	if err != nil {
		logger.Error("Speech synthesis failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "synthesis_failed",
			Message: "Could not synthesize speech",
		})
	}

	var audio []byte
	for chunk := range audioChan {
		audio = append(audio, chunk...)
	}
	if len(audio) == 0 {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "synthesis_failed",
			Message: "Synthesis produced no audio",
		})
	}

	return c.JSON(http.StatusOK, SpeakResponse{
		AudioContent: base64.StdEncoding.EncodeToString(audio),
	})
}
