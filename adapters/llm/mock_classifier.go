package llm

import (
	"context"
	"strings"

	"github.com/buddyaid/server/domain/protocol"
	"github.com/buddyaid/server/domain/repositories"
)

// MockClassifier is a deterministic keyword classifier for development
// and tests, no network access.
type MockClassifier struct{}

// Ensure MockClassifier implements the EmergencyClassifier interface
var _ repositories.EmergencyClassifier = (*MockClassifier)(nil)

// NewMockClassifier creates a keyword-based mock classifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify matches obvious keywords against the category enumeration.
func (m *MockClassifier) Classify(_ context.Context, description string) (string, error) {
	lower := strings.ToLower(description)

	switch {
	case strings.Contains(lower, "bleed"):
		return protocol.CategorySevereBleeding, nil
	case strings.Contains(lower, "baby") && strings.Contains(lower, "chok"):
		return protocol.CategoryChokingBaby, nil
	case strings.Contains(lower, "chok"):
		return protocol.CategoryChokingAdult, nil
	case strings.Contains(lower, "not breathing"), strings.Contains(lower, "cpr"):
		return protocol.CategoryCPRAdult, nil
	case strings.Contains(lower, "unconscious"):
		return protocol.CategoryUnconsciousBreathing, nil
	case strings.Contains(lower, "heart"):
		return protocol.CategoryHeartAttack, nil
	case strings.Contains(lower, "stroke"):
		return protocol.CategoryStroke, nil
	case strings.Contains(lower, "seizure"), strings.Contains(lower, "convuls"):
		return protocol.CategorySeizure, nil
	}

	return protocol.CategoryCPRAdult, nil
}
