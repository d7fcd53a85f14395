package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/buddyaid/server/domain/repositories"
)

// MockTextToSpeech returns a short fake audio stream, for development
// and tests without network access.
type MockTextToSpeech struct {
	// FailFor lists substrings whose presence in the text simulates a
	// synthesis failure (channel closed without data).
	FailFor []string
}

// Ensure MockTextToSpeech implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// NewMockTextToSpeech creates a mock synthesizer.
func NewMockTextToSpeech() *MockTextToSpeech {
	return &MockTextToSpeech{}
}

// ConvertTextToSpeech emits the text bytes back as two fake audio chunks.
func (m *MockTextToSpeech) ConvertTextToSpeech(_ context.Context, text string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	ch := make(chan []byte, 2)
	go func() {
		defer close(ch)
		for _, marker := range m.FailFor {
			if strings.Contains(text, marker) {
				return
			}
		}
		payload := []byte(text)
		half := len(payload) / 2
		ch <- payload[:half]
		ch <- payload[half:]
	}()
	return ch, nil
}
