package stt

import (
	"context"
	"sync"

	"github.com/buddyaid/server/domain/repositories"
)

// MockRecognizer is a scriptable recognizer for development and tests.
// Feed transcript events through Emit; audio pushed via Stream is
// counted but otherwise ignored.
type MockRecognizer struct {
	mu      sync.Mutex
	streams []*MockRecognitionStream
}

// Ensure MockRecognizer implements the SpeechRecognizer interface
var _ repositories.SpeechRecognizer = (*MockRecognizer)(nil)

// NewMockRecognizer creates a scriptable mock recognizer.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// Start opens a scriptable stream and records it for later inspection.
func (m *MockRecognizer) Start(_ context.Context, _ repositories.AudioConfig) (repositories.RecognitionStream, error) {
	s := &MockRecognitionStream{events: make(chan repositories.TranscriptEvent, 32)}
	m.mu.Lock()
	m.streams = append(m.streams, s)
	m.mu.Unlock()
	return s, nil
}

// LastStream returns the most recently started stream, nil if none.
func (m *MockRecognizer) LastStream() *MockRecognitionStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

// MockRecognitionStream is one scriptable recognition session.
type MockRecognitionStream struct {
	mu         sync.Mutex
	events     chan repositories.TranscriptEvent
	closed     bool
	BytesFed   int
	StreamErrs []error
}

func (s *MockRecognitionStream) Stream(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BytesFed += len(data)
	return nil
}

func (s *MockRecognitionStream) Events() <-chan repositories.TranscriptEvent {
	return s.events
}

func (s *MockRecognitionStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// Emit scripts one transcript event.
func (s *MockRecognitionStream) Emit(text string, final bool) {
	s.events <- repositories.TranscriptEvent{Text: text, Final: final}
}
