package repositories

import "context"

// AudioConfig describes the raw audio handed to a recognizer.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// TranscriptEvent is one incremental recognition result. Partial events
// carry the provisional transcript so far; a final event closes the
// utterance.
type TranscriptEvent struct {
	Text  string
	Final bool
}

// SpeechRecognizer exposes incremental speech recognition for the
// guided (non-realtime) flow.
type SpeechRecognizer interface {
	// Start opens a recognition stream for one listening session.
	Start(ctx context.Context, config AudioConfig) (RecognitionStream, error)
}

// RecognitionStream is one in-flight recognition session.
type RecognitionStream interface {
	// Stream feeds raw audio to the recognizer.
	Stream(data []byte) error
	// Events delivers partial and final transcripts in arrival order.
	// The channel is closed when the stream ends.
	Events() <-chan TranscriptEvent
	// Close ends the session and releases the underlying resources.
	Close() error
}
