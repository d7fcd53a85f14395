package repositories

import "context"

// TextToSpeech synthesizes spoken audio for a text. The returned
// channel streams encoded audio chunks and is closed when synthesis
// finishes or fails.
type TextToSpeech interface {
	ConvertTextToSpeech(ctx context.Context, text string) (<-chan []byte, error)
}
