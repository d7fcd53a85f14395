package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/buddyaid/server/client/audio"
	"github.com/buddyaid/server/domain/repositories"
)

const synthesisTimeout = 30 * time.Second

// AudioSink renders one WAV clip and blocks until it finishes.
type AudioSink interface {
	Play(wav []byte) error
}

// SpeechQueue turns instructional text into speech one utterance at a
// time, in submission order. Synthesis or playback failures skip the
// utterance; the queue always moves on to the next one.
type SpeechQueue struct {
	tts    repositories.TextToSpeech
	sink   AudioSink
	logger *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []string
	speaking bool
	closed   bool
}

func NewSpeechQueue(tts repositories.TextToSpeech, sink AudioSink, logger *zap.Logger) *SpeechQueue {
	q := &SpeechQueue{
		tts:    tts,
		sink:   sink,
		logger: logger,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Speak enqueues one utterance. Returns immediately.
func (q *SpeechQueue) Speak(text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || text == "" {
		return
	}
	q.pending = append(q.pending, text)
	q.cond.Signal()
}

// Speaking reports whether an utterance is being synthesized or played.
func (q *SpeechQueue) Speaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

// Clear drops every queued utterance. The one in flight finishes.
func (q *SpeechQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
}

// Close shuts the queue down permanently.
func (q *SpeechQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.pending = nil
	q.cond.Signal()
}

func (q *SpeechQueue) run() {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.speaking = false
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		text := q.pending[0]
		q.pending = q.pending[1:]
		q.speaking = true
		q.mu.Unlock()

		q.speak(text)
	}
}

func (q *SpeechQueue) speak(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), synthesisTimeout)
	defer cancel()

	chunks, err := q.tts.ConvertTextToSpeech(ctx, text)
	if err != nil {
		q.logger.Warn("Speech synthesis failed, skipping utterance", zap.Error(err))
		return
	}
	var pcm []byte
	for chunk := range chunks {
		pcm = append(pcm, chunk...)
	}
	if len(pcm) == 0 {
		q.logger.Warn("Speech synthesis returned no audio, skipping utterance")
		return
	}
	if err := q.sink.Play(audio.WrapPCMInWAV(pcm)); err != nil {
		q.logger.Warn("Speech playback failed, skipping utterance", zap.Error(err))
	}
}
