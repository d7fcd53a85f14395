package usecase

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/buddyaid/server/adapters/tts"
)

type captureSink struct {
	mu     sync.Mutex
	clips  [][]byte
	failOn []byte
	played chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{played: make(chan struct{}, 16)}
}

func (s *captureSink) Play(wav []byte) error {
	s.mu.Lock()
	s.clips = append(s.clips, wav)
	s.mu.Unlock()
	s.played <- struct{}{}
	if s.failOn != nil && bytes.Contains(wav, s.failOn) {
		return errors.New("device busy")
	}
	return nil
}

func (s *captureSink) wait(t *testing.T, n int) [][]byte {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.played:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for clip %d of %d", i+1, n)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.clips...)
}

func TestSpeechQueueSpeaksInOrder(t *testing.T) {
	sink := newCaptureSink()
	queue := NewSpeechQueue(tts.NewMockTextToSpeech(), sink, zap.NewNop())
	defer queue.Close()

	queue.Speak("step one")
	queue.Speak("step two")
	queue.Speak("step three")

	clips := sink.wait(t, 3)
	for i, want := range []string{"step one", "step two", "step three"} {
		if !bytes.Contains(clips[i], []byte(want)) {
			t.Errorf("clip %d missing %q", i, want)
		}
	}
}

func TestSpeechQueueSkipsFailedSynthesis(t *testing.T) {
	synth := tts.NewMockTextToSpeech()
	synth.FailFor = []string{"unpronounceable"}
	sink := newCaptureSink()
	queue := NewSpeechQueue(synth, sink, zap.NewNop())
	defer queue.Close()

	queue.Speak("before")
	queue.Speak("unpronounceable text")
	queue.Speak("after")

	clips := sink.wait(t, 2)
	if !bytes.Contains(clips[0], []byte("before")) || !bytes.Contains(clips[1], []byte("after")) {
		t.Errorf("queue stalled on synthesis failure, clips %d", len(clips))
	}
}

func TestSpeechQueueContinuesAfterPlaybackError(t *testing.T) {
	sink := newCaptureSink()
	sink.failOn = []byte("broken")
	queue := NewSpeechQueue(tts.NewMockTextToSpeech(), sink, zap.NewNop())
	defer queue.Close()

	queue.Speak("broken clip")
	queue.Speak("next clip")

	clips := sink.wait(t, 2)
	if !bytes.Contains(clips[1], []byte("next clip")) {
		t.Error("queue did not continue past playback error")
	}
}

func TestSpeechQueueClearDropsPending(t *testing.T) {
	sink := newCaptureSink()
	queue := NewSpeechQueue(tts.NewMockTextToSpeech(), sink, zap.NewNop())
	defer queue.Close()

	queue.Speak("first")
	queue.Clear()
	queue.Speak("second")

	// Only utterances queued after the clear (plus whatever was already
	// in flight) should play; "second" must always arrive.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		n := len(sink.clips)
		var last []byte
		if n > 0 {
			last = sink.clips[n-1]
		}
		sink.mu.Unlock()
		if last != nil && bytes.Contains(last, []byte("second")) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("utterance queued after clear never played")
}

func TestSpeechQueueIgnoresEmptyText(t *testing.T) {
	sink := newCaptureSink()
	queue := NewSpeechQueue(tts.NewMockTextToSpeech(), sink, zap.NewNop())
	defer queue.Close()

	queue.Speak("")
	queue.Speak("real line")

	clips := sink.wait(t, 1)
	if len(clips) != 1 || !bytes.Contains(clips[0], []byte("real line")) {
		t.Errorf("unexpected clips %q", clips)
	}
}
