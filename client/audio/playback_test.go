package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingPlayer struct {
	mu       sync.Mutex
	played   [][]byte
	failOn   map[string]bool
	inFlight int32
	overlap  int32
	delay    time.Duration
	done     chan struct{}
	want     int
}

func newRecordingPlayer(want int) *recordingPlayer {
	return &recordingPlayer{
		failOn: make(map[string]bool),
		done:   make(chan struct{}, 16),
		want:   want,
	}
}

func (p *recordingPlayer) Play(wav []byte) error {
	if atomic.AddInt32(&p.inFlight, 1) > 1 {
		atomic.StoreInt32(&p.overlap, 1)
	}
	defer atomic.AddInt32(&p.inFlight, -1)

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	pcm := wav[44:]
	p.mu.Lock()
	p.played = append(p.played, pcm)
	p.mu.Unlock()
	p.done <- struct{}{}
	if p.failOn[string(pcm)] {
		return errors.New("decode failed")
	}
	return nil
}

func (p *recordingPlayer) waitAll(t *testing.T) [][]byte {
	t.Helper()
	for i := 0; i < p.want; i++ {
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for segment %d of %d", i+1, p.want)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.played...)
}

func TestQueuePlaysInOrder(t *testing.T) {
	player := newRecordingPlayer(3)
	queue := NewQueue(player, zap.NewNop())
	defer queue.Close()

	segments := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, seg := range segments {
		queue.Enqueue(seg)
	}

	played := player.waitAll(t)
	for i, seg := range segments {
		if !bytes.Equal(played[i], seg) {
			t.Errorf("segment %d = %q, want %q", i, played[i], seg)
		}
	}
	if atomic.LoadInt32(&player.overlap) != 0 {
		t.Error("segments played concurrently")
	}
}

func TestQueueSkipsFailedSegment(t *testing.T) {
	player := newRecordingPlayer(3)
	player.failOn["bad"] = true
	queue := NewQueue(player, zap.NewNop())
	defer queue.Close()

	queue.Enqueue([]byte("first"))
	queue.Enqueue([]byte("bad"))
	queue.Enqueue([]byte("last"))

	played := player.waitAll(t)
	if !bytes.Equal(played[2], []byte("last")) {
		t.Errorf("playback did not continue past failure, got %q", played[2])
	}
}

func TestQueueClearDiscardsPending(t *testing.T) {
	player := newRecordingPlayer(1)
	player.delay = 50 * time.Millisecond
	queue := NewQueue(player, zap.NewNop())
	defer queue.Close()

	queue.Enqueue([]byte("current"))
	queue.Enqueue([]byte("dropped"))
	time.Sleep(10 * time.Millisecond)
	queue.Clear()

	played := player.waitAll(t)
	time.Sleep(100 * time.Millisecond)
	player.mu.Lock()
	total := len(player.played)
	player.mu.Unlock()
	if total != 1 || !bytes.Equal(played[0], []byte("current")) {
		t.Errorf("expected only the in-flight segment to play, got %d segments", total)
	}
	if queue.Pending() != 0 {
		t.Errorf("pending = %d after clear, want 0", queue.Pending())
	}
}

func TestFloat32ToPCM16Clamps(t *testing.T) {
	pcm := Float32ToPCM16([]float32{0, 1, -1, 2, -2})
	want := []int16{0, 0x7FFF, -0x8000, 0x7FFF, -0x8000}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		if got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestWrapPCMInWAVHeader(t *testing.T) {
	pcm := make([]byte, 480)
	wav := WrapPCMInWAV(pcm)
	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != SampleRate {
		t.Errorf("sample rate = %d, want %d", rate, SampleRate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", size, len(pcm))
	}
}

func TestEncodeFrameRoundTrip(t *testing.T) {
	pcm := Float32ToPCM16([]float32{0.25, -0.5, 0.75})
	decoded, err := DecodeDelta(EncodeFrame(pcm))
	if err != nil {
		t.Fatalf("DecodeDelta() error = %v", err)
	}
	if !bytes.Equal(decoded, pcm) {
		t.Error("decoded frame does not match original")
	}
}

func TestDecodeDeltaRejectsGarbage(t *testing.T) {
	if _, err := DecodeDelta("not base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}
