package main

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/buddyaid/server/client/audio"
)

func TestFileSinkConcurrentPlayAndFlush(t *testing.T) {
	sink := &fileSink{path: filepath.Join(t.TempDir(), "out.wav")}
	clip := audio.WrapPCMInWAV([]byte{1, 2, 3, 4})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := sink.Play(clip); err != nil {
				t.Errorf("Play() error = %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := sink.flush(); err != nil {
				t.Errorf("flush() error = %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if err := sink.flush(); err != nil {
		t.Fatalf("final flush() error = %v", err)
	}
	data, err := os.ReadFile(sink.path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) != 44+200*4 {
		t.Errorf("output length = %d, want %d", len(data), 44+200*4)
	}
}

func TestFileSinkRejectsHeaderlessClip(t *testing.T) {
	sink := &fileSink{path: filepath.Join(t.TempDir(), "out.wav")}
	if err := sink.Play([]byte("short")); err == nil {
		t.Error("expected error for clip without a WAV header")
	}
}

func TestPCM16ToFloat32RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.999}
	got := pcm16ToFloat32(audio.Float32ToPCM16(samples))
	if len(got) != len(samples) {
		t.Fatalf("len = %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		diff := got[i] - samples[i]
		if diff < -0.001 || diff > 0.001 {
			t.Errorf("sample %d = %f, want ~%f", i, got[i], samples[i])
		}
	}
}
