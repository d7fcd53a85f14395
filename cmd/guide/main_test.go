package main

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/buddyaid/server/client/audio"
)

func TestFileSinkConcurrentPlayAndFlush(t *testing.T) {
	sink := &fileSink{path: filepath.Join(t.TempDir(), "guidance.wav")}
	clip := audio.WrapPCMInWAV([]byte{5, 6, 7, 8})

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

func TestFileSinkIgnoresHeaderlessClip(t *testing.T) {
	sink := &fileSink{path: filepath.Join(t.TempDir(), "guidance.wav")}
	if err := sink.Play([]byte("short")); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := sink.flush(); err != nil {
		t.Fatalf("flush() error = %v", err)
	}
	if _, err := os.Stat(sink.path); !os.IsNotExist(err) {
		t.Error("flush wrote a file despite no collected audio")
	}
}
