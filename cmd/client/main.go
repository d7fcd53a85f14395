// Headless voice client. Streams a PCM16 WAV file to the relay as
// microphone audio (or sends a typed turn), prints transcripts as they
// arrive, and writes the assistant's audio to a WAV file.
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/buddyaid/server/client/audio"
	"github.com/buddyaid/server/client/realtime"
	"github.com/buddyaid/server/domain/entities"
)

const frameBytes = 4096

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "relay websocket endpoint")
	audioPath := flag.String("audio", "", "PCM16 WAV file to stream as microphone input")
	text := flag.String("text", "", "text turn to send instead of audio")
	outPath := flag.String("out", "response.wav", "file receiving the assistant audio")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	sink := &fileSink{path: *outPath}
	queue := audio.NewQueue(sink, logger)
	defer queue.Close()

	client := realtime.NewClient(realtime.Config{URL: *serverURL}, queue, logger)
	client.OnMessage(func(msg entities.ConversationMessage) {
		fmt.Printf("[%s] %s\n", msg.Role, msg.Text)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)
	defer client.Stop()

	// Give the connection a moment before streaming.
	time.Sleep(500 * time.Millisecond)

	switch {
	case *text != "":
		client.SendText(*text)
	case *audioPath != "":
		if err := streamFile(client, *audioPath); err != nil {
			logger.Fatal("Failed to stream audio", zap.Error(err))
		}
	default:
		logger.Fatal("Provide -audio or -text")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	if err := sink.flush(); err != nil {
		logger.Error("Failed to write output", zap.Error(err))
	}
	logger.Info("Wrote assistant audio", zap.String("path", *outPath))
}

// streamFile sends the file's PCM16 payload in realtime-sized frames.
func streamFile(client *realtime.Client, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) > 44 && bytes.Equal(data[:4], []byte("RIFF")) {
		data = data[44:]
	}
	for offset := 0; offset < len(data); offset += frameBytes {
		end := offset + frameBytes
		if end > len(data) {
			end = len(data)
		}
		client.SendAudioFrame(pcm16ToFloat32(data[offset:end]))
		// Pace frames roughly like a live microphone.
		time.Sleep(frameDuration(end - offset))
	}
	return nil
}

func pcm16ToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return samples
}

func frameDuration(n int) time.Duration {
	samples := n / 2
	return time.Duration(samples) * time.Second / audio.SampleRate
}

// fileSink collects every clip's PCM payload and writes one combined
// WAV file on flush. Play runs on the queue goroutine, flush on main.
type fileSink struct {
	path string
	mu   sync.Mutex
	pcm  []byte
}

func (s *fileSink) Play(wav []byte) error {
	if len(wav) <= 44 {
		return fmt.Errorf("clip too short")
	}
	s.mu.Lock()
	s.pcm = append(s.pcm, wav[44:]...)
	s.mu.Unlock()
	return nil
}

func (s *fileSink) flush() error {
	s.mu.Lock()
	pcm := s.pcm
	s.mu.Unlock()
	if len(pcm) == 0 {
		return nil
	}
	return os.WriteFile(s.path, audio.WrapPCMInWAV(pcm), 0o644)
}
