// Offline guided mode. Runs the step-progression machine locally,
// without the realtime relay: speech comes in from a WAV file (or
// typed lines on stdin), gets recognized, and the machine speaks the
// protocol steps back through the synthesizer.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/buddyaid/server/adapters/llm"
	"github.com/buddyaid/server/adapters/stt"
	"github.com/buddyaid/server/adapters/tts"
	"github.com/buddyaid/server/client/audio"
	"github.com/buddyaid/server/domain/repositories"
	"github.com/buddyaid/server/usecase"
)

func main() {
	audioPath := flag.String("audio", "", "PCM16 WAV file with the caller's speech")
	outPath := flag.String("out", "guidance.wav", "file receiving the spoken guidance")
	flag.Parse()

	godotenv.Load()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	classifier := buildClassifier(logger)
	synthesizer := buildSynthesizer(logger)

	sink := &fileSink{path: *outPath}
	speech := usecase.NewSpeechQueue(synthesizer, sink, logger)
	defer speech.Close()

	machine := usecase.NewGuidanceMachine(usecase.GuidanceConfig{}, classifier, speech,
		usecase.NewRandomPhrases(time.Now().UnixNano()), &usecase.LogDialer{Logger: logger}, logger)
	defer machine.Stop()

	if *audioPath != "" {
		runFromAudio(machine, *audioPath, logger)
	} else {
		runFromStdin(machine)
	}

	// Let queued speech drain before writing the output file.
	for speech.Speaking() {
		time.Sleep(100 * time.Millisecond)
	}
	time.Sleep(time.Second)
	if err := sink.flush(); err != nil {
		logger.Error("Failed to write guidance audio", zap.Error(err))
	}
	for _, msg := range machine.Messages() {
		fmt.Printf("[%s] %s\n", msg.Role, msg.Text)
	}
}

// runFromAudio streams the file into the recognizer and feeds every
// transcript, partial ones included, to the machine.
func runFromAudio(machine *usecase.GuidanceMachine, path string, logger *zap.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("Failed to read audio file", zap.Error(err))
	}
	if len(data) > 44 && bytes.Equal(data[:4], []byte("RIFF")) {
		data = data[44:]
	}

	recognizer := stt.NewGoogleSpeechRecognizer(logger)
	stream, err := recognizer.Start(context.Background(), repositories.AudioConfig{
		SampleRate: audio.SampleRate,
		Encoding:   "LINEAR16",
		Language:   "en-GB",
	})
	if err != nil {
		logger.Fatal("Failed to start recognition", zap.Error(err))
	}

	go func() {
		defer stream.Close()
		const chunk = 4096
		for offset := 0; offset < len(data); offset += chunk {
			end := offset + chunk
			if end > len(data) {
				end = len(data)
			}
			if err := stream.Stream(data[offset:end]); err != nil {
				logger.Warn("Failed to stream audio chunk", zap.Error(err))
				return
			}
		}
	}()

	machine.ConsumeStream(stream)
}

func runFromStdin(machine *usecase.GuidanceMachine) {
	fmt.Println("Type what the caller says, one line at a time. Ctrl-D to finish.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		machine.HandleTranscript(scanner.Text())
	}
}

func buildClassifier(logger *zap.Logger) repositories.EmergencyClassifier {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		logger.Warn("GEMINI_API_KEY not set, using keyword classifier")
		return llm.NewMockClassifier()
	}
	classifier, err := llm.NewGeminiClassifier(context.Background(), llm.GeminiClassifierConfig{
		APIKey: key,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize classifier", zap.Error(err))
	}
	return classifier
}

func buildSynthesizer(logger *zap.Logger) repositories.TextToSpeech {
	key := os.Getenv("ELEVENLABS_API_KEY")
	if key == "" {
		logger.Warn("ELEVENLABS_API_KEY not set, using mock synthesizer")
		return tts.NewMockTextToSpeech()
	}
	synthesizer, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{APIKey: key}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize synthesizer", zap.Error(err))
	}
	return synthesizer
}

// fileSink collects synthesized clips and writes one combined WAV.
// Play runs on the speech queue goroutine, flush on main.
type fileSink struct {
	path string
	mu   sync.Mutex
	pcm  []byte
}

func (s *fileSink) Play(wav []byte) error {
	if len(wav) > 44 {
		s.mu.Lock()
		s.pcm = append(s.pcm, wav[44:]...)
		s.mu.Unlock()
	}
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
