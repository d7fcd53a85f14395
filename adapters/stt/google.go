package stt

import (
	"context"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/buddyaid/server/domain/repositories"
)

// GoogleSpeechRecognizer implements SpeechRecognizer on Google Cloud
// streaming recognition. Interim results are enabled so the guidance
// state machine sees provisional transcripts and can debounce them.
type GoogleSpeechRecognizer struct {
	logger *zap.Logger
}

// Ensure GoogleSpeechRecognizer implements the SpeechRecognizer interface
var _ repositories.SpeechRecognizer = (*GoogleSpeechRecognizer)(nil)

// NewGoogleSpeechRecognizer creates a Google Cloud recognizer.
func NewGoogleSpeechRecognizer(logger *zap.Logger) *GoogleSpeechRecognizer {
	return &GoogleSpeechRecognizer{logger: logger}
}

// Start opens one streaming recognition session.
func (g *GoogleSpeechRecognizer) Start(ctx context.Context, config repositories.AudioConfig) (repositories.RecognitionStream, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	encoding, err := audioEncoding(config.Encoding)
	if err != nil {
		stream.CloseSend()
		client.Close()
		return nil, err
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    config.Language,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	s := &googleRecognitionStream{
		client: client,
		stream: stream,
		events: make(chan repositories.TranscriptEvent, 16),
		done:   make(chan struct{}),
		logger: g.logger,
	}
	go s.receive()

	return s, nil
}

type googleRecognitionStream struct {
	client    *speech.Client
	stream    speechpb.Speech_StreamingRecognizeClient
	events    chan repositories.TranscriptEvent
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func (s *googleRecognitionStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

func (s *googleRecognitionStream) Events() <-chan repositories.TranscriptEvent {
	return s.events
}

func (s *googleRecognitionStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.stream.CloseSend()
		if s.client != nil {
			s.client.Close()
		}
	})
	if err != nil {
		return fmt.Errorf("failed to close send stream: %w", err)
	}
	return nil
}

// receive pumps recognition responses into the event channel until the
// stream ends. Partial and final alternatives are forwarded in arrival
// order; the channel closes with the stream.
func (s *googleRecognitionStream) receive() {
	defer close(s.events)

	for {
		resp, err := s.stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.logger.Error("Recognition stream receive failed", zap.Error(err))
			return
		}

		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			select {
			case s.events <- repositories.TranscriptEvent{
				Text:  result.Alternatives[0].Transcript,
				Final: result.IsFinal,
			}:
			case <-s.done:
				// Caller closed the stream without draining.
				return
			}
		}
	}
}

// audioEncoding converts an encoding name to the Speech API enum.
func audioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
