package stt

import (
	"io"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/buddyaid/server/domain/repositories"
)

// stubRecognizeStream scripts recognition responses for the receive
// pump. Only the methods the pump touches are implemented.
type stubRecognizeStream struct {
	speechpb.Speech_StreamingRecognizeClient
	responses chan *speechpb.StreamingRecognizeResponse
}

func (s *stubRecognizeStream) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	resp, ok := <-s.responses
	if !ok {
		return nil, io.EOF
	}
	return resp, nil
}

func (s *stubRecognizeStream) Send(*speechpb.StreamingRecognizeRequest) error {
	return nil
}

func (s *stubRecognizeStream) CloseSend() error {
	return nil
}

func transcriptResponse(text string) *speechpb.StreamingRecognizeResponse {
	return &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{
					{Transcript: text},
				},
			},
		},
	}
}

func TestReceiveExitsWhenStreamAbandonedWithoutDraining(t *testing.T) {
	stub := &stubRecognizeStream{
		responses: make(chan *speechpb.StreamingRecognizeResponse, 8),
	}
	s := &googleRecognitionStream{
		stream: stub,
		events: make(chan repositories.TranscriptEvent, 2),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
	}

	exited := make(chan struct{})
	go func() {
		s.receive()
		close(exited)
	}()

	// More results than the event buffer holds, never drained: the pump
	// ends up blocked on the event channel.
	for i := 0; i < 5; i++ {
		stub.responses <- transcriptResponse("he's bleeding")
	}
	time.Sleep(20 * time.Millisecond)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("receive pump still blocked after the stream was closed")
	}
}

func TestReceiveForwardsResultsUntilEOF(t *testing.T) {
	stub := &stubRecognizeStream{
		responses: make(chan *speechpb.StreamingRecognizeResponse, 8),
	}
	s := &googleRecognitionStream{
		stream: stub,
		events: make(chan repositories.TranscriptEvent, 8),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
	}
	go s.receive()

	stub.responses <- transcriptResponse("he's")
	stub.responses <- transcriptResponse("he's choking")
	close(stub.responses)

	var texts []string
	for event := range s.Events() {
		texts = append(texts, event.Text)
	}
	if len(texts) != 2 || texts[0] != "he's" || texts[1] != "he's choking" {
		t.Errorf("events = %q, want both transcripts in order", texts)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	stub := &stubRecognizeStream{
		responses: make(chan *speechpb.StreamingRecognizeResponse),
	}
	s := &googleRecognitionStream{
		stream: stub,
		events: make(chan repositories.TranscriptEvent, 1),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
	}
	go s.receive()

	if err := s.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	close(stub.responses)
}
