package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/buddyaid/server/adapters/llm"
	"github.com/buddyaid/server/adapters/tts"
	"github.com/buddyaid/server/domain/protocol"
	"github.com/buddyaid/server/internal/relay"
)

func setupAPI(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	dial := func(ctx context.Context) (*websocket.Conn, error) {
		return nil, context.Canceled
	}
	r := relay.NewRelayWithDialer(dial, zap.NewNop())
	InitRoutes(e, r, llm.NewMockClassifier(), tts.NewMockTextToSpeech(), zap.NewNop())
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

func TestHealth(t *testing.T) {
	server := setupAPI(t)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestClassify(t *testing.T) {
	server := setupAPI(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{
			name:       "severe bleeding",
			body:       `{"description":"there is severe bleeding from a deep cut"}`,
			wantStatus: http.StatusOK,
			wantType:   protocol.CategorySevereBleeding,
		},
		{
			name:       "baby choking",
			body:       `{"description":"my baby is choking on food"}`,
			wantStatus: http.StatusOK,
			wantType:   protocol.CategoryChokingBaby,
		},
		{
			name:       "empty description",
			body:       `{"description":""}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/api/v1/classify", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("classify request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantType == "" {
				return
			}
			var out ClassifyResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if out.EmergencyType != tt.wantType {
				t.Errorf("expected %s, got %s", tt.wantType, out.EmergencyType)
			}
		})
	}
}

func TestSpeak(t *testing.T) {
	server := setupAPI(t)

	resp, err := http.Post(server.URL+"/api/v1/speak", "application/json",
		strings.NewReader(`{"text":"Apply direct pressure to the wound."}`))
	if err != nil {
		t.Fatalf("speak request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out SpeakResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.AudioContent == "" {
		t.Error("expected audio content")
	}
}

func TestSpeak_EmptyText(t *testing.T) {
	server := setupAPI(t)

	resp, err := http.Post(server.URL+"/api/v1/speak", "application/json",
		strings.NewReader(`{"text":"  "}`))
	if err != nil {
		t.Fatalf("speak request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
