package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/buddyaid/server/domain"
	"github.com/buddyaid/server/domain/protocol"
)

const (
	// Time allowed to write a message to either peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings to the client with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the client.
	maxMessageSize = 512 * 1024 // 512KB for audio envelopes

	// Outbound queue depth per leg.
	sendQueueSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// UpstreamDialer opens the model-service leg of a session.
type UpstreamDialer func(ctx context.Context) (*websocket.Conn, error)

// Relay bridges one client connection to one upstream model connection,
// 1:1, for the lifetime of the client connection. Each accepted client
// gets its own session with no state shared across sessions.
type Relay struct {
	dial   UpstreamDialer
	logger *zap.Logger
}

// NewRelay creates a relay that dials the upstream model service at
// upstreamURL with the given API key.
func NewRelay(upstreamURL, apiKey string, logger *zap.Logger) *Relay {
	dial := func(ctx context.Context) (*websocket.Conn, error) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+apiKey)
		header.Set("OpenAI-Beta", "realtime=v1")
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, upstreamURL, header)
		return conn, err
	}
	return NewRelayWithDialer(dial, logger)
}

// NewRelayWithDialer creates a relay with a custom upstream dialer,
// used by tests to substitute a fake model service.
func NewRelayWithDialer(dial UpstreamDialer, logger *zap.Logger) *Relay {
	return &Relay{dial: dial, logger: logger}
}

// HandleWebSocket upgrades the client request and runs a bridged
// session until either leg closes.
func (r *Relay) HandleWebSocket(c echo.Context) error {
	clientConn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		r.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	upstreamConn, err := r.dial(ctx)
	cancel()
	if err != nil {
		r.logger.Error("Failed to dial upstream model service", zap.Error(err))
		clientConn.Close()
		return nil
	}

	s := &session{
		client:     clientConn,
		upstream:   upstreamConn,
		toClient:   make(chan []byte, sendQueueSize),
		toUpstream: make(chan []byte, sendQueueSize),
		done:       make(chan struct{}),
		logger:     r.logger.With(zap.String("remoteAddr", clientConn.RemoteAddr().String())),
	}

	go s.clientReadPump()
	go s.upstreamReadPump()
	go s.clientWritePump()
	go s.upstreamWritePump()

	r.logger.Info("Relay session started",
		zap.String("remoteAddr", clientConn.RemoteAddr().String()))
	return nil
}

// session owns the two legs of one bridged connection pair. All pumps
// stop when done closes; closing either websocket tears down the other.
type session struct {
	client   *websocket.Conn
	upstream *websocket.Conn

	toClient   chan []byte
	toUpstream chan []byte

	closeOnce sync.Once
	done      chan struct{}

	configured bool

	logger *zap.Logger
}

func (s *session) teardown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.client.Close()
		s.upstream.Close()
		s.logger.Info("Relay session closed")
	})
}

// clientReadPump forwards every client message upstream verbatim.
func (s *session) clientReadPump() {
	defer s.teardown()

	s.client.SetReadLimit(maxMessageSize)
	s.client.SetReadDeadline(time.Now().Add(pongWait))
	s.client.SetPongHandler(func(string) error {
		s.client.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.client.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("Client read error", zap.Error(err))
			}
			return
		}
		if !s.enqueue(s.toUpstream, message) {
			return
		}
	}
}

// upstreamReadPump relays model messages downstream, configuring the
// session on session.created and intercepting tool call completions.
// Upstream failure is fatal for the pair; reconnection is the client's
// responsibility.
func (s *session) upstreamReadPump() {
	defer s.teardown()

	for {
		_, message, err := s.upstream.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("Upstream read error", zap.Error(err))
			}
			return
		}

		var envelope domain.Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			// Not an envelope we understand; forward untouched.
			if !s.enqueue(s.toClient, message) {
				return
			}
			continue
		}

		switch envelope.Type {
		case domain.EnvelopeSessionCreated:
			if !s.configured {
				s.configured = true
				if err := s.sendSessionConfig(); err != nil {
					s.logger.Error("Failed to configure session", zap.Error(err))
					return
				}
			}
			if !s.enqueue(s.toClient, message) {
				return
			}

		case domain.EnvelopeToolCallDone:
			// Resolved locally and answered upstream; never forwarded
			// downstream verbatim.
			s.handleToolCall(envelope)

		default:
			if !s.enqueue(s.toClient, message) {
				return
			}
		}
	}
}

func (s *session) sendSessionConfig() error {
	payload, err := sessionUpdateEnvelope()
	if err != nil {
		return err
	}
	if !s.enqueue(s.toUpstream, payload) {
		return context.Canceled
	}
	s.logger.Info("Session configuration sent")
	return nil
}

// handleToolCall resolves an emergency_guidance call and injects the
// result back into the model conversation. Malformed arguments are
// logged and dropped; the relay loop keeps running.
func (s *session) handleToolCall(envelope domain.Envelope) {
	args, err := protocol.ParseToolCallArgs(envelope.Arguments)
	if err != nil {
		s.logger.Error("Dropping malformed tool call",
			zap.String("callID", envelope.CallID),
			zap.Error(err))
		return
	}

	result := protocol.Resolve(args.EmergencyType, args.Action, args.Step)
	output, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("Failed to marshal tool result", zap.Error(err))
		return
	}

	resultEnvelope, err := json.Marshal(domain.NewToolResult(envelope.CallID, string(output)))
	if err != nil {
		s.logger.Error("Failed to marshal tool result envelope", zap.Error(err))
		return
	}
	trigger, err := json.Marshal(domain.NewResponseCreate())
	if err != nil {
		s.logger.Error("Failed to marshal response trigger", zap.Error(err))
		return
	}

	s.logger.Info("Resolved emergency guidance tool call",
		zap.String("category", args.EmergencyType),
		zap.String("action", args.Action),
		zap.Int("step", args.Step))

	// The result must reach the model before the generation trigger;
	// both ride the same ordered queue.
	if !s.enqueue(s.toUpstream, resultEnvelope) {
		return
	}
	s.enqueue(s.toUpstream, trigger)
}

// enqueue places a message on an outbound queue, reporting false when
// the session is shutting down.
func (s *session) enqueue(queue chan []byte, message []byte) bool {
	select {
	case queue <- message:
		return true
	case <-s.done:
		return false
	}
}

// clientWritePump drains toClient onto the client leg and keeps the
// connection alive with pings.
func (s *session) clientWritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.teardown()
	}()

	for {
		select {
		case message := <-s.toClient:
			s.client.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.client.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Error("Failed to write to client", zap.Error(err))
				return
			}
		case <-ticker.C:
			s.client.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.client.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// upstreamWritePump drains toUpstream onto the model-service leg.
func (s *session) upstreamWritePump() {
	defer s.teardown()

	for {
		select {
		case message := <-s.toUpstream:
			s.upstream.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.upstream.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Error("Failed to write upstream", zap.Error(err))
				return
			}
		case <-s.done:
			return
		}
	}
}
