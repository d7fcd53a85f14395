// Package realtime implements the client side of the duplex voice
// connection: it streams microphone frames and text turns up to the
// relay and dispatches the model's audio, transcripts and lifecycle
// events as they arrive.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/buddyaid/server/client/audio"
	"github.com/buddyaid/server/domain"
	"github.com/buddyaid/server/domain/entities"
)

const defaultReconnectBackoff = 3 * time.Second

// Config holds the connection parameters for a Client.
type Config struct {
	// URL is the relay websocket endpoint, e.g. ws://localhost:8080/ws.
	URL string
	// ReconnectBackoff is the fixed delay before every reconnection
	// attempt. Zero means the 3 second default.
	ReconnectBackoff time.Duration
}

// Playback receives decoded PCM segments in arrival order.
type Playback interface {
	Enqueue(pcm []byte)
	Clear()
}

// Client maintains one duplex connection to the relay. On any
// connection failure it waits a fixed backoff and reconnects until
// Stop is called. Conversation state survives reconnections.
type Client struct {
	config   Config
	playback Playback
	logger   *zap.Logger

	// onMessage, when set, is invoked for every finalized message
	// appended to the conversation log.
	onMessage func(entities.ConversationMessage)

	mu         sync.Mutex
	conn       *websocket.Conn
	log        entities.ConversationLog
	assistant  entities.TranscriptBuffer
	responding bool
	started    bool

	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

func NewClient(config Config, playback Playback, logger *zap.Logger) *Client {
	if config.ReconnectBackoff <= 0 {
		config.ReconnectBackoff = defaultReconnectBackoff
	}
	return &Client{
		config:   config,
		playback: playback,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// OnMessage registers a callback for finalized conversation messages.
// Must be called before Start.
func (c *Client) OnMessage(fn func(entities.ConversationMessage)) {
	c.onMessage = fn
}

// Start launches the connection loop. It returns immediately; the
// client dials and redials in the background until Stop.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run(ctx)
}

// Stop tears the connection down and ends the reconnect loop. Safe to
// call more than once.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
		if c.playback != nil {
			c.playback.Clear()
		}
	})
}

// Done is closed once the connection loop has fully exited.
func (c *Client) Done() <-chan struct{} {
	return c.stopped
}

// SendAudioFrame streams one microphone frame upstream. Frames are fire
// and forget: failures are logged and the frame is dropped.
func (c *Client) SendAudioFrame(samples []float32) {
	encoded := audio.EncodeFrame(audio.Float32ToPCM16(samples))
	c.send(domain.NewAudioAppend(encoded))
}

// SendText submits a typed user turn and asks the model to respond.
func (c *Client) SendText(text string) {
	c.mu.Lock()
	c.log.Append(entities.MessageRoleUser, text)
	c.mu.Unlock()
	c.send(domain.NewUserText(text))
	c.send(domain.NewResponseCreate())
}

// Messages returns the conversation log so far.
func (c *Client) Messages() []entities.ConversationMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Messages()
}

// Responding reports whether the model is mid-response.
func (c *Client) Responding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responding
}

// CurrentTranscript returns the assistant transcript accumulated for
// the in-flight response.
func (c *Client) CurrentTranscript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assistant.Text()
}

func (c *Client) run(ctx context.Context) {
	defer close(c.stopped)
	for {
		if c.isDone(ctx) {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.config.URL, nil)
		if err != nil {
			c.logger.Warn("Connection failed, retrying",
				zap.String("url", c.config.URL),
				zap.Duration("backoff", c.config.ReconnectBackoff),
				zap.Error(err))
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.logger.Info("Connected", zap.String("url", c.config.URL))

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.responding = false
		c.mu.Unlock()
		conn.Close()

		if c.isDone(ctx) {
			return
		}
		c.logger.Warn("Connection lost, reconnecting",
			zap.Duration("backoff", c.config.ReconnectBackoff))
		if !c.sleep(ctx) {
			return
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("Dropping undecodable message", zap.Error(err))
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env domain.Envelope) {
	switch env.Type {
	case domain.EnvelopeResponseCreated:
		c.mu.Lock()
		c.responding = true
		c.mu.Unlock()

	case domain.EnvelopeAudioDelta:
		pcm, err := audio.DecodeDelta(env.Delta)
		if err != nil {
			c.logger.Warn("Dropping audio delta", zap.Error(err))
			return
		}
		if c.playback != nil {
			c.playback.Enqueue(pcm)
		}

	case domain.EnvelopeTranscriptDelta:
		c.mu.Lock()
		c.assistant.Write(env.Delta)
		c.mu.Unlock()

	case domain.EnvelopeTranscriptDone:
		c.mu.Lock()
		text := c.assistant.Flush()
		if env.Transcript != "" {
			text = env.Transcript
		}
		msg := c.log.Append(entities.MessageRoleAssistant, text)
		c.responding = false
		c.mu.Unlock()
		c.notify(msg)

	case domain.EnvelopeInputTranscriptDone:
		c.mu.Lock()
		msg := c.log.Append(entities.MessageRoleUser, env.Transcript)
		c.mu.Unlock()
		c.notify(msg)

	default:
		// Lifecycle noise the client has no use for.
	}
}

func (c *Client) notify(msg entities.ConversationMessage) {
	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

func (c *Client) send(env domain.Envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("Failed to encode envelope", zap.String("type", env.Type), zap.Error(err))
		return
	}
	c.mu.Lock()
	conn := c.conn
	if conn != nil {
		err = conn.WriteMessage(websocket.TextMessage, raw)
	}
	c.mu.Unlock()
	if conn == nil {
		c.logger.Debug("Dropping envelope, not connected", zap.String("type", env.Type))
		return
	}
	if err != nil {
		c.logger.Warn("Failed to send envelope", zap.String("type", env.Type), zap.Error(err))
	}
}

func (c *Client) sleep(ctx context.Context) bool {
	select {
	case <-time.After(c.config.ReconnectBackoff):
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Client) isDone(ctx context.Context) bool {
	select {
	case <-c.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
