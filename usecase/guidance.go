// Package usecase holds the conversational flows built on top of the
// domain layer: the step-progression state machine for guided first
// aid and the sequential speech queue behind it.
package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/buddyaid/server/domain/entities"
	"github.com/buddyaid/server/domain/protocol"
	"github.com/buddyaid/server/domain/repositories"
)

// GuidanceState names the phase of the guided conversation.
type GuidanceState string

const (
	// StateIdle: nothing has been said yet.
	StateIdle GuidanceState = "idle"
	// StateAwaitingIntent: listening for a description of the emergency.
	StateAwaitingIntent GuidanceState = "awaiting_intent"
	// StateInGuidance: walking the user through a step script.
	StateInGuidance GuidanceState = "in_guidance"
)

const (
	defaultIntentDebounce   = 500 * time.Millisecond
	defaultGuidanceDebounce = 2 * time.Second
	defaultAckDelay         = 2 * time.Second

	classifyTimeout = 15 * time.Second

	emergencyNumber = "999"

	classificationApology = "I'm having trouble connecting right now; call emergency services directly if this is urgent."
)

// Utterances containing any of these markers count as the user
// reporting that the current step is done.
var progressionMarkers = []string{"yes", "done", "okay", "completed"}

func signalsProgress(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range progressionMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// Speaker queues text for sequential speech output.
type Speaker interface {
	Speak(text string)
	Clear()
}

// GuidanceConfig tunes the machine's timing. Zero values take the
// defaults.
type GuidanceConfig struct {
	// IntentDebounce is the quiet window that finalizes an utterance
	// while idle or awaiting the emergency description.
	IntentDebounce time.Duration
	// GuidanceDebounce is the longer quiet window used mid-protocol,
	// where users speak slowly while performing steps.
	GuidanceDebounce time.Duration
	// AckDelay is the pause between the reassurance phrase and the
	// next step announcement.
	AckDelay time.Duration
}

func (c *GuidanceConfig) applyDefaults() {
	if c.IntentDebounce <= 0 {
		c.IntentDebounce = defaultIntentDebounce
	}
	if c.GuidanceDebounce <= 0 {
		c.GuidanceDebounce = defaultGuidanceDebounce
	}
	if c.AckDelay <= 0 {
		c.AckDelay = defaultAckDelay
	}
}

// GuidanceMachine drives a guided first aid session from streamed
// transcripts. Incoming transcripts are debounced so only the most
// recent utterance in a burst is acted on; the debounce window widens
// once a protocol is underway.
type GuidanceMachine struct {
	config     GuidanceConfig
	classifier repositories.EmergencyClassifier
	speech     Speaker
	phrases    PhraseStrategy
	dialer     EmergencyDialer
	logger     *zap.Logger

	mu       sync.Mutex
	state    GuidanceState
	session  *entities.ProtocolSession
	log      entities.ConversationLog
	pending  string
	debounce *time.Timer
	ack      *time.Timer
	stopped  bool
}

func NewGuidanceMachine(
	config GuidanceConfig,
	classifier repositories.EmergencyClassifier,
	speech Speaker,
	phrases PhraseStrategy,
	dialer EmergencyDialer,
	logger *zap.Logger,
) *GuidanceMachine {
	config.applyDefaults()
	return &GuidanceMachine{
		config:     config,
		classifier: classifier,
		speech:     speech,
		phrases:    phrases,
		dialer:     dialer,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current conversation phase.
func (m *GuidanceMachine) State() GuidanceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a snapshot of the active protocol session, or nil.
func (m *GuidanceMachine) Session() *entities.ProtocolSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	snapshot := *m.session
	return &snapshot
}

// Messages returns the conversation log so far.
func (m *GuidanceMachine) Messages() []entities.ConversationMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log.Messages()
}

// HandleTranscript feeds one recognition result into the machine. Every
// call restarts the debounce timer; only the latest text is kept.
func (m *GuidanceMachine) HandleTranscript(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || strings.TrimSpace(text) == "" {
		return
	}
	m.pending = text
	window := m.config.IntentDebounce
	if m.state == StateInGuidance {
		window = m.config.GuidanceDebounce
	}
	if m.debounce != nil {
		m.debounce.Stop()
	}
	m.debounce = time.AfterFunc(window, m.finalizePending)
}

// ConsumeStream pumps a recognition stream into the machine until the
// stream's event channel closes.
func (m *GuidanceMachine) ConsumeStream(stream repositories.RecognitionStream) {
	for event := range stream.Events() {
		m.HandleTranscript(event.Text)
	}
}

func (m *GuidanceMachine) finalizePending() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	text := strings.TrimSpace(m.pending)
	m.pending = ""
	if text == "" {
		m.mu.Unlock()
		return
	}
	m.log.Append(entities.MessageRoleUser, text)
	if m.state == StateIdle {
		m.state = StateAwaitingIntent
	}
	state := m.state
	m.mu.Unlock()

	switch state {
	case StateAwaitingIntent:
		m.classifyAndStart(text)
	case StateInGuidance:
		if signalsProgress(text) {
			m.acknowledgeThenAdvance()
		} else {
			m.repeatCurrentStep()
		}
	}
}

func (m *GuidanceMachine) classifyAndStart(description string) {
	ctx, cancel := context.WithTimeout(context.Background(), classifyTimeout)
	defer cancel()

	category, err := m.classifier.Classify(ctx, description)
	if err != nil {
		m.logger.Warn("Emergency classification failed", zap.Error(err))
		m.say(classificationApology)
		return
	}
	m.logger.Info("Emergency classified",
		zap.String("category", category),
		zap.String("description", description))
	m.StartGuidance(category)
}

// StartGuidance begins the step script for a category. It is also the
// entry point for explicit category selection, bypassing
// classification. Categories without a script fall back to the
// emergency services directive and leave the machine awaiting intent.
func (m *GuidanceMachine) StartGuidance(category string) {
	result := protocol.Resolve(category, protocol.ActionStart, 0)
	if result.Error != "" {
		m.logger.Warn("No step script for category", zap.String("category", category))
		fallback := protocol.Resolve(category, protocol.ActionEmergencyServices, 0)
		m.mu.Lock()
		if m.state == StateIdle {
			m.state = StateAwaitingIntent
		}
		m.mu.Unlock()
		m.say(fallback.Message)
		return
	}

	session, err := entities.StartProtocolSession(category, result.TotalSteps)
	if err != nil {
		m.logger.Error("Failed to open protocol session", zap.Error(err))
		return
	}

	m.mu.Lock()
	m.session = session
	m.state = StateInGuidance
	m.mu.Unlock()

	m.say(result.Message + " " + result.Step)
}

func (m *GuidanceMachine) acknowledgeThenAdvance() {
	m.say(m.phrases.Next())
	m.mu.Lock()
	if m.ack != nil {
		m.ack.Stop()
	}
	m.ack = time.AfterFunc(m.config.AckDelay, m.advanceStep)
	m.mu.Unlock()
}

func (m *GuidanceMachine) advanceStep() {
	// Resolve is a pure table lookup, so the lock is held across it;
	// ReturnToMenu may nil the session between an ack timer firing and
	// this running.
	m.mu.Lock()
	session := m.session
	if m.stopped || session == nil {
		m.mu.Unlock()
		return
	}
	result := protocol.Resolve(session.Category, protocol.ActionNext, session.StepIndex)
	if result.Completed {
		session.End()
	} else {
		session.Advance()
	}
	m.mu.Unlock()

	if result.Completed {
		m.say(result.Message)
		return
	}
	m.say(result.Message + " " + result.Step)
}

func (m *GuidanceMachine) repeatCurrentStep() {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	category := m.session.Category
	step := m.session.StepIndex
	m.mu.Unlock()

	result := protocol.Resolve(category, protocol.ActionRepeat, step)
	if result.Error != "" {
		return
	}
	m.say(result.Message + " " + result.Step)
}

// CallEmergencyServices hands the emergency number to the platform
// dialer and speaks the call directive. Dialing never blocks guidance.
func (m *GuidanceMachine) CallEmergencyServices() {
	if m.dialer != nil {
		if err := m.dialer.Dial(emergencyNumber); err != nil {
			m.logger.Warn("Emergency dial failed", zap.Error(err))
		}
	}
	result := protocol.Resolve("", protocol.ActionEmergencyServices, 0)
	m.say(result.Message)
}

// ReturnToMenu abandons the current protocol: timers are cancelled,
// queued speech is dropped and the machine goes back to idle. The
// conversation log is kept.
func (m *GuidanceMachine) ReturnToMenu() {
	m.mu.Lock()
	m.cancelTimersLocked()
	m.pending = ""
	if m.session != nil {
		m.session.End()
		m.session = nil
	}
	m.state = StateIdle
	m.mu.Unlock()
	m.speech.Clear()
}

// Stop shuts the machine down. Safe to call more than once.
func (m *GuidanceMachine) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.cancelTimersLocked()
	m.pending = ""
	m.mu.Unlock()
	m.speech.Clear()
}

func (m *GuidanceMachine) cancelTimersLocked() {
	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
	if m.ack != nil {
		m.ack.Stop()
		m.ack = nil
	}
}

func (m *GuidanceMachine) say(text string) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.log.Append(entities.MessageRoleAssistant, text)
	m.mu.Unlock()
	m.speech.Speak(text)
}
