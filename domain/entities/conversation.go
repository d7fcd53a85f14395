package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the speaker of a conversation message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one finalized utterance in the session log.
// Messages are never mutated after creation, only appended.
type ConversationMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewConversationMessage creates a message with a fresh unique id.
func NewConversationMessage(role MessageRole, text string) ConversationMessage {
	return ConversationMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// ConversationLog is the append-only message history for one session.
type ConversationLog struct {
	messages []ConversationMessage
}

// Append records a finalized message and returns it.
func (l *ConversationLog) Append(role MessageRole, text string) ConversationMessage {
	msg := NewConversationMessage(role, text)
	l.messages = append(l.messages, msg)
	return msg
}

// Messages returns a copy of the log in append order.
func (l *ConversationLog) Messages() []ConversationMessage {
	out := make([]ConversationMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len reports the number of logged messages.
func (l *ConversationLog) Len() int {
	return len(l.messages)
}

// TranscriptBuffer accumulates incremental text deltas for one
// in-flight utterance. It is flushed into a ConversationMessage exactly
// once per completed utterance, then cleared.
type TranscriptBuffer struct {
	sb strings.Builder
}

// Write appends a transcript delta.
func (b *TranscriptBuffer) Write(delta string) {
	b.sb.WriteString(delta)
}

// Text returns the accumulated transcript so far.
func (b *TranscriptBuffer) Text() string {
	return b.sb.String()
}

// Flush returns the accumulated transcript and resets the buffer.
func (b *TranscriptBuffer) Flush() string {
	text := b.sb.String()
	b.sb.Reset()
	return text
}
