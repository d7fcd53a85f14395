package domain

import "encoding/json"

// Envelope type tags carried over the realtime duplex connections.
// The same vocabulary is used on both legs: client <-> relay and
// relay <-> model service.
const (
	// Client -> model
	EnvelopeInputAudioAppend = "input_audio_buffer.append"
	EnvelopeItemCreate       = "conversation.item.create"
	EnvelopeResponseCreate   = "response.create"
	EnvelopeSessionUpdate    = "session.update"

	// Model -> client
	EnvelopeSessionCreated      = "session.created"
	EnvelopeResponseCreated     = "response.created"
	EnvelopeAudioDelta          = "response.audio.delta"
	EnvelopeTranscriptDelta     = "response.audio_transcript.delta"
	EnvelopeTranscriptDone      = "response.audio_transcript.done"
	EnvelopeInputTranscriptDone = "conversation.item.input_audio_transcription.completed"
	EnvelopeToolCallDone        = "response.function_call_arguments.done"
)

// Envelope is one typed message exchanged over a duplex connection.
// Exactly one type tag per message; only the fields belonging to that
// tag are populated. The relay forwards raw bytes and only decodes the
// envelopes it intercepts.
type Envelope struct {
	Type       string            `json:"type"`
	Audio      string            `json:"audio,omitempty"`      // base64 PCM16, input_audio_buffer.append
	Delta      string            `json:"delta,omitempty"`      // audio (base64) or transcript (text) delta
	Transcript string            `json:"transcript,omitempty"` // completed input transcription
	CallID     string            `json:"call_id,omitempty"`    // tool call completion
	Arguments  string            `json:"arguments,omitempty"`  // tool call arguments, JSON text
	Item       *ConversationItem `json:"item,omitempty"`
	Session    json.RawMessage   `json:"session,omitempty"`
}

// ConversationItem is the payload of a conversation.item.create envelope.
type ConversationItem struct {
	Type    string        `json:"type"` // "message" or "function_call_output"
	Role    string        `json:"role,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
	Content []ItemContent `json:"content,omitempty"`
}

// ItemContent is one content part of a conversation item.
type ItemContent struct {
	Type string `json:"type"` // "input_text"
	Text string `json:"text"`
}

// NewAudioAppend builds an input_audio_buffer.append envelope from
// already base64-encoded PCM16 samples.
func NewAudioAppend(encodedAudio string) Envelope {
	return Envelope{Type: EnvelopeInputAudioAppend, Audio: encodedAudio}
}

// NewUserText builds a conversation.item.create envelope carrying one
// user text turn.
func NewUserText(text string) Envelope {
	return Envelope{
		Type: EnvelopeItemCreate,
		Item: &ConversationItem{
			Type: "message",
			Role: "user",
			Content: []ItemContent{
				{Type: "input_text", Text: text},
			},
		},
	}
}

// NewResponseCreate builds the trigger that asks the model to generate
// a response for the conversation so far.
func NewResponseCreate() Envelope {
	return Envelope{Type: EnvelopeResponseCreate}
}

// NewToolResult builds the function_call_output item answering a tool
// call. Output is the resolver result serialized as JSON text.
func NewToolResult(callID, output string) Envelope {
	return Envelope{
		Type: EnvelopeItemCreate,
		Item: &ConversationItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
}
