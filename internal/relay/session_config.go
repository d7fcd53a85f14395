package relay

import (
	"encoding/json"

	"github.com/buddyaid/server/domain"
	"github.com/buddyaid/server/domain/protocol"
)

// assistantInstructions is the fixed behavioral instruction sent to the
// model service when the session is configured.
const assistantInstructions = `You are BuddyAid, a calm, reassuring emergency first aid assistant following St John Ambulance protocols. You guide users through emergency situations step by step with clear, simple instructions. Always:

1. Stay calm and reassuring
2. Give clear, specific instructions
3. Use simple language
4. Wait for confirmation before moving to next step
5. Remind users to call 999/112 if they haven't already
6. Follow official St John Ambulance protocols exactly

You can help with these emergencies:
- Severe bleeding
- Choking (adult and baby)
- Unresponsive not breathing (CPR)
- Heart attack
- Stroke
- Seizures

Guide users through each step, wait for their response, then continue to the next step. Be supportive and encouraging throughout.`

type sessionSettings struct {
	Modalities              []string           `json:"modalities"`
	Instructions            string             `json:"instructions"`
	Voice                   string             `json:"voice"`
	InputAudioFormat        string             `json:"input_audio_format"`
	OutputAudioFormat       string             `json:"output_audio_format"`
	InputAudioTranscription transcriptionModel `json:"input_audio_transcription"`
	TurnDetection           turnDetection      `json:"turn_detection"`
	Tools                   []toolDeclaration  `json:"tools"`
	ToolChoice              string             `json:"tool_choice"`
	Temperature             float64            `json:"temperature"`
	MaxResponseOutputTokens string             `json:"max_response_output_tokens"`
}

type transcriptionModel struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

type toolDeclaration struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  toolParameters `json:"parameters"`
}

type toolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]toolProperty `json:"properties"`
	Required   []string                `json:"required"`
}

type toolProperty struct {
	Type        string   `json:"type"`
	Enum        []string `json:"enum,omitempty"`
	Description string   `json:"description"`
}

// sessionUpdateEnvelope builds the session.update payload establishing
// modalities, audio formats, server-side turn detection, and the
// emergency_guidance tool with its closed category/action enums. The
// upstream service expects this exact shape.
func sessionUpdateEnvelope() ([]byte, error) {
	settings := sessionSettings{
		Modalities:              []string{"text", "audio"},
		Instructions:            assistantInstructions,
		Voice:                   "alloy",
		InputAudioFormat:        "pcm16",
		OutputAudioFormat:       "pcm16",
		InputAudioTranscription: transcriptionModel{Model: "whisper-1"},
		TurnDetection: turnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMs:   300,
			SilenceDurationMs: 1500,
		},
		Tools: []toolDeclaration{
			{
				Type:        "function",
				Name:        "emergency_guidance",
				Description: "Provide step-by-step emergency guidance for specific situations",
				Parameters: toolParameters{
					Type: "object",
					Properties: map[string]toolProperty{
						"emergency_type": {
							Type:        "string",
							Enum:        protocol.Categories(),
							Description: "The type of emergency situation",
						},
						"step": {
							Type:        "number",
							Description: "Current step number in the protocol",
						},
						"action": {
							Type:        "string",
							Enum:        protocol.Actions(),
							Description: "The action to take",
						},
					},
					Required: []string{"emergency_type", "action"},
				},
			},
		},
		ToolChoice:              "auto",
		Temperature:             0.3,
		MaxResponseOutputTokens: "inf",
	}

	session, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.Envelope{
		Type:    domain.EnvelopeSessionUpdate,
		Session: session,
	})
}
