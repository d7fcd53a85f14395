package api

// ClassifyRequest carries a free-text emergency description.
type ClassifyRequest struct {
	Description string `json:"description"`
}

// ClassifyResponse returns the resolved emergency category identifier.
type ClassifyResponse struct {
	EmergencyType string `json:"emergency_type"`
}

// SpeakRequest carries one instruction text to synthesize.
type SpeakRequest struct {
	Text string `json:"text"`
}

// SpeakResponse returns the synthesized audio, base64 encoded.
type SpeakResponse struct {
	AudioContent string `json:"audio_content"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
