package entities

import "errors"

// ProtocolSession tracks progress through one emergency step script.
// StepIndex is a zero-based cursor into the script's step list; the
// session stays within [0, totalSteps) while active.
type ProtocolSession struct {
	Category   string `json:"category"`
	StepIndex  int    `json:"step_index"`
	TotalSteps int    `json:"total_steps"`
	Active     bool   `json:"active"`
}

// StartProtocolSession opens a session at step 0 of the given script.
func StartProtocolSession(category string, totalSteps int) (*ProtocolSession, error) {
	if totalSteps <= 0 {
		return nil, errors.New("protocol script has no steps")
	}
	return &ProtocolSession{
		Category:   category,
		StepIndex:  0,
		TotalSteps: totalSteps,
		Active:     true,
	}, nil
}

// Advance moves the cursor one step forward. When the cursor is already
// on the final step the session completes and becomes inactive; calling
// Advance again keeps reporting completion.
func (s *ProtocolSession) Advance() (completed bool) {
	if !s.Active {
		return true
	}
	if s.StepIndex+1 >= s.TotalSteps {
		s.Active = false
		return true
	}
	s.StepIndex++
	return false
}

// End deactivates the session, used when the user returns to the menu.
func (s *ProtocolSession) End() {
	s.Active = false
}

// Validate checks the session invariants.
func (s *ProtocolSession) Validate() error {
	if s.Category == "" {
		return errors.New("category is required")
	}
	if s.Active && (s.StepIndex < 0 || s.StepIndex >= s.TotalSteps) {
		return errors.New("step index out of range")
	}
	return nil
}
