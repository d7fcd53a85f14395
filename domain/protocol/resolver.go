package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Actions accepted by the emergency_guidance tool.
const (
	ActionStart             = "start"
	ActionNext              = "next"
	ActionRepeat            = "repeat"
	ActionEmergencyServices = "emergency_services"
)

// Actions lists the closed action enumeration.
func Actions() []string {
	return []string{ActionStart, ActionNext, ActionRepeat, ActionEmergencyServices}
}

const (
	completionMessage = "You've completed all the steps. Keep doing what you're doing and stay with them until emergency services arrive. You're doing an amazing job."
	servicesMessage   = "Call 999 or 112 immediately. Tell them you have a medical emergency and describe what's happening."
)

// ToolCallArgs are the parsed arguments of an emergency_guidance call.
type ToolCallArgs struct {
	EmergencyType string `json:"emergency_type"`
	Action        string `json:"action"`
	Step          int    `json:"step"`
}

// ParseToolCallArgs decodes the raw JSON argument string of a tool call.
func ParseToolCallArgs(raw string) (ToolCallArgs, error) {
	var args ToolCallArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return ToolCallArgs{}, fmt.Errorf("failed to parse tool call arguments: %w", err)
	}
	if args.EmergencyType == "" {
		return ToolCallArgs{}, fmt.Errorf("tool call missing emergency_type")
	}
	if args.Action == "" {
		return ToolCallArgs{}, fmt.Errorf("tool call missing action")
	}
	return args, nil
}

// Result is the outcome of resolving one guidance action. A non-empty
// Error field marks a structured failure (unknown category or action);
// resolution itself never faults.
type Result struct {
	Message     string `json:"message,omitempty"`
	Step        string `json:"step,omitempty"`
	CurrentStep int    `json:"current_step,omitempty"`
	TotalSteps  int    `json:"total_steps,omitempty"`
	Completed   bool   `json:"completed,omitempty"`
	Urgent      bool   `json:"urgent,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Resolve maps (category, action, step) to the next instructional text.
// It holds no mutable state; the step table is static and shared.
//
// next past the final step keeps returning the completion message, so
// repeated advance requests are idempotent.
func Resolve(category, action string, step int) Result {
	if action == ActionEmergencyServices {
		return Result{Message: servicesMessage, Urgent: true}
	}

	steps := Steps(category)
	if steps == nil {
		return Result{Error: "Unknown emergency type"}
	}

	switch action {
	case ActionStart:
		return Result{
			Message:     fmt.Sprintf("I'm going to guide you through %s first aid. Let's start with step 1:", DisplayName(category)),
			Step:        steps[0],
			CurrentStep: 1,
			TotalSteps:  len(steps),
		}

	case ActionNext:
		next := step + 1
		if next < 0 {
			return Result{Error: "Invalid step"}
		}
		if next < len(steps) {
			return Result{
				Message:     fmt.Sprintf("Great job! Now for step %d:", next+1),
				Step:        steps[next],
				CurrentStep: next + 1,
				TotalSteps:  len(steps),
			}
		}
		return Result{Message: completionMessage, Completed: true}

	case ActionRepeat:
		if step < 0 || step >= len(steps) {
			return Result{Error: "Invalid step"}
		}
		return Result{
			Message:     fmt.Sprintf("Let me repeat step %d:", step+1),
			Step:        steps[step],
			CurrentStep: step + 1,
			TotalSteps:  len(steps),
		}

	default:
		return Result{Error: "Unknown action"}
	}
}

// DisplayName renders a category id as spoken text.
func DisplayName(category string) string {
	return strings.ReplaceAll(category, "-", " ")
}
