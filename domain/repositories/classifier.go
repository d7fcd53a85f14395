package repositories

import "context"

// EmergencyClassifier maps a free-text emergency description to one
// category identifier from the protocol enumeration.
type EmergencyClassifier interface {
	Classify(ctx context.Context, description string) (string, error)
}
