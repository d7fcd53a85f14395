package usecase

import (
	"math/rand"
	"sync"
)

// PhraseStrategy picks the reassurance line spoken when the user
// reports finishing a step, before the next step is announced.
type PhraseStrategy interface {
	Next() string
}

var reassurancePhrases = []string{
	"Well done, you're doing great.",
	"Good, that's exactly right.",
	"You're doing really well, keep going.",
	"Great job, stay with me.",
}

type randomPhrases struct {
	mu      sync.Mutex
	rng     *rand.Rand
	phrases []string
}

// NewRandomPhrases returns the default strategy: a uniformly random
// pick from the built-in reassurance lines.
func NewRandomPhrases(seed int64) PhraseStrategy {
	return &randomPhrases{
		rng:     rand.New(rand.NewSource(seed)),
		phrases: reassurancePhrases,
	}
}

func (r *randomPhrases) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phrases[r.rng.Intn(len(r.phrases))]
}

// StaticPhrase always returns the same line. Useful in tests and for
// deployments that want a single consistent acknowledgement.
type StaticPhrase string

func (s StaticPhrase) Next() string {
	return string(s)
}
