package audio

import (
	"sync"

	"go.uber.org/zap"
)

// Player renders a single WAV-encoded clip and blocks until playback
// finishes. Returning an error means the clip was skipped.
type Player interface {
	Play(wav []byte) error
}

// Queue plays PCM segments strictly in arrival order, one at a time.
// A segment that fails to play is dropped and the queue moves on.
type Queue struct {
	player Player
	logger *zap.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending [][]byte
	playing bool
	closed  bool
}

func NewQueue(player Player, logger *zap.Logger) *Queue {
	q := &Queue{
		player: player,
		logger: logger,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Enqueue appends a PCM segment. Playback starts immediately when the
// queue is idle.
func (q *Queue) Enqueue(pcm []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, pcm)
	q.cond.Signal()
}

// Playing reports whether a segment is currently being rendered.
func (q *Queue) Playing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

// Pending reports the number of segments waiting behind the current one.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Clear discards all pending segments. The segment already handed to
// the player finishes on its own.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
	q.playing = false
}

// Close stops the queue permanently. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.pending = nil
	q.cond.Signal()
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.playing = false
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		head := q.pending[0]
		q.pending = q.pending[1:]
		q.playing = true
		q.mu.Unlock()

		if err := q.player.Play(WrapPCMInWAV(head)); err != nil {
			q.logger.Warn("Skipping audio segment", zap.Error(err))
		}
	}
}
