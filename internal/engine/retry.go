package engine

// DefaultMaxRetries bounds re-sends of a failed final submission.
const DefaultMaxRetries = 10

// SaveOutcome reports what became of a save.
type SaveOutcome string

const (
	OutcomeSubmitted      SaveOutcome = "SUBMITTED"
	OutcomePartiallySaved SaveOutcome = "PARTIALLY_SAVED"
	OutcomeAbandoned      SaveOutcome = "ABANDONED"
	OutcomeDropped        SaveOutcome = "DROPPED"
	OutcomeSkipped        SaveOutcome = "SKIPPED"
)

// retrier counts re-sends of a final submission. The counter persists across
// submissions and is cleared only by a successful one.
type retrier struct {
	tries int
	max   int
}

func newRetrier(max int) *retrier {
	if max < 0 {
		max = 0
	}
	return &retrier{max: max}
}

// next reports whether another attempt is allowed and consumes it.
func (r *retrier) next() bool {
	if r.tries >= r.max {
		return false
	}
	r.tries++
	return true
}

func (r *retrier) reset() { r.tries = 0 }
