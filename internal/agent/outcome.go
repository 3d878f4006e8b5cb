package agent

// Outcome is the terminal state of a turn.
type Outcome int

const (
	// OutcomeDone means the model answered without requesting more tools.
	OutcomeDone Outcome = iota
	// OutcomeAborted means the turn's context was cancelled.
	OutcomeAborted
	// OutcomeDepthExceeded means the round ceiling was reached.
	OutcomeDepthExceeded
	// OutcomeFailed means a provider error survived all retries.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeAborted:
		return "aborted"
	case OutcomeDepthExceeded:
		return "depth_exceeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TurnResult carries what a finished turn produced.
type TurnResult struct {
	Outcome Outcome
	// Answer is the final model text for Done, or the system-visible
	// stop message for DepthExceeded.
	Answer string
	// Rounds is how many rounds the turn used.
	Rounds int
	// Edited reports whether any edit-bearing tool ran.
	Edited bool
}
