package scheduler

import "fmt"

// State is the lifecycle state of a transcription job.
type State int

const (
	// StateQueued - the job was admitted and waits for a worker.
	StateQueued State = iota
	// StateRunning - a worker is invoking the engine for this job.
	StateRunning
	// StateCompleted - the engine produced a transcript.
	StateCompleted
	// StateFailed - the engine reported a decode or inference failure.
	StateFailed
	// StateTimedOut - the deadline elapsed while queued or running.
	StateTimedOut
	// StateRejected - admission refused the job because the queue was full.
	// Reachable only from admission, never after acceptance.
	StateRejected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "QUEUED"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateRejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// IsTerminal reports whether the state is terminal.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateRejected:
		return true
	}
	return false
}
