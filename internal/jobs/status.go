package jobs

import (
	"errors"
	"fmt"

	"hearsay/internal/models"
)

// ErrTerminalState is returned when an update targets a finished job.
var ErrTerminalState = errors.New("job already finished")

// ErrInvalidTransition is returned for edges the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid job transition")

// Phase is what a client does with a polled job.
type Phase int

const (
	// PhaseLoading means keep polling.
	PhaseLoading Phase = iota
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PhaseOf maps a job to its polling phase. NOT_STARTED and RUNNING are
// indistinguishable to a poller.
func PhaseOf(job models.Job) Phase {
	switch job.Current().(type) {
	case models.NotStarted, models.Running:
		return PhaseLoading
	case models.Succeeded:
		return PhaseSucceeded
	case models.Failed:
		return PhaseFailed
	default:
		panic(fmt.Sprintf("jobs: unhandled state %T", job.Current()))
	}
}

// IsTerminal reports whether no further transition can leave job.
func IsTerminal(job models.Job) bool {
	return PhaseOf(job) != PhaseLoading
}

// CanTransition enforces the lifecycle edges.
func CanTransition(from, to models.JobStatus) bool {
	switch from {
	case models.JobNotStarted:
		return to == models.JobRunning || to == models.JobSuccess || to == models.JobFailed
	case models.JobRunning:
		return to == models.JobSuccess || to == models.JobFailed
	default:
		return false
	}
}

// Apply validates moving current to next and returns the resulting job.
// Repeating a non-terminal status is a no-op.
func Apply(current, next models.Job) (models.Job, error) {
	if IsTerminal(current) {
		return current, ErrTerminalState
	}
	from, to := current.Status(), next.Status()
	if from == to {
		return current, nil
	}
	if !CanTransition(from, to) {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return next, nil
}
