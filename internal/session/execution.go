package session

import (
	"fmt"

	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/runner"
	"github.com/shinji-kodama/hgbuf/internal/surface"
)

// State is the lifecycle state of one command execution.
//
//	idle -> running -> succeeded -> displayed -> closed
//	                -> failed-exit
//	                -> failed-empty
//
// The failed states are terminal; a retry is a new execution.
type State string

const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StateSucceeded   State = "succeeded"
	StateFailedExit  State = "failed-exit"
	StateFailedEmpty State = "failed-empty"
	StateDisplayed   State = "displayed"
	StateClosed      State = "closed"
)

var transitions = map[State][]State{
	StateIdle:      {StateRunning},
	StateRunning:   {StateSucceeded, StateFailedExit, StateFailedEmpty},
	StateSucceeded: {StateDisplayed},
	StateDisplayed: {StateClosed},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Execution records one end-to-end run of an invocation.
type Execution struct {
	// ID is the session-unique execution identifier.
	ID string

	// Invocation is the request that started the execution.
	Invocation model.Invocation

	// CommandLine is the command line that was (or would be) run.
	CommandLine string

	// State is the current lifecycle state.
	State State

	// Output is set once the command succeeded.
	Output *runner.Output

	// Surface is set once the output is displayed.
	Surface *surface.Surface

	// Err is the error that stopped the execution, if any.
	Err error
}

func (e *Execution) transition(to State) error {
	if !CanTransition(e.State, to) {
		return fmt.Errorf("execution %s: illegal transition %s -> %s", e.ID, e.State, to)
	}
	e.State = to
	return nil
}
