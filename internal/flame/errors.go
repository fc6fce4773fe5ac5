package flame

import (
	"errors"
	"fmt"
)

var (
	// ErrInitialization reports that no simulation could be started: no
	// backend, invalid parameters, or the initial clear failed.
	ErrInitialization = errors.New("flame: initialization failed")
	// ErrAllocation reports that a grid or kernel object could not be created.
	ErrAllocation = errors.New("flame: resource allocation failed")
	// ErrStepInProgress is returned by Step and Reset while a step runs.
	ErrStepInProgress = errors.New("flame: step already in progress")
	// ErrHalted is returned once a step has failed. Field contents are
	// undefined and the simulation cannot be advanced again.
	ErrHalted = errors.New("flame: simulation halted")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("flame: simulation closed")
)

// StepError is a failed dispatch during a step. The step is abandoned.
type StepError struct {
	Frame uint64
	Stage string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("flame: frame %d stage %s: %v", e.Frame, e.Stage, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
