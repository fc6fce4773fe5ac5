// Package flame advances a 2-D stable-fluids flame: buoyancy, injection at
// the wick, semi-Lagrangian advection and a Jacobi pressure projection, each
// issued as grid-parallel kernels over double-buffered fields.
package flame

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"candleflame/internal/field"
	"candleflame/internal/kernel"
)

const (
	stateIdle int32 = iota
	stateStepping
	stateHalted
	stateClosed
)

// Frame describes one completed step.
type Frame struct {
	Index uint64
	// Elapsed is the host time accounted to the frame after clamping.
	Elapsed time.Duration
	// DT is the simulated time advanced, always Params.DT.
	DT float32
}

// Simulation owns the field store and advances it one fixed step at a time.
// Step, Reset and Density must be called from one goroutine; a reentrant
// Step is rejected rather than run concurrently.
type Simulation struct {
	params   Params
	store    *field.Store
	disp     *kernel.Dispatcher
	uniforms kernel.Uniforms
	probe    *Probe

	state   atomic.Int32
	haltErr error
	frames  uint64
	simTime float64
}

// New allocates every field on backend, compiles the built-in kernels and
// clears the fields to cold, still and clear. The initial clears are queued
// without waiting for completion; later dispatches are ordered after them.
func New(ctx context.Context, backend kernel.Backend, p Params) (*Simulation, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: no compute backend", ErrInitialization)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitialization, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	store, err := field.Allocate(GridWidth, GridHeight, backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	disp, err := kernel.NewDispatcher(backend, kernel.Builtin(), kernel.Domain{Width: GridWidth, Height: GridHeight})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	s := &Simulation{
		params: p,
		store:  store,
		disp:   disp,
		uniforms: kernel.Uniforms{
			DT:           p.DT,
			Lift:         p.Lift,
			Weight:       p.Weight,
			Ambient:      p.Ambient,
			SourceX:      p.SourceX,
			SourceY:      p.SourceY,
			SourceRadius: p.SourceRadius,
			HeatRate:     p.HeatRate,
			SootRate:     p.SootRate,
		},
	}
	if err := s.clearAll(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	buffers, values := 0, 0
	store.Each(func(b *field.Buffer) {
		buffers++
		values += b.Cells() * b.Components
	})
	Logger().Info("simulation initialized",
		"backend", backend.Name(),
		"grid", fmt.Sprintf("%dx%d", GridWidth, GridHeight),
		"buffers", buffers,
		"values", values,
		"dt", p.DT,
		"pressure_iterations", p.PressureIterations,
		"double_density_advection", p.DoubleDensityAdvection)
	return s, nil
}

func (s *Simulation) clearAll() error {
	for _, id := range field.IDs {
		if err := s.store.Clear(id, 0, s.disp); err != nil {
			return err
		}
	}
	return s.disp.Submit()
}

// Step advances the simulation by Params.DT. elapsed is the host time since
// the previous frame; it is clamped and reported but never changes the
// simulated step. A failed step halts the simulation.
func (s *Simulation) Step(elapsed time.Duration) (Frame, error) {
	if !s.state.CompareAndSwap(stateIdle, stateStepping) {
		return Frame{}, s.unavailable()
	}
	frame := Frame{
		Index:   s.frames,
		Elapsed: s.params.ClampElapsed(elapsed),
		DT:      s.params.DT,
	}
	start := time.Now()
	for _, st := range pipeline {
		if err := st.run(s); err != nil {
			return frame, s.halt(&StepError{Frame: frame.Index, Stage: st.name, Err: err})
		}
	}
	if err := s.disp.Submit(); err != nil {
		return frame, s.halt(&StepError{Frame: frame.Index, Stage: "submit", Err: err})
	}
	s.frames++
	s.simTime += float64(s.params.DT)
	s.state.Store(stateIdle)
	Logger().Debug("step",
		"frame", frame.Index,
		"elapsed", frame.Elapsed,
		"took", time.Since(start))
	return frame, nil
}

func (s *Simulation) halt(err *StepError) error {
	s.haltErr = err
	s.state.Store(stateHalted)
	Logger().Error("step failed; simulation halted", "frame", err.Frame, "stage", err.Stage, "err", err.Err)
	return err
}

func (s *Simulation) unavailable() error {
	switch s.state.Load() {
	case stateHalted:
		return fmt.Errorf("%w: %w", ErrHalted, s.haltErr)
	case stateClosed:
		return ErrClosed
	}
	return ErrStepInProgress
}

// Reset clears every field back to its initial state, relighting the flame.
func (s *Simulation) Reset() error {
	if !s.state.CompareAndSwap(stateIdle, stateStepping) {
		return s.unavailable()
	}
	defer s.state.Store(stateIdle)
	if err := s.clearAll(); err != nil {
		return fmt.Errorf("resetting fields: %w", err)
	}
	s.frames = 0
	s.simTime = 0
	Logger().Info("simulation reset")
	return nil
}

// Density returns the authoritative density buffer with its host copy
// brought up to date. The buffer must be treated as read-only.
func (s *Simulation) Density() (*field.Buffer, error) {
	return s.current(field.Density)
}

// Temperature returns the authoritative temperature buffer, read-only.
func (s *Simulation) Temperature() (*field.Buffer, error) {
	return s.current(field.Temperature)
}

func (s *Simulation) current(id field.ID) (*field.Buffer, error) {
	if st := s.state.Load(); st == stateClosed || st == stateStepping {
		return nil, s.unavailable()
	}
	b := s.store.Current(id)
	if err := s.disp.Sync(b); err != nil {
		return nil, fmt.Errorf("reading back %s: %w", id, err)
	}
	return b, nil
}

// Frames returns the number of completed steps.
func (s *Simulation) Frames() uint64 { return s.frames }

// SimTime returns the simulated seconds advanced so far.
func (s *Simulation) SimTime() float64 { return s.simTime }

// Params returns the parameters the simulation was created with.
func (s *Simulation) Params() Params { return s.params }

// Store exposes the field store for inspection.
func (s *Simulation) Store() *field.Store { return s.store }

// Stats returns dispatcher counters.
func (s *Simulation) Stats() kernel.Stats { return s.disp.Stats() }

// Backend returns the compute provider name.
func (s *Simulation) Backend() string { return s.disp.Backend().Name() }

// Halted reports the error that halted the simulation, if any.
func (s *Simulation) Halted() error {
	if s.state.Load() != stateHalted {
		return nil
	}
	return s.haltErr
}

// Close releases backend resources. Further calls are no-ops.
func (s *Simulation) Close() error {
	for {
		st := s.state.Load()
		switch st {
		case stateClosed:
			return nil
		case stateStepping:
			return ErrStepInProgress
		}
		if s.state.CompareAndSwap(st, stateClosed) {
			break
		}
	}
	s.disp.Backend().Close()
	Logger().Info("simulation closed", "frames", s.frames)
	return nil
}

// IsHalted reports whether err came from a halted or failed simulation.
func IsHalted(err error) bool {
	var se *StepError
	return errors.Is(err, ErrHalted) || errors.As(err, &se)
}
