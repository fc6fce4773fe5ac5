// Package driver runs a flame simulation once per display frame and keeps
// the image of the last good frame.
package driver

import (
	"errors"
	"time"

	"candleflame/internal/flame"
	"candleflame/internal/view"
)

// Loop steps a simulation and renders its density into a pixel buffer. It
// is not safe for concurrent use; the host calls it from its frame callback.
type Loop struct {
	sim     *flame.Simulation
	sampler *view.Sampler
	pixels  []byte

	running   bool
	lastFrame time.Time
	frame     flame.Frame
	stepTime  time.Duration
	failed    error

	// Totals enables summing soot and heat on every render.
	Totals bool
	soot   float64
	heat   float64

	// OnFrame runs after each successful step and render.
	OnFrame func(flame.Frame)
}

// New returns a stopped loop that already shows the cleared fields.
func New(sim *flame.Simulation, sampler *view.Sampler) (*Loop, error) {
	if sim == nil || sampler == nil {
		return nil, errors.New("driver: simulation and sampler are required")
	}
	l := &Loop{
		sim:     sim,
		sampler: sampler,
		pixels:  make([]byte, sampler.Width*sampler.Height*4),
	}
	if err := l.render(); err != nil {
		return nil, err
	}
	return l, nil
}

// Start resumes stepping from the next Advance. It returns false when the
// simulation has halted; starting a running loop changes nothing.
func (l *Loop) Start() bool {
	if l.running {
		return true
	}
	if err := l.sim.Halted(); err != nil {
		flame.Logger().Warn("cannot start a halted simulation", "err", err)
		return false
	}
	l.running = true
	l.lastFrame = time.Time{}
	return true
}

// Stop pauses stepping. The current image stays available.
func (l *Loop) Stop() { l.running = false }

// Running reports whether Advance steps the simulation.
func (l *Loop) Running() bool { return l.running }

// Advance runs one frame at host time now. The first frame after Start
// accounts no elapsed time. A step that halts the simulation stops the
// loop and leaves the previous image in place.
func (l *Loop) Advance(now time.Time) error {
	if !l.running {
		return nil
	}
	var elapsed time.Duration
	if !l.lastFrame.IsZero() {
		elapsed = now.Sub(l.lastFrame)
	}
	l.lastFrame = now

	start := time.Now()
	frame, err := l.sim.Step(elapsed)
	l.stepTime = time.Since(start)
	if err != nil {
		if flame.IsHalted(err) {
			l.failed = err
			l.Stop()
			flame.Logger().Error("frame loop stopped", "err", err)
		}
		return err
	}
	l.frame = frame
	if err := l.render(); err != nil {
		return err
	}
	if l.OnFrame != nil {
		l.OnFrame(frame)
	}
	return nil
}

// Reset relights the flame from cleared fields.
func (l *Loop) Reset() error {
	if err := l.sim.Reset(); err != nil {
		return err
	}
	l.lastFrame = time.Time{}
	l.frame = flame.Frame{}
	return l.render()
}

// render writes density into the pixels. On error the pixels are untouched.
func (l *Loop) render() error {
	d, err := l.sim.Density()
	if err != nil {
		return err
	}
	if err := l.sampler.Render(l.pixels, d); err != nil {
		return err
	}
	if l.Totals {
		l.soot = d.Sum(0)
		if t, err := l.sim.Temperature(); err == nil {
			l.heat = t.Sum(0)
		}
	}
	return nil
}

// Pixels returns the RGBA image of the last good frame. It is overwritten
// by the next successful Advance.
func (l *Loop) Pixels() []byte { return l.pixels }

// Frame returns the last completed frame.
func (l *Loop) Frame() flame.Frame { return l.frame }

// StepTime returns the host time the last step took.
func (l *Loop) StepTime() time.Duration { return l.stepTime }

// Failed returns the error that stopped the loop, if any.
func (l *Loop) Failed() error { return l.failed }

// Sums returns the soot and heat totals of the last render with Totals set.
func (l *Loop) Sums() (soot, heat float64) { return l.soot, l.heat }

// Simulation returns the driven simulation.
func (l *Loop) Simulation() *flame.Simulation { return l.sim }
