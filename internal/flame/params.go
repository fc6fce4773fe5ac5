package flame

import (
	"fmt"
	"time"
)

// Grid size of the simulation lattice. Every field shares it.
const (
	GridWidth  = 128
	GridHeight = 256
)

// Params are the simulation constants, fixed when the simulation is
// created. Force and injection coefficients are handed to the kernels as
// uniforms; the orchestrator itself only uses DT, MaxFrameTime and
// PressureIterations.
type Params struct {
	// DT is the fixed simulated time advanced by every step, in seconds.
	DT float32 `toml:"dt"`
	// MaxFrameTime caps the host time accounted to one frame, in seconds.
	MaxFrameTime float32 `toml:"max_frame_time"`
	// PressureIterations is the number of Jacobi sweeps per step.
	PressureIterations int `toml:"pressure_iterations"`

	Lift    float32 `toml:"lift"`
	Weight  float32 `toml:"weight"`
	Ambient float32 `toml:"ambient"`

	// Wick position and radius in cells. Row 0 is the bottom of the grid.
	SourceX      float32 `toml:"source_x"`
	SourceY      float32 `toml:"source_y"`
	SourceRadius float32 `toml:"source_radius"`
	HeatRate     float32 `toml:"heat_rate"`
	SootRate     float32 `toml:"soot_rate"`

	// Multipliers applied by each advection; 1 conserves the field.
	VelocityDissipation    float32 `toml:"velocity_dissipation"`
	TemperatureDissipation float32 `toml:"temperature_dissipation"`
	DensityDissipation     float32 `toml:"density_dissipation"`

	// DoubleDensityAdvection advects density a second time at the end of
	// each step, so soot moves twice as far as heat.
	DoubleDensityAdvection bool `toml:"double_density_advection"`
}

// DefaultParams returns the reference configuration: 15 ms steps, 16 ms
// frame clamp, 20 pressure sweeps and a conservative transport.
func DefaultParams() Params {
	return Params{
		DT:                     0.015,
		MaxFrameTime:           0.016,
		PressureIterations:     20,
		Lift:                   120,
		Weight:                 8,
		Ambient:                0,
		SourceX:                GridWidth / 2,
		SourceY:                12,
		SourceRadius:           8,
		HeatRate:               60,
		SootRate:               30,
		VelocityDissipation:    1,
		TemperatureDissipation: 1,
		DensityDissipation:     1,
	}
}

// Validate reports the first parameter that would make stepping unsafe.
func (p Params) Validate() error {
	switch {
	case p.DT <= 0:
		return fmt.Errorf("dt must be positive, got %g", p.DT)
	case p.MaxFrameTime <= 0:
		return fmt.Errorf("max_frame_time must be positive, got %g", p.MaxFrameTime)
	case p.PressureIterations < 1:
		return fmt.Errorf("pressure_iterations must be at least 1, got %d", p.PressureIterations)
	case p.SourceRadius < 0:
		return fmt.Errorf("source_radius must not be negative, got %g", p.SourceRadius)
	}
	for _, d := range []struct {
		name string
		v    float32
	}{
		{"velocity_dissipation", p.VelocityDissipation},
		{"temperature_dissipation", p.TemperatureDissipation},
		{"density_dissipation", p.DensityDissipation},
	} {
		if d.v <= 0 || d.v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %g", d.name, d.v)
		}
	}
	return nil
}

// ClampElapsed limits host time between frames to MaxFrameTime so a long
// pause (a hidden window, a debugger stop) is accounted as one short frame.
func (p Params) ClampElapsed(elapsed time.Duration) time.Duration {
	limit := time.Duration(float64(p.MaxFrameTime) * float64(time.Second))
	if elapsed < 0 {
		return 0
	}
	return min(elapsed, limit)
}
