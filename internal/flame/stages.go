package flame

import (
	"fmt"

	"candleflame/internal/field"
	"candleflame/internal/kernel"
)

type stage struct {
	name string
	run  func(*Simulation) error
}

// pipeline is the fixed order of one step. Every stage reads the current
// buffers and writes either a write target (then swaps) or, for impulse, the
// current buffers in place.
var pipeline = []stage{
	{"buoyancy", (*Simulation).applyBuoyancy},
	{"impulse", (*Simulation).applyImpulse},
	{"advect-velocity", (*Simulation).advectVelocity},
	{"divergence", (*Simulation).computeDivergence},
	{"pressure", (*Simulation).solvePressure},
	{"gradient", (*Simulation).subtractGradient},
	{"advect-temperature", func(s *Simulation) error { return s.advectScalar(field.Temperature, s.params.TemperatureDissipation) }},
	{"advect-density", func(s *Simulation) error { return s.advectScalar(field.Density, s.params.DensityDissipation) }},
	{"advect-density-again", func(s *Simulation) error {
		if !s.params.DoubleDensityAdvection {
			return nil
		}
		return s.advectScalar(field.Density, s.params.DensityDissipation)
	}},
}

func (s *Simulation) applyBuoyancy() error {
	err := s.disp.Dispatch(kernel.Buoyancy, kernel.Bindings{
		kernel.RoleVelocityIn:    s.store.Current(field.Velocity),
		kernel.RoleTemperatureIn: s.store.Current(field.Temperature),
		kernel.RoleDensityIn:     s.store.Current(field.Density),
		kernel.RoleVelocityOut:   s.store.WriteTarget(field.Velocity),
	}, s.uniforms)
	if err != nil {
		return err
	}
	s.store.Swap(field.Velocity)
	return nil
}

func (s *Simulation) applyImpulse() error {
	return s.disp.Dispatch(kernel.Impulse, kernel.Bindings{
		kernel.RoleTemperature: s.store.Current(field.Temperature),
		kernel.RoleDensity:     s.store.Current(field.Density),
	}, s.uniforms)
}

func (s *Simulation) advectVelocity() error {
	u := s.uniforms
	u.Dissipation = s.params.VelocityDissipation
	v := s.store.Current(field.Velocity)
	err := s.disp.Dispatch(kernel.Advect, kernel.Bindings{
		kernel.RoleVelocityIn: v,
		kernel.RoleSourceIn:   v,
		kernel.RoleTargetOut:  s.store.WriteTarget(field.Velocity),
	}, u)
	if err != nil {
		return err
	}
	s.store.Swap(field.Velocity)
	return nil
}

func (s *Simulation) computeDivergence() error {
	return s.disp.Dispatch(kernel.Divergence, kernel.Bindings{
		kernel.RoleVelocityIn:    s.store.Current(field.Velocity),
		kernel.RoleDivergenceOut: s.store.Current(field.Divergence),
	}, s.uniforms)
}

// solvePressure runs the Jacobi sweeps. The previous frame's pressure is the
// initial guess.
func (s *Simulation) solvePressure() error {
	div := s.store.Current(field.Divergence)
	for i := 0; i < s.params.PressureIterations; i++ {
		err := s.disp.Dispatch(kernel.Jacobi, kernel.Bindings{
			kernel.RoleDivergenceIn: div,
			kernel.RolePressureIn:   s.store.Current(field.Pressure),
			kernel.RolePressureOut:  s.store.WriteTarget(field.Pressure),
		}, s.uniforms)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		s.store.Swap(field.Pressure)
	}
	return nil
}

func (s *Simulation) subtractGradient() error {
	err := s.disp.Dispatch(kernel.Gradient, kernel.Bindings{
		kernel.RoleVelocityIn:  s.store.Current(field.Velocity),
		kernel.RolePressureIn:  s.store.Current(field.Pressure),
		kernel.RoleVelocityOut: s.store.WriteTarget(field.Velocity),
	}, s.uniforms)
	if err != nil {
		return err
	}
	s.store.Swap(field.Velocity)
	return nil
}

func (s *Simulation) advectScalar(id field.ID, dissipation float32) error {
	u := s.uniforms
	u.Dissipation = dissipation
	err := s.disp.Dispatch(kernel.Advect, kernel.Bindings{
		kernel.RoleVelocityIn: s.store.Current(field.Velocity),
		kernel.RoleSourceIn:   s.store.Current(id),
		kernel.RoleTargetOut:  s.store.WriteTarget(id),
	}, u)
	if err != nil {
		return err
	}
	s.store.Swap(id)
	return nil
}
