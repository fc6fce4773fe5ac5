package kernel

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candleflame/internal/field"
)

func newBuiltin(t *testing.T, w, h int) (*field.Store, *Dispatcher) {
	t.Helper()
	s := newStore(t, w, h)
	d, err := NewDispatcher(NewCPU(0), Builtin(), Domain{Width: w, Height: h})
	require.NoError(t, err)
	return s, d
}

func TestClearFillsEveryComponent(t *testing.T) {
	s, d := newBuiltin(t, 10, 6)
	v := s.Current(field.Velocity)
	require.NoError(t, s.Clear(field.Velocity, 0.25, d))
	for _, x := range v.Data {
		require.Equal(t, float32(0.25), x)
	}
}

func TestAdvectWithZeroVelocityIsIdentity(t *testing.T) {
	s, d := newBuiltin(t, 12, 9)
	src := s.Current(field.Density)
	for i := range src.Data {
		src.Data[i] = float32((i*37)%11) * 0.1
	}
	dst := s.WriteTarget(field.Density)

	require.NoError(t, d.Dispatch(Advect, Bindings{
		RoleVelocityIn: s.Current(field.Velocity),
		RoleSourceIn:   src,
		RoleTargetOut:  dst,
	}, Uniforms{DT: 0.015, Dissipation: 1}))
	assert.Equal(t, src.Data, dst.Data)
}

func TestAdvectMovesAlongVelocity(t *testing.T) {
	s, d := newBuiltin(t, 16, 16)
	vel := s.Current(field.Velocity)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			vel.Set(x, y, 1, 100) // one cell upward per 0.01s
		}
	}
	src := s.Current(field.Density)
	src.Set(5, 5, 0, 1)
	dst := s.WriteTarget(field.Density)

	require.NoError(t, d.Dispatch(Advect, Bindings{
		RoleVelocityIn: vel,
		RoleSourceIn:   src,
		RoleTargetOut:  dst,
	}, Uniforms{DT: 0.01, Dissipation: 1}))
	assert.InDelta(t, 1, dst.At(5, 6, 0), 1e-5)
	assert.InDelta(t, 0, dst.At(5, 5, 0), 1e-5)
}

func TestBuoyancyLiftsHotCells(t *testing.T) {
	s, d := newBuiltin(t, 8, 8)
	s.Current(field.Temperature).Set(3, 3, 0, 2)
	s.Current(field.Density).Set(4, 4, 0, 1)
	out := s.WriteTarget(field.Velocity)

	require.NoError(t, d.Dispatch(Buoyancy, Bindings{
		RoleVelocityIn:    s.Current(field.Velocity),
		RoleTemperatureIn: s.Current(field.Temperature),
		RoleDensityIn:     s.Current(field.Density),
		RoleVelocityOut:   out,
	}, Uniforms{DT: 0.5, Lift: 3, Weight: 1}))

	assert.InDelta(t, 3, out.At(3, 3, 1), 1e-6)
	assert.InDelta(t, -0.5, out.At(4, 4, 1), 1e-6)
	assert.Zero(t, out.At(3, 3, 0))
	assert.Zero(t, out.At(0, 0, 1))
}

func TestImpulseOnlyTouchesSourceDisc(t *testing.T) {
	s, d := newBuiltin(t, 32, 32)
	temp := s.Current(field.Temperature)
	dens := s.Current(field.Density)

	require.NoError(t, d.Dispatch(Impulse, Bindings{
		RoleTemperature: temp,
		RoleDensity:     dens,
	}, Uniforms{DT: 0.1, SourceX: 16, SourceY: 4, SourceRadius: 3, HeatRate: 10, SootRate: 5}))

	assert.InDelta(t, 1.0, temp.At(16, 4, 0), 1e-6)
	assert.InDelta(t, 0.5, dens.At(16, 4, 0), 1e-6)
	assert.Greater(t, temp.At(17, 4, 0), float32(0))
	assert.Zero(t, temp.At(16, 8, 0))
	assert.Zero(t, dens.At(0, 0, 0))
	assert.Greater(t, temp.Sum(0), 0.0)
}

func TestDivergenceOfLinearField(t *testing.T) {
	s, d := newBuiltin(t, 8, 8)
	vel := s.Current(field.Velocity)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			vel.Set(x, y, 0, float32(x))
			vel.Set(x, y, 1, float32(2*y))
		}
	}
	div := s.Current(field.Divergence)
	require.NoError(t, d.Dispatch(Divergence, Bindings{
		RoleVelocityIn:    vel,
		RoleDivergenceOut: div,
	}, Uniforms{}))
	// interior: du/dx + dv/dy = 1 + 2
	assert.InDelta(t, 3, div.At(4, 4, 0), 1e-6)
	// clamped edge halves the stencil
	assert.InDelta(t, 0.5+2, div.At(0, 4, 0), 1e-6)
}

func TestGradientSubtractsPressureSlope(t *testing.T) {
	s, d := newBuiltin(t, 8, 8)
	p := s.Current(field.Pressure)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p.Set(x, y, 0, float32(3*x))
		}
	}
	out := s.WriteTarget(field.Velocity)
	require.NoError(t, d.Dispatch(Gradient, Bindings{
		RoleVelocityIn:  s.Current(field.Velocity),
		RolePressureIn:  p,
		RoleVelocityOut: out,
	}, Uniforms{}))
	assert.InDelta(t, -3, out.At(4, 4, 0), 1e-6)
	assert.InDelta(t, 0, out.At(4, 4, 1), 1e-6)
}

func TestJacobiWithZeroDivergenceKeepsUniformPressure(t *testing.T) {
	s, d := newBuiltin(t, 8, 8)
	s.Current(field.Pressure).Fill(2)
	out := s.WriteTarget(field.Pressure)
	require.NoError(t, d.Dispatch(Jacobi, Bindings{
		RoleDivergenceIn: s.Current(field.Divergence),
		RolePressureIn:   s.Current(field.Pressure),
		RolePressureOut:  out,
	}, Uniforms{}))
	for _, v := range out.Data {
		require.InDelta(t, 2, v, 1e-6)
	}
}

func TestProgramSourceDeclaresEveryEntryPoint(t *testing.T) {
	lib := Builtin()
	src := ProgramSource(lib.Kernels())
	assert.True(t, strings.HasPrefix(src, "#ifdef USE_HALF"))
	for _, k := range lib.Kernels() {
		assert.Contains(t, src, fmt.Sprintf("__kernel void %s(", k.Name))
		for _, u := range k.Uniforms {
			assert.Containsf(t, k.Source, "const float "+u, "%s uniform %s", k.Name, u)
			_, ok := (&Uniforms{}).Value(u)
			assert.Truef(t, ok, "uniform %s has no value", u)
		}
	}
}
