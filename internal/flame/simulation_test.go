package flame

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candleflame/internal/field"
	"candleflame/internal/kernel"
)

type failingBackend struct {
	kernel.Backend
	kernel   string
	allocErr error
	err      error
}

func (f *failingBackend) Allocate(b *field.Buffer) error {
	if f.allocErr != nil {
		return f.allocErr
	}
	return f.Backend.Allocate(b)
}

func (f *failingBackend) Dispatch(t *kernel.Table, u *kernel.Uniforms, d kernel.Domain) error {
	if t.Kernel.Name == f.kernel {
		return f.err
	}
	return f.Backend.Dispatch(t, u, d)
}

func newRecorded(t *testing.T, p Params) (*Simulation, *kernel.Recorder) {
	t.Helper()
	rec := kernel.NewRecorder(kernel.NewCPU(0))
	s, err := New(context.Background(), rec, p)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	rec.Reset()
	return s, rec
}

func kernelNames(calls []kernel.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Kernel
	}
	return out
}

func TestNewClearsEveryField(t *testing.T) {
	rec := kernel.NewRecorder(kernel.NewCPU(0))
	s, err := New(context.Background(), rec, DefaultParams())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, len(field.IDs), rec.Count(kernel.Clear))
	d, err := s.Density()
	require.NoError(t, err)
	assert.Equal(t, GridWidth, d.Width)
	assert.Equal(t, GridHeight, d.Height)
	for _, v := range d.Data {
		require.Zero(t, v)
	}
	assert.Equal(t, "cpu", s.Backend())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(context.Background(), nil, DefaultParams())
	assert.ErrorIs(t, err, ErrInitialization)

	p := DefaultParams()
	p.PressureIterations = 0
	_, err = New(context.Background(), kernel.NewCPU(1), p)
	assert.ErrorIs(t, err, ErrInitialization)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(ctx, kernel.NewCPU(1), DefaultParams())
	assert.ErrorIs(t, err, ErrInitialization)
	assert.ErrorIs(t, err, context.Canceled)

	boom := errors.New("out of device memory")
	_, err = New(context.Background(), &failingBackend{Backend: kernel.NewCPU(1), allocErr: boom}, DefaultParams())
	assert.ErrorIs(t, err, ErrAllocation)
	assert.ErrorIs(t, err, boom)

	_, err = New(context.Background(), &failingBackend{Backend: kernel.NewCPU(1), kernel: kernel.Clear, err: boom}, DefaultParams())
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestStepRunsStagesInOrder(t *testing.T) {
	s, rec := newRecorded(t, DefaultParams())
	_, err := s.Step(10 * time.Millisecond)
	require.NoError(t, err)

	want := []string{kernel.Buoyancy, kernel.Impulse, kernel.Advect, kernel.Divergence}
	for i := 0; i < 20; i++ {
		want = append(want, kernel.Jacobi)
	}
	want = append(want, kernel.Gradient, kernel.Advect, kernel.Advect)
	assert.Equal(t, want, kernelNames(rec.Calls()))
}

func TestStepPressureIterations(t *testing.T) {
	s, rec := newRecorded(t, DefaultParams())
	for i := 0; i < 3; i++ {
		_, err := s.Step(0)
		require.NoError(t, err)
	}
	assert.Equal(t, 60, rec.Count(kernel.Jacobi))

	p := DefaultParams()
	p.PressureIterations = 7
	s, rec = newRecorded(t, p)
	_, err := s.Step(0)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Count(kernel.Jacobi))
}

func TestDoubleDensityAdvection(t *testing.T) {
	s, rec := newRecorded(t, DefaultParams())
	_, err := s.Step(0)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Count(kernel.Advect))

	p := DefaultParams()
	p.DoubleDensityAdvection = true
	s, rec = newRecorded(t, p)
	_, err = s.Step(0)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Count(kernel.Advect))
}

func TestOnDispatchSeesEveryStepDispatch(t *testing.T) {
	s, rec := newRecorded(t, DefaultParams())
	var traced []string
	rec.OnDispatch = func(c kernel.Call) { traced = append(traced, c.Kernel) }

	var recorded []string
	for i := 0; i < 3; i++ {
		_, err := s.Step(0)
		require.NoError(t, err)
		recorded = append(recorded, kernelNames(rec.Calls())...)
		rec.Reset()
	}
	assert.Len(t, traced, 3*27)
	assert.Equal(t, recorded, traced)
}

func TestStepNeverReadsWhatItWrites(t *testing.T) {
	s, rec := newRecorded(t, DefaultParams())
	for i := 0; i < 4; i++ {
		_, err := s.Step(0)
		require.NoError(t, err)
	}
	calls := rec.Calls()
	require.NotEmpty(t, calls)
	for i, c := range calls {
		in := map[int]bool{}
		for _, id := range c.In {
			in[id] = true
		}
		for _, id := range c.Out {
			require.Falsef(t, in[id], "call %d (%s) reads and writes buffer %d", i, c.Kernel, id)
		}
	}
}

func TestStepSwapsOnlyTargets(t *testing.T) {
	s, _ := newRecorded(t, DefaultParams())
	div := s.Store().Current(field.Divergence)
	_, err := s.Step(0)
	require.NoError(t, err)
	assert.Same(t, div, s.Store().Current(field.Divergence))
	// velocity swaps three times per step, so its roles end up exchanged
	v := s.Store().Current(field.Velocity)
	_, err = s.Step(0)
	require.NoError(t, err)
	assert.NotSame(t, v, s.Store().Current(field.Velocity))
}

func TestUniformFieldsAreConserved(t *testing.T) {
	p := DefaultParams()
	p.Lift = 0
	p.Weight = 0
	p.SourceRadius = 0
	s, _ := newRecorded(t, p)
	s.Store().Current(field.Temperature).Fill(0.75)
	s.Store().Current(field.Density).Fill(0.5)

	for i := 0; i < 3; i++ {
		_, err := s.Step(0)
		require.NoError(t, err)
	}
	temp, err := s.Temperature()
	require.NoError(t, err)
	dens, err := s.Density()
	require.NoError(t, err)
	for i := range dens.Data {
		require.InDelta(t, 0.75, temp.Data[i], 1e-5)
		require.InDelta(t, 0.5, dens.Data[i], 1e-5)
	}
}

func TestImpulseAddsHeatAndSoot(t *testing.T) {
	s, _ := newRecorded(t, DefaultParams())
	_, err := s.Step(0)
	require.NoError(t, err)
	temp, err := s.Temperature()
	require.NoError(t, err)
	dens, err := s.Density()
	require.NoError(t, err)
	assert.Greater(t, temp.Sum(0), 0.0)
	assert.Greater(t, dens.Sum(0), 0.0)
	for _, v := range dens.Data {
		require.GreaterOrEqual(t, v, float32(0))
	}
}

func divergenceL2(t *testing.T, s *Simulation) float64 {
	t.Helper()
	require.NoError(t, s.computeDivergence())
	var sum float64
	for _, v := range s.Store().Current(field.Divergence).Data {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestProjectionReducesDivergence(t *testing.T) {
	s, _ := newRecorded(t, DefaultParams())
	vel := s.Store().Current(field.Velocity)
	cx, cy := float64(GridWidth/2), float64(GridHeight/2)
	for y := 0; y < GridHeight; y++ {
		for x := 0; x < GridWidth; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			g := math.Exp(-(dx*dx + dy*dy) / 9)
			vel.Set(x, y, 0, float32(dx*g))
			vel.Set(x, y, 1, float32(dy*g))
		}
	}

	before := divergenceL2(t, s)
	require.Greater(t, before, 0.0)
	require.NoError(t, s.solvePressure())
	require.NoError(t, s.subtractGradient())
	after := divergenceL2(t, s)
	assert.Less(t, after, before)
}

func TestStepClampsElapsed(t *testing.T) {
	s, _ := newRecorded(t, DefaultParams())
	f, err := s.Step(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 16*time.Millisecond, f.Elapsed)
	assert.Equal(t, float32(0.015), f.DT)
	assert.Equal(t, uint64(0), f.Index)

	f, err = s.Step(-time.Second)
	require.NoError(t, err)
	assert.Zero(t, f.Elapsed)
	assert.Equal(t, uint64(1), f.Index)
	assert.Equal(t, uint64(2), s.Frames())
	assert.InDelta(t, 0.03, s.SimTime(), 1e-6)
}

func TestFailedStepHalts(t *testing.T) {
	boom := errors.New("device lost")
	s, err := New(context.Background(), &failingBackend{Backend: kernel.NewCPU(0), kernel: kernel.Jacobi, err: boom}, DefaultParams())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Step(0)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "pressure", se.Stage)
	assert.Equal(t, uint64(0), se.Frame)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsHalted(err))
	assert.Equal(t, err, s.Halted())

	_, err = s.Step(0)
	assert.ErrorIs(t, err, ErrHalted)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Reset(), ErrHalted)
	assert.Zero(t, s.Frames())
}

func TestReentrantStepIsRejected(t *testing.T) {
	s, rec := newRecorded(t, DefaultParams())
	var inner []error
	rec.OnDispatch = func(kernel.Call) {
		if len(inner) == 0 {
			_, err := s.Step(0)
			inner = append(inner, err)
			inner = append(inner, s.Reset())
		}
	}
	_, err := s.Step(0)
	require.NoError(t, err)
	require.Len(t, inner, 2)
	assert.ErrorIs(t, inner[0], ErrStepInProgress)
	assert.ErrorIs(t, inner[1], ErrStepInProgress)
	assert.Equal(t, uint64(1), s.Frames())
}

func TestResetRelightsFromCleared(t *testing.T) {
	s, _ := newRecorded(t, DefaultParams())
	for i := 0; i < 5; i++ {
		_, err := s.Step(0)
		require.NoError(t, err)
	}
	require.NoError(t, s.Reset())
	assert.Zero(t, s.Frames())
	for _, id := range field.IDs {
		for _, v := range s.Store().Current(id).Data {
			require.Zerof(t, v, "%s not cleared", id)
		}
	}
}

func TestClose(t *testing.T) {
	s, err := New(context.Background(), kernel.NewCPU(1), DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Step(0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Density()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	for name, mutate := range map[string]func(*Params){
		"dt":          func(p *Params) { p.DT = 0 },
		"frame time":  func(p *Params) { p.MaxFrameTime = -1 },
		"radius":      func(p *Params) { p.SourceRadius = -2 },
		"dissipation": func(p *Params) { p.DensityDissipation = 1.5 },
	} {
		p := DefaultParams()
		mutate(&p)
		assert.Errorf(t, p.Validate(), name)
	}
}
