package field

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAllocator struct {
	seen []string
	fail string
}

func (a *countingAllocator) Allocate(b *Buffer) error {
	if b.Name == a.fail {
		return errors.New("out of device memory")
	}
	a.seen = append(a.seen, b.Name)
	b.Device = len(a.seen)
	return nil
}

type fillClearer struct{ calls int }

func (c *fillClearer) ClearBuffer(b *Buffer, value float32) error {
	c.calls++
	b.Fill(value)
	return nil
}

func TestAllocateCreatesClearedFields(t *testing.T) {
	alloc := &countingAllocator{}
	s, err := Allocate(16, 32, alloc)
	require.NoError(t, err)

	assert.Equal(t, 16, s.Width())
	assert.Equal(t, 32, s.Height())
	// four double-buffered fields plus divergence
	assert.Len(t, alloc.seen, 9)

	ids := map[int]bool{}
	cells := 0
	s.Each(func(b *Buffer) {
		ids[b.ID] = true
		cells += b.Cells()
	})
	assert.Len(t, ids, 9)
	assert.Equal(t, 9*16*32, cells)

	for _, id := range IDs {
		b := s.Current(id)
		assert.Equal(t, 16*32*b.Components, len(b.Data), id.String())
		for _, v := range b.Data {
			require.Zero(t, v)
		}
	}
	assert.Equal(t, 2, s.Current(Velocity).Components)
	assert.Equal(t, 1, s.Current(Density).Components)
}

func TestAllocateRejectsBadSize(t *testing.T) {
	_, err := Allocate(0, 10, nil)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = Allocate(10, -1, nil)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestAllocatePropagatesAllocatorFailure(t *testing.T) {
	_, err := Allocate(4, 4, &countingAllocator{fail: "pressure1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pressure1")
}

func TestSwapExchangesIdentityOnly(t *testing.T) {
	s, err := Allocate(4, 4, nil)
	require.NoError(t, err)

	for _, id := range []ID{Velocity, Density, Temperature, Pressure} {
		cur := s.Current(id)
		next := s.WriteTarget(id)
		require.NotSame(t, cur, next)
		require.True(t, cur.SameShape(next))

		next.Data[0] = 7
		s.Swap(id)
		assert.Same(t, next, s.Current(id))
		assert.Same(t, cur, s.WriteTarget(id))
		assert.Equal(t, float32(7), s.Current(id).Data[0])

		s.Swap(id)
		assert.Same(t, cur, s.Current(id))
	}
}

func TestSingleBufferedDivergence(t *testing.T) {
	s, err := Allocate(4, 4, nil)
	require.NoError(t, err)

	assert.NotNil(t, s.Current(Divergence))
	assert.Panics(t, func() { s.WriteTarget(Divergence) })
	assert.Panics(t, func() { s.Swap(Divergence) })
}

func TestUnknownFieldPanics(t *testing.T) {
	s, err := Allocate(4, 4, nil)
	require.NoError(t, err)
	assert.Panics(t, func() { s.Current(ID(42)) })
	assert.Panics(t, func() { s.Swap(ID(-1)) })
	assert.Equal(t, "field(42)", ID(42).String())
}

func TestClearUsesOneDispatch(t *testing.T) {
	s, err := Allocate(4, 4, nil)
	require.NoError(t, err)
	c := &fillClearer{}

	require.NoError(t, s.Clear(Temperature, 0.5, c))
	assert.Equal(t, 1, c.calls)
	for _, v := range s.Current(Temperature).Data {
		assert.Equal(t, float32(0.5), v)
	}
	// the write target is left for the next advance to overwrite
	assert.Zero(t, s.WriteTarget(Temperature).Sum(0))
}
