// Package field owns the simulation grids and the read/write role of each
// double-buffered field.
package field

import (
	"errors"
	"fmt"
)

// ID names one simulation field.
type ID int

const (
	Velocity ID = iota
	Density
	Temperature
	Pressure
	Divergence

	numFields
)

var layouts = [numFields]struct {
	name       string
	components int
	double     bool
}{
	Velocity:    {"velocity", 2, true},
	Density:     {"density", 1, true},
	Temperature: {"temperature", 1, true},
	Pressure:    {"pressure", 1, true},
	Divergence:  {"divergence", 1, false},
}

// IDs lists every field in allocation order.
var IDs = []ID{Velocity, Density, Temperature, Pressure, Divergence}

func (id ID) String() string {
	if id < 0 || id >= numFields {
		return fmt.Sprintf("field(%d)", int(id))
	}
	return layouts[id].name
}

// ErrInvalidSize is returned by Allocate for non-positive grid dimensions.
var ErrInvalidSize = errors.New("field: grid dimensions must be positive")

// Allocator attaches backend storage to freshly created buffers.
type Allocator interface {
	Allocate(b *Buffer) error
}

// Clearer resets a buffer to a uniform value with a single dispatch.
type Clearer interface {
	ClearBuffer(b *Buffer, value float32) error
}

type slot struct {
	bufs   [2]*Buffer
	cur    int
	double bool
}

// Store holds every grid of the simulation. Swaps exchange buffer identity
// only; no cell data is copied.
type Store struct {
	width, height int
	slots         [numFields]slot
	buffers       []*Buffer
}

// Allocate creates all fields zeroed at width×height and hands each buffer
// to alloc, which may be nil for host-only storage.
func Allocate(width, height int, alloc Allocator) (*Store, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	s := &Store{width: width, height: height}
	nextID := 0
	for _, id := range IDs {
		layout := layouts[id]
		n := 1
		if layout.double {
			n = 2
		}
		sl := &s.slots[id]
		sl.double = layout.double
		for i := 0; i < n; i++ {
			name := layout.name
			if layout.double {
				name = fmt.Sprintf("%s%d", layout.name, i)
			}
			b := newBuffer(nextID, name, width, height, layout.components)
			nextID++
			if alloc != nil {
				if err := alloc.Allocate(b); err != nil {
					return nil, fmt.Errorf("allocating %s: %w", name, err)
				}
			}
			sl.bufs[i] = b
			s.buffers = append(s.buffers, b)
		}
		if !layout.double {
			sl.bufs[1] = sl.bufs[0]
		}
	}
	return s, nil
}

// Width returns the grid width in cells.
func (s *Store) Width() int { return s.width }

// Height returns the grid height in cells.
func (s *Store) Height() int { return s.height }

func (s *Store) slot(id ID) *slot {
	if id < 0 || id >= numFields {
		panic(fmt.Sprintf("field: unknown field %d", int(id)))
	}
	return &s.slots[id]
}

// Current returns the authoritative buffer of id.
func (s *Store) Current(id ID) *Buffer {
	sl := s.slot(id)
	return sl.bufs[sl.cur]
}

// WriteTarget returns the free buffer the next advance of id writes to.
// Single-buffered fields have no write target.
func (s *Store) WriteTarget(id ID) *Buffer {
	sl := s.slot(id)
	if !sl.double {
		panic(fmt.Sprintf("field: %s is single-buffered", id))
	}
	return sl.bufs[1-sl.cur]
}

// Swap makes the write target of id current and vice versa.
func (s *Store) Swap(id ID) {
	sl := s.slot(id)
	if !sl.double {
		panic(fmt.Sprintf("field: %s is single-buffered", id))
	}
	sl.cur = 1 - sl.cur
}

// Clear resets the current buffer of id to value through one dispatch.
func (s *Store) Clear(id ID, value float32, c Clearer) error {
	b := s.Current(id)
	if err := c.ClearBuffer(b, value); err != nil {
		return fmt.Errorf("clearing %s: %w", id, err)
	}
	return nil
}

// Each calls fn for every allocated buffer in ID order, both roles of each
// field included.
func (s *Store) Each(fn func(*Buffer)) {
	for _, b := range s.buffers {
		fn(b)
	}
}
