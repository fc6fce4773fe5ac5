// Package view turns simulation fields into display pixels.
package view

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"candleflame/internal/field"
)

// ErrSurface reports a destination that does not match the sampler size.
var ErrSurface = errors.New("view: surface size mismatch")

// Sampler renders a scalar field onto a Width×Height RGBA8 surface. Grid row
// 0 lands on the bottom pixel row.
type Sampler struct {
	Width, Height int
	Ramp          Ramp
	// Workers bounds the rows rendered concurrently; 0 means GOMAXPROCS.
	Workers int
}

// NewSampler returns a flame-colored sampler for a surface of w×h pixels.
func NewSampler(w, h int) *Sampler {
	return &Sampler{Width: w, Height: h, Ramp: FlameRamp()}
}

// Render fills dst, which must hold Width*Height*4 bytes, from component 0
// of src. src is only read.
func (s *Sampler) Render(dst []byte, src *field.Buffer) error {
	if s.Width <= 0 || s.Height <= 0 || len(dst) != s.Width*s.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrSurface, len(dst), s.Width, s.Height)
	}
	if src == nil {
		return errors.New("view: no field to render")
	}
	sx := float32(src.Width) / float32(s.Width)
	sy := float32(src.Height) / float32(s.Height)

	workers := s.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for py := 0; py < s.Height; py++ {
		g.Go(func() error {
			gy := (float32(s.Height-1-py)+0.5)*sy - 0.5
			row := dst[py*s.Width*4 : (py+1)*s.Width*4]
			for px := 0; px < s.Width; px++ {
				gx := (float32(px)+0.5)*sx - 0.5
				c := s.Ramp.At(src.Sample(gx, gy, 0))
				o := px * 4
				row[o] = c.R
				row[o+1] = c.G
				row[o+2] = c.B
				row[o+3] = c.A
			}
			return nil
		})
	}
	return g.Wait()
}
