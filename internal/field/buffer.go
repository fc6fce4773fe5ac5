package field

import "github.com/chewxy/math32"

// Buffer is one W×H block of float32 cells. Multi-component cells are
// interleaved, so component c of cell (x, y) lives at (y*Width+x)*Components+c.
type Buffer struct {
	ID         int
	Name       string
	Width      int
	Height     int
	Components int
	Data       []float32

	// Device holds backend-owned state attached by an Allocator.
	Device any
}

func newBuffer(id int, name string, width, height, components int) *Buffer {
	return &Buffer{
		ID:         id,
		Name:       name,
		Width:      width,
		Height:     height,
		Components: components,
		Data:       make([]float32, width*height*components),
	}
}

// Cells returns the number of grid cells in the buffer.
func (b *Buffer) Cells() int { return b.Width * b.Height }

// Index returns the offset of component 0 of cell (x, y).
func (b *Buffer) Index(x, y int) int { return (y*b.Width + x) * b.Components }

// At reads component c of cell (x, y). Coordinates must be in range.
func (b *Buffer) At(x, y, c int) float32 { return b.Data[b.Index(x, y)+c] }

// Set writes component c of cell (x, y). Coordinates must be in range.
func (b *Buffer) Set(x, y, c int, v float32) { b.Data[b.Index(x, y)+c] = v }

// Load reads component c of cell (x, y) with clamp-to-edge addressing.
func (b *Buffer) Load(x, y, c int) float32 {
	x = clampInt(x, 0, b.Width-1)
	y = clampInt(y, 0, b.Height-1)
	return b.Data[b.Index(x, y)+c]
}

// Sample returns component c bilinearly filtered at fractional grid
// coordinates. Cell centers sit on integer coordinates and addressing
// clamps to the edge, matching a linear texture sampler.
func (b *Buffer) Sample(x, y float32, c int) float32 {
	fx := math32.Floor(x)
	fy := math32.Floor(y)
	tx := x - fx
	ty := y - fy
	x0 := int(fx)
	y0 := int(fy)

	v00 := b.Load(x0, y0, c)
	v10 := b.Load(x0+1, y0, c)
	v01 := b.Load(x0, y0+1, c)
	v11 := b.Load(x0+1, y0+1, c)

	bottom := v00 + (v10-v00)*tx
	top := v01 + (v11-v01)*tx
	return bottom + (top-bottom)*ty
}

// Fill sets every component of every cell to v.
func (b *Buffer) Fill(v float32) {
	for i := range b.Data {
		b.Data[i] = v
	}
}

// Sum adds component c over the whole grid.
func (b *Buffer) Sum(c int) float64 {
	var total float64
	for i := c; i < len(b.Data); i += b.Components {
		total += float64(b.Data[i])
	}
	return total
}

// SameShape reports whether o has identical dimensions and component count.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && b.Components == o.Components
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
