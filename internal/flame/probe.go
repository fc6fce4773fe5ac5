package flame

import (
	"github.com/chewxy/math32"

	"candleflame/internal/field"
)

type cellOffset struct {
	dx, dy int
}

// footprint returns the cell offsets inside a disc of radius cells.
func footprint(radius int) []cellOffset {
	cells := make([]cellOffset, 0, (2*radius+1)*(2*radius+1))
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= r2 {
				cells = append(cells, cellOffset{dx: x, dy: y})
			}
		}
	}
	return cells
}

// Probe averages a scalar field over a fixed disc of cells.
type Probe struct {
	cx, cy int
	cells  []cellOffset
}

// NewProbe centers a probe of the given radius on (x, y).
func NewProbe(x, y float32, radius float32) *Probe {
	return &Probe{
		cx:    int(math32.Floor(x + 0.5)),
		cy:    int(math32.Floor(y + 0.5)),
		cells: footprint(max(0, int(math32.Ceil(radius)))),
	}
}

// WickProbe covers the injection disc of p.
func WickProbe(p Params) *Probe {
	return NewProbe(p.SourceX, p.SourceY, p.SourceRadius)
}

// Mean returns the average of component 0 over the probe cells that fall
// inside b. It returns 0 when none do.
func (pr *Probe) Mean(b *field.Buffer) float32 {
	var sum float32
	n := 0
	for _, o := range pr.cells {
		x, y := pr.cx+o.dx, pr.cy+o.dy
		if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
			continue
		}
		sum += b.At(x, y, 0)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float32(n)
}

// WickHeat returns the mean temperature over the injection disc.
func (s *Simulation) WickHeat() (float32, error) {
	if s.probe == nil {
		s.probe = WickProbe(s.params)
	}
	t, err := s.Temperature()
	if err != nil {
		return 0, err
	}
	return s.probe.Mean(t), nil
}
