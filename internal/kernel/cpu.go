package kernel

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"candleflame/internal/field"
)

// CPU runs kernels on the host. Tiles of one dispatch are pulled from a
// shared counter by a fixed set of worker goroutines; Dispatch returns only
// after every tile finished, which is the barrier between passes.
type CPU struct {
	workers int
}

// NewCPU returns a host backend using workers goroutines per dispatch, or
// GOMAXPROCS when workers < 1.
func NewCPU(workers int) *CPU {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPU{workers: workers}
}

func (c *CPU) Name() string { return "cpu" }

// Allocate is a no-op: host Data is the storage.
func (c *CPU) Allocate(*field.Buffer) error { return nil }

func (c *CPU) Compile(kernels []*Kernel) error {
	for _, k := range kernels {
		if k.Cell == nil {
			return fmt.Errorf("%s has no host implementation", k.Name)
		}
	}
	return nil
}

func (c *CPU) Dispatch(t *Table, u *Uniforms, d Domain) error {
	nx, ny := d.Tiles()
	total := int64(nx * ny)
	workers := c.workers
	if int64(workers) > total {
		workers = int(total)
	}
	cell := t.Kernel.Cell
	in, out := t.In, t.Out

	var next atomic.Int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("kernel %s panicked: %v", t.Kernel.Name, r)
				}
			}()
			for {
				tile := next.Add(1) - 1
				if tile >= total {
					return nil
				}
				x0 := int(tile%int64(nx)) * TileSize
				y0 := int(tile/int64(nx)) * TileSize
				x1 := min(x0+TileSize, d.Width)
				y1 := min(y0+TileSize, d.Height)
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						cell(x, y, in, out, u)
					}
				}
			}
		})
	}
	return g.Wait()
}

// Submit is a no-op: passes complete inside Dispatch.
func (c *CPU) Submit() error { return nil }

// Sync is a no-op: host Data is always current.
func (c *CPU) Sync(...*field.Buffer) error { return nil }

func (c *CPU) Close() {}
