package kernel

import (
	"fmt"

	"candleflame/internal/field"
)

// TileSize is the edge length of the square tiles a dispatch is split into.
const TileSize = 8

// Domain is the grid extent a dispatch covers.
type Domain struct {
	Width, Height int
}

// Tiles returns the number of tiles along each axis, rounding up so partial
// edge tiles are included.
func (d Domain) Tiles() (nx, ny int) {
	return (d.Width + TileSize - 1) / TileSize, (d.Height + TileSize - 1) / TileSize
}

// Backend is a compute provider. Dispatches are executed in submission order
// and a dispatch never observes its own partial results.
type Backend interface {
	Name() string

	// Allocate attaches device storage to a freshly created buffer.
	Allocate(b *field.Buffer) error

	// Compile prepares every kernel of a library for dispatch in one pass.
	Compile(kernels []*Kernel) error

	// Dispatch runs t over every cell of d exactly once.
	Dispatch(t *Table, u *Uniforms, d Domain) error

	// Submit flushes the passes recorded since the last Submit.
	Submit() error

	// Sync makes the host Data of bufs reflect every submitted pass.
	Sync(bufs ...*field.Buffer) error

	Close()
}

// Stats counts dispatcher activity.
type Stats struct {
	Dispatches  int
	TablesBuilt int
	ByKernel    map[string]int
}

// Dispatcher validates bindings and issues kernels from a library on one
// backend over a fixed domain. It is bound to a single field store: tables
// are cached by buffer ID.
type Dispatcher struct {
	backend Backend
	lib     *Library
	domain  Domain
	tables  map[tableKey]*Table
	stats   Stats
}

// NewDispatcher compiles every kernel of lib on backend.
func NewDispatcher(backend Backend, lib *Library, domain Domain) (*Dispatcher, error) {
	if domain.Width <= 0 || domain.Height <= 0 {
		return nil, fmt.Errorf("kernel: invalid domain %dx%d", domain.Width, domain.Height)
	}
	if err := backend.Compile(lib.Kernels()); err != nil {
		return nil, fmt.Errorf("compiling kernels on %s: %w", backend.Name(), err)
	}
	return &Dispatcher{
		backend: backend,
		lib:     lib,
		domain:  domain,
		tables:  make(map[tableKey]*Table),
		stats:   Stats{ByKernel: make(map[string]int)},
	}, nil
}

// Domain returns the extent every dispatch covers.
func (d *Dispatcher) Domain() Domain { return d.domain }

// Backend returns the compute provider.
func (d *Dispatcher) Backend() Backend { return d.backend }

// Bind returns the cached table for name and b, validating and building it
// on first use of this buffer identity tuple.
func (d *Dispatcher) Bind(name string, b Bindings) (*Table, error) {
	k, ok := d.lib.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}
	key, err := keyFor(k, b)
	if err != nil {
		return nil, err
	}
	if t, ok := d.tables[key]; ok {
		return t, nil
	}
	t, err := newTable(k, b, key, d.domain)
	if err != nil {
		return nil, err
	}
	d.tables[key] = t
	d.stats.TablesBuilt++
	return t, nil
}

// Dispatch runs the kernel name over the whole domain with b bound.
func (d *Dispatcher) Dispatch(name string, b Bindings, u Uniforms) error {
	t, err := d.Bind(name, b)
	if err != nil {
		return err
	}
	return d.Run(t, u)
}

// Run dispatches an already bound table.
func (d *Dispatcher) Run(t *Table, u Uniforms) error {
	if err := d.backend.Dispatch(t, &u, d.domain); err != nil {
		return fmt.Errorf("dispatching %s: %w", t.Kernel.Name, err)
	}
	d.stats.Dispatches++
	d.stats.ByKernel[t.Kernel.Name]++
	return nil
}

// ClearBuffer sets every component of b to value with one clear dispatch.
func (d *Dispatcher) ClearBuffer(b *field.Buffer, value float32) error {
	return d.Dispatch(Clear, Bindings{RoleField: b}, Uniforms{ClearValue: value})
}

// Submit flushes recorded passes to the backend.
func (d *Dispatcher) Submit() error { return d.backend.Submit() }

// Sync brings host copies of bufs up to date.
func (d *Dispatcher) Sync(bufs ...*field.Buffer) error { return d.backend.Sync(bufs...) }

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() Stats {
	s := d.stats
	s.ByKernel = make(map[string]int, len(d.stats.ByKernel))
	for k, v := range d.stats.ByKernel {
		s.ByKernel[k] = v
	}
	return s
}
