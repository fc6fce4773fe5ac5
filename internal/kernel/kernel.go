// Package kernel issues named grid-parallel operations over the simulation
// grid. A Kernel declares the buffers it reads and writes by role; the
// Dispatcher validates a role binding once, caches it, and hands it to a
// Backend that covers the domain in fixed-size tiles.
package kernel

import (
	"fmt"

	"candleflame/internal/field"
)

// CellFunc computes one output cell. in and out follow the order of the
// kernel's Inputs and Outputs. It must only write cell (x, y) of out and must
// not read out at any other cell.
type CellFunc func(x, y int, in, out []*field.Buffer, u *Uniforms)

// Kernel is a named grid-parallel operation.
type Kernel struct {
	Name string

	// Inputs and Outputs name the bound roles. An output role is never
	// bound to a buffer that is also bound to an input role.
	Inputs  []string
	Outputs []string

	// Components fixes the component count of the buffer bound to a role.
	// Roles not listed accept any count.
	Components map[string]int
	// Matched pairs roles whose buffers must share a shape, for kernels
	// that work on scalars and vectors alike.
	Matched [][2]string

	// Uniforms lists the scalar parameters the device entry point takes,
	// in argument order.
	Uniforms []string

	// Source is the OpenCL C text of the device entry point.
	Source string

	// Cell is the host implementation run by the CPU backend.
	Cell CellFunc
}

// Roles returns inputs followed by outputs, the device argument order.
func (k *Kernel) Roles() []string {
	roles := make([]string, 0, len(k.Inputs)+len(k.Outputs))
	roles = append(roles, k.Inputs...)
	return append(roles, k.Outputs...)
}

// Library is the set of kernels a Dispatcher can issue.
type Library struct {
	kernels map[string]*Kernel
	order   []string
}

// NewLibrary registers kernels in order.
func NewLibrary(kernels ...*Kernel) (*Library, error) {
	l := &Library{kernels: make(map[string]*Kernel, len(kernels))}
	for _, k := range kernels {
		if err := l.Register(k); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Register adds k. Names must be unique and roles fit in a binding table.
func (l *Library) Register(k *Kernel) error {
	if k.Name == "" {
		return fmt.Errorf("kernel: empty name")
	}
	if _, ok := l.kernels[k.Name]; ok {
		return fmt.Errorf("kernel: %q already registered", k.Name)
	}
	if n := len(k.Inputs) + len(k.Outputs); n == 0 || n > maxRoles {
		return fmt.Errorf("kernel: %q binds %d roles, want 1..%d", k.Name, n, maxRoles)
	}
	if len(k.Outputs) == 0 {
		return fmt.Errorf("kernel: %q has no output role", k.Name)
	}
	for role, n := range k.Components {
		if !declares(k, role) || n < 1 {
			return fmt.Errorf("kernel: %q constrains role %q to %d components", k.Name, role, n)
		}
	}
	for _, pair := range k.Matched {
		if !declares(k, pair[0]) || !declares(k, pair[1]) {
			return fmt.Errorf("kernel: %q matches undeclared roles %q and %q", k.Name, pair[0], pair[1])
		}
	}
	l.kernels[k.Name] = k
	l.order = append(l.order, k.Name)
	return nil
}

// Lookup returns the kernel registered under name.
func (l *Library) Lookup(name string) (*Kernel, bool) {
	k, ok := l.kernels[name]
	return k, ok
}

// Kernels returns the registered kernels in registration order.
func (l *Library) Kernels() []*Kernel {
	out := make([]*Kernel, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.kernels[name])
	}
	return out
}
