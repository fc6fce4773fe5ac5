package kernel

import (
	"errors"
	"fmt"

	"candleflame/internal/field"
)

const maxRoles = 6

var (
	// ErrUnknownKernel is returned when dispatching a name the library lacks.
	ErrUnknownKernel = errors.New("kernel: unknown kernel")
	// ErrMissingRole is returned when a declared role has no buffer.
	ErrMissingRole = errors.New("kernel: role not bound")
	// ErrUnknownRole is returned when a binding names a role the kernel does not declare.
	ErrUnknownRole = errors.New("kernel: undeclared role")
	// ErrAliasedBinding is returned when an output buffer is also bound as an input.
	ErrAliasedBinding = errors.New("kernel: output buffer aliases an input")
	// ErrShape is returned when a bound buffer does not cover the domain or
	// has the wrong component count for its role.
	ErrShape = errors.New("kernel: buffer does not match domain")
)

// Bindings maps role names to buffers for one dispatch.
type Bindings map[string]*field.Buffer

type tableKey struct {
	kernel string
	ids    [maxRoles]int
}

// Table is a validated role binding for one kernel, resolved into argument
// order. Tables are cached per buffer identity tuple, so a ping-pong loop
// touches at most two tables per kernel.
type Table struct {
	Kernel *Kernel
	In     []*field.Buffer
	Out    []*field.Buffer

	// Device holds backend state prepared for this table, such as bound
	// kernel arguments.
	Device any

	key tableKey
}

// Buffers returns In followed by Out.
func (t *Table) Buffers() []*field.Buffer {
	bufs := make([]*field.Buffer, 0, len(t.In)+len(t.Out))
	bufs = append(bufs, t.In...)
	return append(bufs, t.Out...)
}

func keyFor(k *Kernel, b Bindings) (tableKey, error) {
	key := tableKey{kernel: k.Name}
	i := 0
	for _, roles := range [2][]string{k.Inputs, k.Outputs} {
		for _, role := range roles {
			buf, ok := b[role]
			if !ok || buf == nil {
				return key, fmt.Errorf("%w: %s.%s", ErrMissingRole, k.Name, role)
			}
			key.ids[i] = buf.ID
			i++
		}
	}
	if len(b) != len(k.Inputs)+len(k.Outputs) {
		for role := range b {
			if !declares(k, role) {
				return key, fmt.Errorf("%w: %s.%s", ErrUnknownRole, k.Name, role)
			}
		}
	}
	return key, nil
}

func declares(k *Kernel, role string) bool {
	for _, r := range k.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

func newTable(k *Kernel, b Bindings, key tableKey, d Domain) (*Table, error) {
	t := &Table{Kernel: k, key: key}
	for _, role := range k.Inputs {
		t.In = append(t.In, b[role])
	}
	for _, role := range k.Outputs {
		t.Out = append(t.Out, b[role])
	}
	for i, out := range t.Out {
		for j, in := range t.In {
			if out == in || out.ID == in.ID {
				return nil, fmt.Errorf("%w: %s.%s and %s.%s are both %s",
					ErrAliasedBinding, k.Name, k.Outputs[i], k.Name, k.Inputs[j], out.Name)
			}
		}
		for j := i + 1; j < len(t.Out); j++ {
			if out.ID == t.Out[j].ID {
				return nil, fmt.Errorf("%w: %s binds %s to two outputs", ErrAliasedBinding, k.Name, out.Name)
			}
		}
	}
	for _, buf := range t.Buffers() {
		if buf.Width != d.Width || buf.Height != d.Height {
			return nil, fmt.Errorf("%w: %s is %dx%d, domain %dx%d",
				ErrShape, buf.Name, buf.Width, buf.Height, d.Width, d.Height)
		}
	}
	for _, role := range k.Roles() {
		want, ok := k.Components[role]
		if !ok {
			continue
		}
		if buf := b[role]; buf.Components != want {
			return nil, fmt.Errorf("%w: %s.%s wants %d components, %s has %d",
				ErrShape, k.Name, role, want, buf.Name, buf.Components)
		}
	}
	for _, pair := range k.Matched {
		x, y := b[pair[0]], b[pair[1]]
		if !x.SameShape(y) {
			return nil, fmt.Errorf("%w: %s.%s (%s, %d components) and %s.%s (%s, %d components) differ",
				ErrShape, k.Name, pair[0], x.Name, x.Components, k.Name, pair[1], y.Name, y.Components)
		}
	}
	return t, nil
}
