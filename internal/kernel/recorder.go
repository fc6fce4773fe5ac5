package kernel

import (
	"sync"

	"candleflame/internal/field"
)

// Call is one recorded dispatch.
type Call struct {
	Kernel string
	In     []int
	Out    []int
}

// Recorder wraps a Backend and remembers every dispatch it forwards.
// OnDispatch, if set, is called after each successful dispatch.
type Recorder struct {
	Backend

	OnDispatch func(Call)

	mu    sync.Mutex
	calls []Call
}

// NewRecorder wraps b.
func NewRecorder(b Backend) *Recorder {
	return &Recorder{Backend: b}
}

func (r *Recorder) Dispatch(t *Table, u *Uniforms, d Domain) error {
	if err := r.Backend.Dispatch(t, u, d); err != nil {
		return err
	}
	call := Call{Kernel: t.Kernel.Name, In: ids(t.In), Out: ids(t.Out)}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
	if r.OnDispatch != nil {
		r.OnDispatch(call)
	}
	return nil
}

// Calls returns the dispatches recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Reset forgets recorded dispatches.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = r.calls[:0]
	r.mu.Unlock()
}

// Count returns how many recorded dispatches ran kernel.
func (r *Recorder) Count(kernel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Kernel == kernel {
			n++
		}
	}
	return n
}

func ids(bufs []*field.Buffer) []int {
	out := make([]int, len(bufs))
	for i, b := range bufs {
		out[i] = b.ID
	}
	return out
}
