//go:build !opencl

package kernel

import (
	"errors"

	"candleflame/internal/field"
)

// ErrOpenCLUnavailable is returned when the binary was built without the
// opencl tag.
var ErrOpenCLUnavailable = errors.New("OpenCL support is not enabled; rebuild with -tags opencl")

// OpenCL is unavailable in this build.
type OpenCL struct{}

func NewOpenCL(bool) (*OpenCL, error) { return nil, ErrOpenCLUnavailable }

func (o *OpenCL) Name() string { return "opencl (unavailable)" }
func (o *OpenCL) Allocate(*field.Buffer) error { return ErrOpenCLUnavailable }
func (o *OpenCL) Compile([]*Kernel) error { return ErrOpenCLUnavailable }
func (o *OpenCL) Dispatch(*Table, *Uniforms, Domain) error { return ErrOpenCLUnavailable }
func (o *OpenCL) Submit() error { return ErrOpenCLUnavailable }
func (o *OpenCL) Sync(...*field.Buffer) error { return ErrOpenCLUnavailable }
func (o *OpenCL) Close() {}
