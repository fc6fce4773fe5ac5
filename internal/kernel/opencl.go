//go:build opencl

package kernel

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"candleflame/internal/field"
)

type residency int

const (
	hostNewer residency = iota
	inSync
	deviceNewer
)

type clBuffer struct {
	mem   *cl.MemObject
	state residency
}

type clKernel struct {
	kernel *Kernel
	obj    *cl.Kernel
	bound  []*cl.MemObject
	domain Domain
	comps  int32
}

// OpenCL runs kernels on an OpenCL device through one in-order command
// queue. Device buffers are authoritative once written by a kernel; host
// copies are refreshed by Sync.
type OpenCL struct {
	context    *cl.Context
	queue      *cl.CommandQueue
	device     *cl.Device
	program    *cl.Program
	kernels    map[string]*clKernel
	buffers    []*field.Buffer
	half       bool
	deviceName string
	staging    halfStaging
}

// NewOpenCL opens the first GPU device, falling back to a CPU device.
// With preferHalf set, fields are stored as binary16 on the device.
func NewOpenCL(preferHalf bool) (*OpenCL, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	device := pickDevice(platforms, cl.DeviceTypeGPU)
	if device == nil {
		device = pickDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	return &OpenCL{
		context:    context,
		queue:      queue,
		device:     device,
		kernels:    make(map[string]*clKernel),
		half:       preferHalf,
		deviceName: device.Name(),
	}, nil
}

func pickDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

func (o *OpenCL) Name() string {
	precision := "fp32"
	if o.half {
		precision = "fp16"
	}
	return fmt.Sprintf("opencl (%s, %s)", o.deviceName, precision)
}

func (o *OpenCL) byteSize(b *field.Buffer) int {
	if o.half {
		return halfBytes(len(b.Data))
	}
	return len(b.Data) * int(unsafe.Sizeof(float32(0)))
}

func (o *OpenCL) Allocate(b *field.Buffer) error {
	mem, err := o.context.CreateEmptyBuffer(cl.MemReadWrite, o.byteSize(b))
	if err != nil {
		return fmt.Errorf("creating device buffer: %w", err)
	}
	b.Device = &clBuffer{mem: mem, state: hostNewer}
	o.buffers = append(o.buffers, b)
	return nil
}

// Compile builds all kernels as one program and creates an entry point for
// each of them.
func (o *OpenCL) Compile(kernels []*Kernel) error {
	for _, k := range kernels {
		if k.Source == "" {
			return fmt.Errorf("%s has no device source", k.Name)
		}
	}
	program, err := o.context.CreateProgramWithSource([]string{ProgramSource(kernels)})
	if err != nil {
		return fmt.Errorf("creating OpenCL program: %w", err)
	}
	options := ""
	if o.half {
		options = "-DUSE_HALF"
	}
	if err := program.BuildProgram([]*cl.Device{o.device}, options); err != nil {
		program.Release()
		if buildErr, ok := err.(cl.BuildError); ok {
			return fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return fmt.Errorf("building OpenCL program: %w", err)
	}
	created := make(map[string]*clKernel, len(kernels))
	for _, k := range kernels {
		obj, err := program.CreateKernel(k.Name)
		if err != nil {
			for _, ck := range created {
				ck.obj.Release()
			}
			program.Release()
			return fmt.Errorf("creating OpenCL kernel %s: %w", k.Name, err)
		}
		created[k.Name] = &clKernel{
			kernel: k,
			obj:    obj,
			bound:  make([]*cl.MemObject, len(k.Inputs)+len(k.Outputs)),
			comps:  -1,
		}
	}
	o.releaseKernels()
	o.program = program
	o.kernels = created
	return nil
}

func deviceBuffer(b *field.Buffer) (*clBuffer, error) {
	db, ok := b.Device.(*clBuffer)
	if !ok {
		return nil, fmt.Errorf("%s has no OpenCL storage", b.Name)
	}
	return db, nil
}

func (o *OpenCL) upload(b *field.Buffer, db *clBuffer) error {
	if db.state != hostNewer {
		return nil
	}
	if o.half {
		bits := o.staging.pack(b)
		// blocking: the staging slice is reused by the next transfer
		if _, err := o.queue.EnqueueWriteBuffer(db.mem, true, 0, halfBytes(len(bits)), unsafe.Pointer(&bits[0]), nil); err != nil {
			return fmt.Errorf("writing %s: %w", b.Name, err)
		}
	} else if _, err := o.queue.EnqueueWriteBufferFloat32(db.mem, false, 0, b.Data, nil); err != nil {
		return fmt.Errorf("writing %s: %w", b.Name, err)
	}
	db.state = inSync
	return nil
}

// bind sets kernel arguments that differ from what is already bound.
func (o *OpenCL) bind(ck *clKernel, t *Table, u *Uniforms, d Domain) error {
	if ck.domain != d {
		if err := ck.obj.SetArgInt32(0, int32(d.Width)); err != nil {
			return err
		}
		if err := ck.obj.SetArgInt32(1, int32(d.Height)); err != nil {
			return err
		}
		ck.domain = d
	}
	if comps := int32(t.Out[0].Components); comps != ck.comps {
		if err := ck.obj.SetArgInt32(2, comps); err != nil {
			return err
		}
		ck.comps = comps
	}
	for i, b := range t.Buffers() {
		db, err := deviceBuffer(b)
		if err != nil {
			return err
		}
		if err := o.upload(b, db); err != nil {
			return err
		}
		if ck.bound[i] != db.mem {
			if err := ck.obj.SetArgBuffer(3+i, db.mem); err != nil {
				return err
			}
			ck.bound[i] = db.mem
		}
	}
	base := 3 + len(ck.bound)
	for i, name := range ck.kernel.Uniforms {
		v, ok := u.Value(name)
		if !ok {
			return fmt.Errorf("unknown uniform %q", name)
		}
		if err := ck.obj.SetArgFloat32(base+i, v); err != nil {
			return err
		}
	}
	return nil
}

func (o *OpenCL) Dispatch(t *Table, u *Uniforms, d Domain) error {
	ck, ok := o.kernels[t.Kernel.Name]
	if !ok {
		return fmt.Errorf("%s was not compiled", t.Kernel.Name)
	}
	if err := o.bind(ck, t, u, d); err != nil {
		return fmt.Errorf("binding arguments: %w", err)
	}
	nx, ny := d.Tiles()
	global := []int{nx * TileSize, ny * TileSize}
	local := []int{TileSize, TileSize}
	if _, err := o.queue.EnqueueNDRangeKernel(ck.obj, nil, global, local, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	for _, b := range t.Out {
		b.Device.(*clBuffer).state = deviceNewer
	}
	return nil
}

func (o *OpenCL) Submit() error {
	return o.queue.Flush()
}

func (o *OpenCL) Sync(bufs ...*field.Buffer) error {
	for _, b := range bufs {
		db, err := deviceBuffer(b)
		if err != nil {
			return err
		}
		if db.state != deviceNewer {
			continue
		}
		if o.half {
			bits := o.staging.slot(b)
			if _, err := o.queue.EnqueueReadBuffer(db.mem, true, 0, halfBytes(len(bits)), unsafe.Pointer(&bits[0]), nil); err != nil {
				return fmt.Errorf("reading %s: %w", b.Name, err)
			}
			o.staging.unpack(b)
		} else if _, err := o.queue.EnqueueReadBufferFloat32(db.mem, true, 0, b.Data, nil); err != nil {
			return fmt.Errorf("reading %s: %w", b.Name, err)
		}
		db.state = inSync
	}
	return nil
}

func (o *OpenCL) Close() {
	if o.queue != nil {
		_ = o.queue.Finish()
	}
	for _, b := range o.buffers {
		if db, ok := b.Device.(*clBuffer); ok && db.mem != nil {
			db.mem.Release()
			db.mem = nil
		}
		b.Device = nil
	}
	o.buffers = nil
	o.releaseKernels()
	if o.queue != nil {
		o.queue.Release()
		o.queue = nil
	}
	if o.context != nil {
		o.context.Release()
		o.context = nil
	}
}

func (o *OpenCL) releaseKernels() {
	for name, ck := range o.kernels {
		ck.obj.Release()
		delete(o.kernels, name)
	}
	if o.program != nil {
		o.program.Release()
		o.program = nil
	}
}
