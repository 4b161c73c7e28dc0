// Copyright (c) 2016-2023 The Decred developers.

//go:build opencl
// +build opencl

package cl

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"github.com/decred/clsearch/search"
)

// clError wraps an error returned by the OpenCL runtime with the name of the
// failing call.
func clError(err error, f string) error {
	return fmt.Errorf("%s returned error: %w", f, err)
}

// Backend is the OpenCL compute runtime.
type Backend struct{}

// New returns the OpenCL backend.
func New() *Backend {
	return &Backend{}
}

// Platforms returns the OpenCL platforms installed on the system.
func (b *Backend) Platforms() ([]search.Platform, error) {
	clPlatforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, clError(err, "clGetPlatformIDs")
	}
	platforms := make([]search.Platform, 0, len(clPlatforms))
	for _, p := range clPlatforms {
		platforms = append(platforms, &platform{p})
	}
	return platforms, nil
}

type platform struct {
	p *cl.Platform
}

func (p *platform) Name() string {
	return p.p.Name()
}

// GPUDevices returns the GPU devices of the platform.  A platform without a
// GPU yields no devices rather than an error.
func (p *platform) GPUDevices() ([]search.Device, error) {
	clDevices, err := p.p.GetDevices(cl.DeviceTypeGPU)
	if errors.Is(err, cl.ErrDeviceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, clError(err, "clGetDeviceIDs")
	}
	devices := make([]search.Device, 0, len(clDevices))
	for _, d := range clDevices {
		devices = append(devices, &device{d})
	}
	return devices, nil
}

type device struct {
	d *cl.Device
}

func (d *device) Name() string {
	return d.d.Name()
}

func (d *device) Info() (*search.DeviceInfo, error) {
	info := &search.DeviceInfo{
		Name:             d.d.Name(),
		Version:          d.d.Version(),
		ComputeUnits:     d.d.MaxComputeUnits(),
		MaxWorkGroupSize: d.d.MaxWorkGroupSize(),
		GlobalMemSize:    uint64(d.d.GlobalMemSize()),
	}
	copy(info.MaxWorkItemSizes[:], d.d.MaxWorkItemSizes())
	return info, nil
}

func (d *device) MaxWorkGroupSize() (int, error) {
	size := d.d.MaxWorkGroupSize()
	if size <= 0 {
		return 0, fmt.Errorf("clGetDeviceInfo returned work group size %d",
			size)
	}
	return size, nil
}

func (d *device) CreateContext() (search.Context, error) {
	ctx, err := cl.CreateContext([]*cl.Device{d.d})
	if err != nil {
		return nil, clError(err, "clCreateContext")
	}
	log.Tracef("Created context on %s", d.d.Name())
	return &context{ctx: ctx, device: d.d}, nil
}

type context struct {
	ctx    *cl.Context
	device *cl.Device
}

func (c *context) Release() {
	c.ctx.Release()
}

func (c *context) CreateQueue() (search.Queue, error) {
	q, err := c.ctx.CreateCommandQueue(c.device, 0)
	if err != nil {
		return nil, clError(err, "clCreateCommandQueue")
	}
	return &queue{q}, nil
}

func (c *context) CreateProgram(source string) (search.Program, error) {
	p, err := c.ctx.CreateProgramWithSource([]string{source})
	if err != nil {
		return nil, clError(err, "clCreateProgramWithSource")
	}
	return &program{p: p, device: c.device}, nil
}

var memFlags = map[search.AccessMode]cl.MemFlag{
	search.ReadOnly:  cl.MemReadOnly,
	search.ReadWrite: cl.MemReadWrite,
	search.WriteOnly: cl.MemWriteOnly,
}

// bufferFlags returns the allocation flags of a buffer with the given access
// mode.  Buffers created from host data copy it at creation.
func bufferFlags(mode search.AccessMode, hostData bool) (cl.MemFlag, error) {
	flags, ok := memFlags[mode]
	if !ok {
		return 0, fmt.Errorf("unsupported access mode %v", mode)
	}
	if hostData {
		flags |= cl.MemCopyHostPtr
	}
	return flags, nil
}

func (c *context) CreateBuffer(mode search.AccessMode, size int, init []byte) (search.Buffer, error) {
	flags, err := bufferFlags(mode, init != nil)
	if err != nil {
		return nil, err
	}
	var mem *cl.MemObject
	if init != nil {
		if len(init) != size {
			return nil, fmt.Errorf("initial data is %d bytes, buffer "+
				"is %d", len(init), size)
		}
		mem, err = c.ctx.CreateBuffer(flags, init)
	} else {
		mem, err = c.ctx.CreateEmptyBuffer(flags, size)
	}
	if err != nil {
		return nil, clError(err, "clCreateBuffer")
	}
	if mem == nil {
		return nil, errors.New("clCreateBuffer returned a null buffer")
	}
	return &buffer{mem: mem, size: size}, nil
}

type buffer struct {
	mem  *cl.MemObject
	size int
}

func (b *buffer) Release() {
	b.mem.Release()
}

func (b *buffer) Size() int {
	return b.size
}

type program struct {
	p        *cl.Program
	device   *cl.Device
	buildLog string
}

func (p *program) Release() {
	p.p.Release()
}

// Build compiles the program for its device.  The compiler log of a failed
// build is kept for BuildLog.
func (p *program) Build(options string) error {
	return p.captureBuild(p.p.BuildProgram([]*cl.Device{p.device}, options))
}

// captureBuild keeps the compiler log carried by a failed build.  A failed
// build whose log could not be read is reported as the error of the log
// query.
func (p *program) captureBuild(err error) error {
	if err == nil {
		return nil
	}
	var buildErr cl.BuildError
	if errors.As(err, &buildErr) {
		p.buildLog = string(buildErr)
		return errors.New("clBuildProgram failed")
	}
	return clError(err, "clBuildProgram")
}

func (p *program) BuildLog() (string, error) {
	if p.buildLog == "" {
		return "", errors.New("no build log available")
	}
	return p.buildLog, nil
}

func (p *program) Kernel(name string) (search.Kernel, error) {
	k, err := p.p.CreateKernel(name)
	if err != nil {
		return nil, clError(err, "clCreateKernel")
	}
	return &kernel{k}, nil
}

type kernel struct {
	k *cl.Kernel
}

func (k *kernel) Release() {
	k.k.Release()
}

// SetArg binds a scalar or buffer argument.  Buffers must have been created
// by this backend.
func (k *kernel) SetArg(index int, value interface{}) error {
	var err error
	switch v := value.(type) {
	case int32:
		err = k.k.SetArgInt32(index, v)
	case uint64:
		err = k.k.SetArgUnsafe(index, int(unsafe.Sizeof(v)),
			unsafe.Pointer(&v))
	case *buffer:
		err = k.k.SetArgBuffer(index, v.mem)
	default:
		return fmt.Errorf("unsupported kernel argument type %T", value)
	}
	if err != nil {
		return clError(err, "clSetKernelArg")
	}
	return nil
}

type queue struct {
	q *cl.CommandQueue
}

func (q *queue) Release() {
	q.q.Release()
}

func (q *queue) WriteBuffer(b search.Buffer, src []byte) error {
	buf, ok := b.(*buffer)
	if !ok {
		return fmt.Errorf("foreign buffer type %T", b)
	}
	if len(src) == 0 {
		return nil
	}
	ev, err := q.q.EnqueueWriteBuffer(buf.mem, true, 0, len(src),
		unsafe.Pointer(&src[0]), nil)
	if err != nil {
		return clError(err, "clEnqueueWriteBuffer")
	}
	ev.Release()
	return nil
}

func (q *queue) ReadBuffer(b search.Buffer, dst []byte) error {
	buf, ok := b.(*buffer)
	if !ok {
		return fmt.Errorf("foreign buffer type %T", b)
	}
	if len(dst) == 0 {
		return nil
	}
	ev, err := q.q.EnqueueReadBuffer(buf.mem, true, 0, len(dst),
		unsafe.Pointer(&dst[0]), nil)
	if err != nil {
		return clError(err, "clEnqueueReadBuffer")
	}
	ev.Release()
	return nil
}

func (q *queue) EnqueueKernel(k search.Kernel, global, local int) error {
	kern, ok := k.(*kernel)
	if !ok {
		return fmt.Errorf("foreign kernel type %T", k)
	}
	ev, err := q.q.EnqueueNDRangeKernel(kern.k, nil, []int{global},
		[]int{local}, nil)
	if err != nil {
		return clError(err, "clEnqueueNDRangeKernel")
	}
	ev.Release()
	return nil
}

func (q *queue) Finish() error {
	if err := q.q.Finish(); err != nil {
		return clError(err, "clFinish")
	}
	return nil
}
