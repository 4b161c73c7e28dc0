// Copyright (c) 2016-2023 The Decred developers.

package search

// Releaser is implemented by every device handle.  Release frees the
// underlying native object and must only be called once per handle.
type Releaser interface {
	Release()
}

// Backend is a compute runtime exposing one or more platforms.  Native error
// codes never cross this interface; implementations return Go errors that
// describe the failing native call.
type Backend interface {
	Platforms() ([]Platform, error)
}

// Platform is a vendor runtime instance.
type Platform interface {
	Name() string

	// GPUDevices returns the GPU-class devices of the platform.  A
	// platform without GPUs returns an empty slice and no error.
	GPUDevices() ([]Device, error)
}

// DeviceInfo describes the capabilities of a device.
type DeviceInfo struct {
	Name             string
	Version          string
	ComputeUnits     int
	MaxWorkGroupSize int
	MaxWorkItemSizes [3]int
	GlobalMemSize    uint64
}

// Device is a compute device able to run compiled kernels.
type Device interface {
	Name() string
	Info() (*DeviceInfo, error)
	MaxWorkGroupSize() (int, error)
	CreateContext() (Context, error)
}

// AccessMode is the kernel-side access mode of a device buffer.
type AccessMode int

// Buffer access modes.
const (
	ReadOnly AccessMode = iota
	ReadWrite
	WriteOnly
)

var accessModeStrings = map[AccessMode]string{
	ReadOnly:  "read-only",
	ReadWrite: "read-write",
	WriteOnly: "write-only",
}

// String returns the AccessMode in human-readable form.
func (m AccessMode) String() string {
	if s, ok := accessModeStrings[m]; ok {
		return s
	}
	return "unknown"
}

// Context owns the device objects created for one search.
type Context interface {
	Releaser
	CreateQueue() (Queue, error)
	CreateProgram(source string) (Program, error)

	// CreateBuffer allocates size bytes on the device.  A non-nil init is
	// copied into the buffer at creation.
	CreateBuffer(mode AccessMode, size int, init []byte) (Buffer, error)
}

// Queue is an in-order command queue of a context.
type Queue interface {
	Releaser

	// WriteBuffer and ReadBuffer block until the transfer completes.
	WriteBuffer(b Buffer, src []byte) error
	ReadBuffer(b Buffer, dst []byte) error

	// EnqueueKernel enqueues a one-dimensional range of global work-items
	// grouped by local.
	EnqueueKernel(k Kernel, global, local int) error

	// Finish blocks until every enqueued command has completed.
	Finish() error
}

// Program is a kernel program created from source text.
type Program interface {
	Releaser
	Build(options string) error

	// BuildLog returns the complete compiler output of the last build.
	BuildLog() (string, error)

	Kernel(name string) (Kernel, error)
}

// Kernel is a resolved entry point of a built program.  SetArg accepts
// int32, uint64 and Buffer values.
type Kernel interface {
	Releaser
	SetArg(index int, value interface{}) error
}

// Buffer is a device-resident memory region.
type Buffer interface {
	Releaser
	Size() int
}
