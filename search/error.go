// Copyright (c) 2016-2023 The Decred developers.

package search

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrInvalidJob indicates the search job is malformed and no device
	// resource was acquired for it.
	ErrInvalidJob = ErrorKind("ErrInvalidJob")

	// ErrPlatformEnumeration indicates no compute platform could be
	// enumerated.
	ErrPlatformEnumeration = ErrorKind("ErrPlatformEnumeration")

	// ErrInvalidDevice indicates the requested device index does not name
	// an enumerated GPU device.
	ErrInvalidDevice = ErrorKind("ErrInvalidDevice")

	// ErrContextCreation indicates the device context could not be created.
	ErrContextCreation = ErrorKind("ErrContextCreation")

	// ErrQueueCreation indicates the command queue could not be created.
	ErrQueueCreation = ErrorKind("ErrQueueCreation")

	// ErrSourceUnavailable indicates one of the kernel source texts could
	// not be read.
	ErrSourceUnavailable = ErrorKind("ErrSourceUnavailable")

	// ErrBuildFailure indicates the kernel program failed to compile.  The
	// associated Error carries the complete compiler log.
	ErrBuildFailure = ErrorKind("ErrBuildFailure")

	// ErrKernelResolution indicates the compiled program does not export
	// the search entry point.
	ErrKernelResolution = ErrorKind("ErrKernelResolution")

	// ErrBufferAllocation indicates one of the device buffers could not be
	// allocated.
	ErrBufferAllocation = ErrorKind("ErrBufferAllocation")

	// ErrArgumentBind indicates the found flag could not be seeded or one
	// or more kernel arguments could not be bound.
	ErrArgumentBind = ErrorKind("ErrArgumentBind")

	// ErrDispatch indicates the kernel could not be enqueued or did not
	// complete.
	ErrDispatch = ErrorKind("ErrDispatch")

	// ErrReadback indicates the results could not be read back from the
	// device after the kernel completed.
	ErrReadback = ErrorKind("ErrReadback")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a search harness error.  It has full support for errors.Is
// and errors.As, so the caller can ascertain the specific reason for the
// error by checking the underlying error.
type Error struct {
	Err         error
	Description string

	// BuildLog is the complete compiler output when Err is ErrBuildFailure.
	BuildLog string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// searchError creates an Error given a set of arguments.
func searchError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
