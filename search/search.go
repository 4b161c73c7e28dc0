// Copyright (c) 2016-2023 The Decred developers.

// Package search drives one batch of a proof-of-work nonce search on a GPU.
//
// A call selects a platform and device, builds the search kernel from its
// two source texts, allocates the device buffers, launches the kernel over
// the batch, waits for it and reads back the solution when one was found.
// Every device object is created for the call and released before it
// returns, whichever step fails.  Nothing is retried and an in-flight kernel
// cannot be cancelled.
package search

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Searcher holds the settings shared by successive searches.  It holds no
// device state, so a Searcher may be reused for any number of calls, but
// calls must not run concurrently against the same device.
type Searcher struct {
	Backend Backend

	// Platform is the name of the preferred platform.  Empty selects the
	// first platform.
	Platform string

	// Device is the zero-based index of the GPU on the platform.
	Device int

	// ShowDeviceInfo requests a capability report of the selected device.
	ShowDeviceInfo bool

	// Sources holds the kernel source files.  Nil reads them relative to
	// the working directory.
	Sources     fs.FS
	UtilityFile string
	KernelFile  string

	// Report receives the platform listing, device report and
	// diagnostics.  Nil discards them.
	Report io.Writer
}

func (s *Searcher) report() io.Writer {
	if s.Report == nil {
		return io.Discard
	}
	return s.Report
}

func (s *Searcher) source() (string, error) {
	fsys := s.Sources
	if fsys == nil {
		fsys = os.DirFS(".")
	}
	utilityFile, kernelFile := s.UtilityFile, s.KernelFile
	if utilityFile == "" {
		utilityFile = DefaultUtilityFile
	}
	if kernelFile == "" {
		kernelFile = DefaultKernelFile
	}
	return loadSource(fsys, utilityFile, kernelFile)
}

// Search runs the batch described by job.  It returns StatusFound and fills
// sol when a work-item found a solution, StatusNotFound when the batch was
// exhausted, and StatusError with an Error otherwise.  sol is not modified
// unless StatusFound is returned.
func (s *Searcher) Search(job *Job, sol *Solution) (Status, error) {
	if err := job.validate(); err != nil {
		return StatusError, err
	}

	platform, err := selectPlatform(s.Backend, s.Platform, s.report())
	if err != nil {
		return StatusError, err
	}
	device, err := selectDevice(platform, s.Device)
	if err != nil {
		return StatusError, err
	}
	if s.ShowDeviceInfo {
		if err := reportDevice(device, s.report()); err != nil {
			log.Warnf("Could not query device info: %v", err)
		}
	}

	var g guard
	defer g.release()

	g.context, err = device.CreateContext()
	if err != nil {
		str := fmt.Sprintf("could not create context: %v", err)
		return StatusError, searchError(ErrContextCreation, str)
	}
	g.queue, err = g.context.CreateQueue()
	if err != nil {
		str := fmt.Sprintf("could not create command queue: %v", err)
		return StatusError, searchError(ErrQueueCreation, str)
	}

	source, err := s.source()
	if err != nil {
		return StatusError, err
	}
	if err := g.buildProgram(source); err != nil {
		return StatusError, err
	}

	g.buffers, err = allocateBuffers(g.context, job)
	if err != nil {
		return StatusError, err
	}
	if err := prepareKernel(g.queue, g.kernel, job, g.buffers); err != nil {
		return StatusError, err
	}

	if err := dispatch(device, g.queue, g.kernel, job); err != nil {
		return StatusError, err
	}

	return extractResult(g.queue, g.buffers, sol)
}

// Execute runs Search and reduces its outcome to the numeric call contract:
// 1 when a solution was found, 0 when the batch was exhausted and -1 on any
// error.  Error details, including the full compiler log of a failed build,
// are written to the report writer.  digest and nonce are written only when
// 1 is returned, and a nil output is skipped.
func (s *Searcher) Execute(job *Job, digest *[DigestSize]byte, nonce *uint64) int {
	var sol Solution
	status, err := s.Search(job, &sol)
	if err != nil {
		s.reportError(err)
		return int(StatusError)
	}
	if status == StatusFound {
		if digest != nil {
			*digest = sol.Digest
		}
		if nonce != nil {
			*nonce = sol.Nonce
		}
	}
	return int(status)
}

// reportError writes err, and the build log it carries if any, to the
// report writer.
func (s *Searcher) reportError(err error) {
	w := s.report()
	fmt.Fprintf(w, "Error: %v\n", err)
	var serr Error
	if errors.As(err, &serr) && serr.BuildLog != "" {
		fmt.Fprintf(w, "Kernel build log:\n%s\n", serr.BuildLog)
	}
}
