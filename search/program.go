// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"fmt"
	"io/fs"
)

const (
	// DefaultUtilityFile and DefaultKernelFile are the relative locations
	// of the shared utility source and the search kernel source.
	DefaultUtilityFile = "utils/keccak.cl"
	DefaultKernelFile  = "kernel.cl"

	// EntryPoint is the kernel function the program must export.
	EntryPoint = "run"

	// TargetAPIVersion is the OpenCL version the kernel sources target,
	// in the CL_TARGET_OPENCL_VERSION encoding.
	TargetAPIVersion = 300
)

// buildOptions returns the compiler options for the search program.
func buildOptions() string {
	return fmt.Sprintf("-D CL_TARGET_OPENCL_VERSION=%d", TargetAPIVersion)
}

// loadSource reads the utility and kernel sources from fsys and returns them
// concatenated, utility first.
func loadSource(fsys fs.FS, utilityFile, kernelFile string) (string, error) {
	utility, err := fs.ReadFile(fsys, utilityFile)
	if err != nil {
		str := fmt.Sprintf("failed to load kernel source: %v", err)
		return "", searchError(ErrSourceUnavailable, str)
	}
	kernel, err := fs.ReadFile(fsys, kernelFile)
	if err != nil {
		str := fmt.Sprintf("failed to load kernel source: %v", err)
		return "", searchError(ErrSourceUnavailable, str)
	}
	return string(utility) + "\n" + string(kernel), nil
}

// buildProgram creates and compiles the search program in the guarded
// context and resolves its entry point.  The program and kernel are recorded
// in g as soon as they exist.
func (g *guard) buildProgram(source string) error {
	program, err := g.context.CreateProgram(source)
	if err != nil {
		str := fmt.Sprintf("could not create program: %v", err)
		return searchError(ErrBuildFailure, str)
	}
	g.program = program

	if err := program.Build(buildOptions()); err != nil {
		buildLog, logErr := program.BuildLog()
		if logErr != nil {
			log.Errorf("Could not obtain compilation error log: %v", logErr)
		}
		return Error{
			Err:         ErrBuildFailure,
			Description: fmt.Sprintf("kernel build error: %v", err),
			BuildLog:    buildLog,
		}
	}

	kernel, err := program.Kernel(EntryPoint)
	if err != nil {
		str := fmt.Sprintf("could not resolve kernel %q: %v", EntryPoint,
			err)
		return searchError(ErrKernelResolution, str)
	}
	g.kernel = kernel

	return nil
}
