// Copyright (c) 2016-2023 The Decred developers.

//go:build opencl
// +build opencl

package main

import (
	"github.com/decred/clsearch/cl"
	"github.com/decred/clsearch/search"
)

// Return the GPU library in use.
func gpuLib() string {
	return "OpenCL"
}

// newBackend returns the OpenCL backend.
func newBackend() (search.Backend, error) {
	return cl.New(), nil
}
