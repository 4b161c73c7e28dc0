// Copyright (c) 2016-2023 The Decred developers.

//go:build !opencl
// +build !opencl

package main

import (
	"errors"

	"github.com/decred/clsearch/search"
)

var errNoGPU = errors.New("GPU support not available (built without the " +
	"opencl tag)")

// Return the GPU library in use.
func gpuLib() string {
	return "none"
}

func newBackend() (search.Backend, error) {
	return nil, errNoGPU
}
