// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// selectDevice returns the GPU device at the zero-based index of p.
func selectDevice(p Platform, index int) (Device, error) {
	devices, err := p.GPUDevices()
	if err != nil {
		str := fmt.Sprintf("could not get GPU devices for platform %s: %v",
			p.Name(), err)
		return nil, searchError(ErrInvalidDevice, str)
	}
	if index < 0 || index >= len(devices) {
		str := fmt.Sprintf("invalid device ID %d (%d GPU devices on "+
			"platform %s)", index, len(devices), p.Name())
		return nil, searchError(ErrInvalidDevice, str)
	}
	return devices[index], nil
}

// reportDevice writes the capabilities of d to w.
func reportDevice(d Device, w io.Writer) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	log.Tracef("Device info: %v", spew.Sdump(info))

	fmt.Fprintf(w, "Device: %s\n", info.Name)
	fmt.Fprintf(w, "Version: %s\n", info.Version)
	fmt.Fprintf(w, "Compute units: %d\n", info.ComputeUnits)
	fmt.Fprintf(w, "Max work group size: %d\n", info.MaxWorkGroupSize)
	fmt.Fprintf(w, "Max work item sizes: [%d, %d, %d]\n",
		info.MaxWorkItemSizes[0], info.MaxWorkItemSizes[1],
		info.MaxWorkItemSizes[2])
	fmt.Fprintf(w, "Global memory size: %d MB\n",
		info.GlobalMemSize/(1024*1024))
	return nil
}
