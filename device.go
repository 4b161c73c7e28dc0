// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"fmt"
	"io"

	"github.com/decred/clsearch/search"
)

// listDevices writes the GPUs of every platform of b to w.
func listDevices(b search.Backend, w io.Writer) error {
	platforms, err := b.Platforms()
	if err != nil {
		return fmt.Errorf("could not get platforms: %w", err)
	}

	for i, p := range platforms {
		fmt.Fprintf(w, "Platform #%d: %s\n", i, p.Name())
		devices, err := p.GPUDevices()
		if err != nil {
			return fmt.Errorf("could not get devices for platform %q: %w",
				p.Name(), err)
		}
		if len(devices) == 0 {
			fmt.Fprintln(w, "  no GPU devices")
			continue
		}
		for j, d := range devices {
			fmt.Fprintf(w, "  DEV #%d: %s\n", j, d.Name())
		}
	}
	return nil
}
