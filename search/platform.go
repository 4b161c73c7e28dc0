// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"fmt"
	"io"
)

// selectPlatform enumerates the platforms of b and picks the one whose name
// equals requested, or the first one when none matches.  It writes a listing
// to w with the entry matched by name marked.
func selectPlatform(b Backend, requested string, w io.Writer) (Platform, error) {
	platforms, err := b.Platforms()
	if err != nil {
		str := fmt.Sprintf("could not get platforms: %v", err)
		return nil, searchError(ErrPlatformEnumeration, str)
	}
	if len(platforms) == 0 {
		return nil, searchError(ErrPlatformEnumeration,
			"no compute platforms available")
	}

	selected := -1
	if requested != "" {
		for i, p := range platforms {
			if p.Name() == requested {
				selected = i
				break
			}
		}
	}

	fmt.Fprintln(w, "Platforms:")
	for i, p := range platforms {
		mark := ""
		if i == selected {
			mark = " (selected)"
		}
		fmt.Fprintf(w, "  #%d: %s%s\n", i, p.Name(), mark)
	}

	if selected < 0 {
		if requested != "" {
			fmt.Fprintf(w, "Platform %q not found, using #0: %s\n",
				requested, platforms[0].Name())
		}
		selected = 0
	}
	log.Debugf("Using platform #%d: %s", selected, platforms[selected].Name())

	return platforms[selected], nil
}
