// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2023 The Decred developers

package main

import "fmt"

const (
	appMajor uint = 1
	appMinor uint = 0
	appPatch uint = 0

	// appPreRelease is appended to the version as a semver pre-release
	// identifier when non-empty.
	appPreRelease = "pre"
)

// version returns the application version as a properly formed string per
// the semantic versioning 2.0.0 spec (https://semver.org/).
func version() string {
	v := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if appPreRelease != "" {
		v = fmt.Sprintf("%s-%s", v, appPreRelease)
	}
	return v
}
