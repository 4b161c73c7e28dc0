// Copyright (c) 2016-2023 The Decred developers.

package util

import (
	"fmt"
	"time"
)

var hashRateUnits = []string{"H/s", "KH/s", "MH/s", "GH/s", "TH/s", "PH/s", "EH/s"}

// FormatHashRate sets the units properly when displaying a hashrate.
func FormatHashRate(h float64) string {
	unit := 0
	for h >= 1000 && unit < len(hashRateUnits)-1 {
		h /= 1000
		unit++
	}
	return fmt.Sprintf("%.2f %s", h, hashRateUnits[unit])
}

// HashRate returns the rate of hashes computed over elapsed.
func HashRate(hashes uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(hashes) / elapsed.Seconds()
}
