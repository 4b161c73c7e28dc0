// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"fmt"
	"math"
)

const (
	// DigestSize is the size of a solution digest in bytes.
	DigestSize = 32

	// nonceSize is the width of the nonce field the kernel writes into
	// its copy of the job data.
	nonceSize = 8

	// foundFlagSize is the size of the device-side found flag.
	foundFlagSize = 4
)

// Status is the outcome of a search call.
type Status int

// Search outcomes.  The numeric values are part of the call contract.
const (
	StatusError    Status = -1
	StatusNotFound Status = 0
	StatusFound    Status = 1
)

// String returns the Status in human-readable form.
func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusNotFound:
		return "not found"
	case StatusFound:
		return "found"
	}
	return fmt.Sprintf("unknown status %d", int(s))
}

// Job describes one batch of candidate nonces.  It is never modified by a
// search.
type Job struct {
	// Data is the hash input.  The kernel substitutes each candidate nonce
	// at NonceOffset.
	Data        []byte
	StartNonce  uint64
	NonceOffset int

	// BatchSize is the number of candidates, starting at StartNonce.
	BatchSize uint64

	// Difficulty is the threshold a digest must satisfy.
	Difficulty int32

	// ThreadsPerBlock is the requested work-group size.  It is capped by
	// the device's maximum work-group size.
	ThreadsPerBlock int
}

// Solution is a found digest and the nonce that produced it.
type Solution struct {
	Digest [DigestSize]byte
	Nonce  uint64
}

// validate ensures the job can be expressed in the kernel's argument types.
func (j *Job) validate() error {
	switch {
	case len(j.Data) == 0:
		return searchError(ErrInvalidJob, "job data is empty")
	case len(j.Data) > math.MaxInt32:
		str := fmt.Sprintf("job data length %d exceeds the kernel limit",
			len(j.Data))
		return searchError(ErrInvalidJob, str)
	case j.NonceOffset < 0 || j.NonceOffset > len(j.Data)-nonceSize:
		str := fmt.Sprintf("nonce offset %d does not leave room for an "+
			"%d-byte nonce in %d bytes of data", j.NonceOffset, nonceSize,
			len(j.Data))
		return searchError(ErrInvalidJob, str)
	case j.BatchSize == 0:
		return searchError(ErrInvalidJob, "batch size must be positive")
	case j.ThreadsPerBlock <= 0:
		str := fmt.Sprintf("threads per block must be positive, got %d",
			j.ThreadsPerBlock)
		return searchError(ErrInvalidJob, str)
	}
	return nil
}
