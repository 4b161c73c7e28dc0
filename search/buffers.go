// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"errors"
	"fmt"
)

// bufferSet holds the four device buffers of a search.  They are allocated
// together; a partially allocated set is never retained.
type bufferSet struct {
	input       Buffer
	found       Buffer
	digest      Buffer
	outputNonce Buffer
}

// release frees every non-nil buffer of the set.
func (s *bufferSet) release() {
	for _, b := range []*Buffer{&s.input, &s.found, &s.digest, &s.outputNonce} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
}

// allocateBuffers allocates the buffer set for job in ctx.  On failure the
// buffers allocated so far are released before returning.
func allocateBuffers(ctx Context, job *Job) (*bufferSet, error) {
	set := new(bufferSet)
	allocs := []struct {
		name string
		dst  *Buffer
		mode AccessMode
		size int
		init []byte
	}{
		{"input data", &set.input, ReadOnly, len(job.Data), job.Data},
		{"found flag", &set.found, ReadWrite, foundFlagSize, nil},
		{"output digest", &set.digest, WriteOnly, DigestSize, nil},
		{"output nonce", &set.outputNonce, WriteOnly, nonceSize, nil},
	}
	for _, a := range allocs {
		b, err := ctx.CreateBuffer(a.mode, a.size, a.init)
		if err != nil || b == nil {
			set.release()
			str := fmt.Sprintf("error allocating %s buffer (%d bytes, %v)",
				a.name, a.size, a.mode)
			if err != nil {
				str += ": " + err.Error()
			}
			return nil, searchError(ErrBufferAllocation, str)
		}
		*a.dst = b
	}
	return set, nil
}

// kernelArg is one positional argument of the search kernel.
type kernelArg struct {
	name  string
	value interface{}
}

// kernelArgs returns the arguments of the search kernel in declaration
// order.  The kernel signature is:
//
//	run(int dataLen, ulong startNonce, int nonceOffset, ulong batchSize,
//	    int difficulty, uchar *data, int *found, uchar *digest,
//	    ulong *nonce)
//
// Any change to the kernel parameters must be mirrored here.
func kernelArgs(job *Job, bufs *bufferSet) []kernelArg {
	return []kernelArg{
		{"dataLen", int32(len(job.Data))},
		{"startNonce", job.StartNonce},
		{"nonceOffset", int32(job.NonceOffset)},
		{"batchSize", job.BatchSize},
		{"difficulty", job.Difficulty},
		{"data", bufs.input},
		{"found", bufs.found},
		{"digest", bufs.digest},
		{"nonce", bufs.outputNonce},
	}
}

// prepareKernel clears the found flag and binds every kernel argument.  All
// failures are collected into a single error.
func prepareKernel(queue Queue, kernel Kernel, job *Job, bufs *bufferSet) error {
	var errs []error
	zero := make([]byte, foundFlagSize)
	if err := queue.WriteBuffer(bufs.found, zero); err != nil {
		errs = append(errs, fmt.Errorf("clear found flag: %w", err))
	}
	for i, arg := range kernelArgs(job, bufs) {
		if err := kernel.SetArg(i, arg.value); err != nil {
			errs = append(errs, fmt.Errorf("arg %d (%s): %w", i,
				arg.name, err))
		}
	}
	if len(errs) != 0 {
		str := fmt.Sprintf("could not set kernel arguments: %v",
			errors.Join(errs...))
		return searchError(ErrArgumentBind, str)
	}
	return nil
}
