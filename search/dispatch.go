// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"fmt"
	"math"
)

// WorkSizes returns the local and global work sizes for a batch.  The local
// size is the requested threads per block capped by the device's maximum
// work-group size.  The global size is the smallest multiple of the local
// size covering the whole batch, so up to local-1 work-items past the batch
// end are launched; the kernel must ignore them.
func WorkSizes(batchSize uint64, threadsPerBlock, maxWorkGroupSize int) (int, int, error) {
	local := min(threadsPerBlock, maxWorkGroupSize)
	if local <= 0 {
		return 0, 0, fmt.Errorf("invalid local work size %d (threads "+
			"per block %d, device max %d)", local, threadsPerBlock,
			maxWorkGroupSize)
	}
	groups := batchSize / uint64(local)
	if batchSize%uint64(local) != 0 {
		groups++
	}
	if groups > uint64(math.MaxInt)/uint64(local) {
		return 0, 0, fmt.Errorf("batch size %d overflows the global "+
			"work size", batchSize)
	}
	return local, int(groups) * local, nil
}

// dispatch runs the kernel over the job's batch and blocks until the device
// has finished.
func dispatch(device Device, queue Queue, kernel Kernel, job *Job) error {
	maxWorkGroupSize, err := device.MaxWorkGroupSize()
	if err != nil {
		str := fmt.Sprintf("could not query max work group size: %v", err)
		return searchError(ErrDispatch, str)
	}
	local, global, err := WorkSizes(job.BatchSize, job.ThreadsPerBlock,
		maxWorkGroupSize)
	if err != nil {
		return searchError(ErrDispatch, err.Error())
	}
	log.Tracef("Dispatching %d work-items in groups of %d for batch of %d "+
		"from nonce %d", global, local, job.BatchSize, job.StartNonce)

	if err := queue.EnqueueKernel(kernel, global, local); err != nil {
		str := fmt.Sprintf("could not enqueue kernel: %v", err)
		return searchError(ErrDispatch, str)
	}
	if err := queue.Finish(); err != nil {
		str := fmt.Sprintf("kernel did not complete: %v", err)
		return searchError(ErrDispatch, str)
	}
	return nil
}
