// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"fmt"
	"math"
	"time"

	"github.com/decred/clsearch/search"
	"github.com/decred/clsearch/work"
)

const (
	// calibrationStart is the batch size of the first probe.
	calibrationStart = uint64(1 << 16)

	// calibrationLimit bounds the probe batch size.
	calibrationLimit = uint64(1 << 40)

	// The calibrated batch size is a multiple of this.
	calibrationGranularity = 256
)

// searchFunc runs one harness call.
type searchFunc func(job *search.Job, sol *search.Solution) (search.Status, error)

// probeExecutionTime returns the time taken by a search of batchSize nonces
// that can never succeed.
func probeExecutionTime(run searchFunc, tmpl *work.Template, batchSize uint64,
	threads int) (time.Duration, error) {

	job := &search.Job{
		Data:            tmpl.Data(0),
		NonceOffset:     work.NonceOffset,
		BatchSize:       batchSize,
		Difficulty:      work.MaxDifficulty,
		ThreadsPerBlock: threads,
	}

	var sol search.Solution
	start := time.Now()
	if _, err := run(job, &sol); err != nil {
		return 0, err
	}
	elapsedTime := time.Since(start)
	minrLog.Tracef("Search of %d nonces for batch size calibration: %v",
		batchSize, elapsedTime)

	return elapsedTime, nil
}

// scaleBatchSize scales batchSize, which took execTime, to the batch size
// achieving target, rounded up to a multiple of calibrationGranularity.
func scaleBatchSize(batchSize uint64, execTime, target time.Duration) uint64 {
	if execTime <= 0 {
		return batchSize
	}
	adj := float64(batchSize) * (float64(target) / float64(execTime))
	adj /= calibrationGranularity
	size := uint64(math.Ceil(adj)) * calibrationGranularity
	if size == 0 {
		size = calibrationGranularity
	}
	return size
}

// calcBatchSizeForMilliseconds calculates the batch size achieving a search
// cycle of the passed duration in milliseconds.
func calcBatchSizeForMilliseconds(run searchFunc, tmpl *work.Template,
	threads, ms int) (uint64, error) {

	batchSize := calibrationStart
	timeToAchieve := time.Duration(ms) * time.Millisecond
	for {
		execTime, err := probeExecutionTime(run, tmpl, batchSize, threads)
		if err != nil {
			return 0, err
		}

		// If we fail to go above the desired execution time, double
		// the batch size and try again.
		if execTime < timeToAchieve {
			if batchSize >= calibrationLimit {
				return 0, fmt.Errorf("no batch size up to %d reaches %v",
					calibrationLimit, timeToAchieve)
			}
			batchSize <<= 1
			continue
		}

		// We're past the desired execution time, so now calculate what
		// the ideal batch size should be.
		return scaleBatchSize(batchSize, execTime, timeToAchieve), nil
	}
}
