// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/clsearch/search"
	"github.com/decred/clsearch/util"
	"github.com/decred/clsearch/work"
)

// errNonceRangeExhausted is returned once the last 64-bit nonce was searched.
var errNonceRangeExhausted = errors.New("nonce range exhausted")

// batchSearcher runs one GPU batch, reporting the device capabilities first
// when showDeviceInfo is set.
type batchSearcher interface {
	SearchBatch(job *search.Job, sol *search.Solution,
		showDeviceInfo bool) (search.Status, error)
}

// gpuSearcher runs batches on a search.Searcher.
type gpuSearcher struct {
	s *search.Searcher
}

func (g gpuSearcher) SearchBatch(job *search.Job, sol *search.Solution,
	showDeviceInfo bool) (search.Status, error) {

	s := *g.s
	s.ShowDeviceInfo = showDeviceInfo
	return s.Search(job, sol)
}

// batchAt returns the size of the batch starting at start, clamped to the
// last nonce, and whether the batch reaches the last nonce.
func batchAt(start, batchSize uint64) (uint64, bool) {
	left := math.MaxUint64 - start
	if batchSize-1 >= left {
		return left + 1, true
	}
	return batchSize, false
}

// Miner repeats searches over advancing nonce ranges until a solution is
// found or it is shut down.
type Miner struct {
	// The following variables must only be used atomically.
	hashes    atomic.Uint64
	batches   atomic.Uint64
	nonce     atomic.Uint64
	hwErrors  atomic.Uint64
	found     atomic.Bool
	exhausted atomic.Bool
	lastRate  atomic.Uint64

	started    uint32
	gpu        bool
	verbose    bool
	tmpl       *work.Template
	difficulty int
	batchSize  uint64
	threads    int
	searcher   batchSearcher
	deviceName string
	wg         sync.WaitGroup

	mtx      sync.Mutex
	solution *work.Result
}

// NewMiner returns a miner for the block described by params.  searcher is
// only used when cfg selects GPU mode.
func NewMiner(cfg *config, params *jobParams, searcher batchSearcher) (*Miner, error) {
	tmpl, err := work.NewTemplate(params.Block, params.Hash, params.Miner)
	if err != nil {
		return nil, err
	}
	if cfg.GPU && searcher == nil {
		return nil, errors.New("GPU mode requires a searcher")
	}

	m := &Miner{
		started:    uint32(time.Now().Unix()),
		gpu:        cfg.GPU,
		verbose:    cfg.Verbose,
		tmpl:       tmpl,
		difficulty: params.Difficulty,
		batchSize:  cfg.BatchSize,
		threads:    cfg.MaxThreads,
		searcher:   searcher,
		deviceName: "cpu",
	}
	if m.gpu {
		m.deviceName = fmt.Sprintf("gpu #%d", cfg.Device)
	}
	m.nonce.Store(params.Nonce)
	return m, nil
}

// mode returns the label used in stats output.
func (m *Miner) mode() string {
	if m.gpu {
		return "GPU"
	}
	return "CPU"
}

// claimBatch reserves the next batch of nonces.  It returns false once the
// batch holding the last nonce has been claimed.
func (m *Miner) claimBatch() (uint64, uint64, bool) {
	for {
		if m.exhausted.Load() {
			return 0, 0, false
		}
		start := m.nonce.Load()
		size, last := batchAt(start, m.batchSize)
		if last {
			if m.exhausted.CompareAndSwap(false, true) {
				return start, size, true
			}
			return 0, 0, false
		}
		if m.nonce.CompareAndSwap(start, start+size) {
			return start, size, true
		}
	}
}

// job returns the harness job for the batch of size nonces starting at
// nonce.
func (m *Miner) job(nonce, size uint64) *search.Job {
	return &search.Job{
		Data:            m.tmpl.Data(nonce),
		StartNonce:      nonce,
		NonceOffset:     work.NonceOffset,
		BatchSize:       size,
		Difficulty:      int32(m.difficulty),
		ThreadsPerBlock: m.threads,
	}
}

// runGPU runs one harness call per batch.  A harness error stops the loop.
func (m *Miner) runGPU(ctx context.Context) (*work.Result, error) {
	showDeviceInfo := m.verbose
	for {
		select {
		case <-ctx.Done():
			return nil, nil
		default:
		}

		nonce, size, ok := m.claimBatch()
		if !ok {
			return nil, errNonceRangeExhausted
		}
		if m.verbose {
			fmt.Printf("[GPU] Mining batch: %d block: %d difficulty: %d\n",
				nonce, m.tmpl.Block, m.difficulty)
		}

		var sol search.Solution
		start := time.Now()
		status, err := m.searcher.SearchBatch(m.job(nonce, size), &sol,
			showDeviceInfo)
		elapsed := time.Since(start)
		showDeviceInfo = false
		if err != nil {
			var serr search.Error
			if errors.As(err, &serr) && serr.BuildLog != "" {
				minrLog.Errorf("Kernel build log:\n%s", serr.BuildLog)
			}
			return nil, err
		}

		m.batches.Add(1)
		m.hashes.Add(size)
		m.lastRate.Store(uint64(util.HashRate(size, elapsed)))

		if status == search.StatusFound {
			if m.tmpl.Verify(sol.Nonce, sol.Digest, m.difficulty) {
				return &work.Result{Digest: sol.Digest, Nonce: sol.Nonce}, nil
			}
			m.hwErrors.Add(1)
			minrLog.Errorf("Hardware error: nonce %d does not produce "+
				"digest %x at difficulty %d", sol.Nonce, sol.Digest,
				m.difficulty)
		}
	}
}

// runCPU searches disjoint batches on m.threads goroutines.
func (m *Miner) runCPU(ctx context.Context) (*work.Result, error) {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(m.threads)
	for i := 0; i < m.threads; i++ {
		go func() {
			defer wg.Done()
			for workCtx.Err() == nil {
				start, size, ok := m.claimBatch()
				if !ok {
					return
				}
				if m.verbose {
					fmt.Printf("[CPU] Mining batch: %d block: %d "+
						"difficulty: %d\n", start, m.tmpl.Block,
						m.difficulty)
				}
				res, found := m.tmpl.Search(workCtx, start, size,
					m.difficulty, &m.hashes)
				m.batches.Add(1)
				if found {
					m.setSolution(res)
					cancel()
					return
				}
			}
		}()
	}
	wg.Wait()

	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.solution == nil && m.exhausted.Load() && ctx.Err() == nil {
		return nil, errNonceRangeExhausted
	}
	return m.solution, nil
}

// setSolution records the first solution found.
func (m *Miner) setSolution(res *work.Result) {
	m.mtx.Lock()
	if m.solution == nil {
		m.solution = res
		m.found.Store(true)
	}
	m.mtx.Unlock()
}

func (m *Miner) printStatsThread(ctx context.Context) {
	defer m.wg.Done()

	t := time.NewTicker(time.Second)
	defer t.Stop()

	last, prevHashes := time.Now(), uint64(0)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			var rate float64
			if m.gpu {
				rate = float64(m.lastRate.Load())
			} else {
				hashes := m.hashes.Load()
				rate = util.HashRate(hashes-prevHashes, now.Sub(last))
				m.lastRate.Store(uint64(rate))
				prevHashes = hashes
			}
			last = now
			if rate > 0 {
				fmt.Printf("[%s] Hash Rate: %s\n", m.mode(),
					util.FormatHashRate(rate))
			}
		}
	}
}

// Run searches until a solution is found or ctx is done.  A GPU search
// error stops it early, and errNonceRangeExhausted is returned once the last
// nonce was searched without a solution.  A nil result with a nil error means no solution
// was found.
func (m *Miner) Run(ctx context.Context) (*work.Result, error) {
	statsCtx, stopStats := context.WithCancel(ctx)
	if m.verbose {
		m.wg.Add(1)
		go m.printStatsThread(statsCtx)
	}
	defer func() {
		stopStats()
		m.wg.Wait()
	}()

	if m.gpu {
		fmt.Printf("[GPU] %s\n", gpuLib())
		res, err := m.runGPU(ctx)
		if res != nil {
			m.setSolution(res)
		}
		return res, err
	}
	return m.runCPU(ctx)
}

// Status returns the number of batches run, the hashes computed, the most
// recent hash rate and the next nonce to search.
func (m *Miner) Status() (uint64, uint64, float64, uint64) {
	return m.batches.Load(), m.hashes.Load(), float64(m.lastRate.Load()),
		m.nonce.Load()
}
