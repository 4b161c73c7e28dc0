// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/decred/clsearch/search"
	"github.com/decred/clsearch/work"
)

// solutionOutput is the JSON form of a found solution.
type solutionOutput struct {
	Hash  string `json:"hash"`
	Nonce uint64 `json:"nonce"`
}

// printSolution writes res as indented JSON to stdout.
func printSolution(res *work.Result) error {
	out, err := json.MarshalIndent(solutionOutput{
		Hash:  hex.EncodeToString(res.Digest[:]),
		Nonce: res.Nonce,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// newSearcher returns the GPU harness configured by cfg.
func newSearcher(cfg *config) (*search.Searcher, error) {
	backend, err := newBackend()
	if err != nil {
		return nil, err
	}
	return &search.Searcher{
		Backend:     backend,
		Platform:    cfg.Platform,
		Device:      cfg.Device,
		Sources:     os.DirFS(cfg.KernelDir),
		UtilityFile: cfg.UtilityFile,
		KernelFile:  cfg.KernelFile,
		Report:      os.Stdout,
	}, nil
}

func clsearchMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, remainingArgs, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Show version at startup.
	mainLog.Infof("Version %s %s (Go version %s)",
		version(), gpuLib(), runtime.Version())

	if cfg.ListDevices {
		backend, err := newBackend()
		if err != nil {
			mainLog.Errorf("Unable to list devices: %v", err)
			return err
		}
		if err := listDevices(backend, os.Stdout); err != nil {
			mainLog.Errorf("Unable to list devices: %v", err)
			return err
		}
		return nil
	}

	params, err := parseJobArgs(remainingArgs)
	if err != nil {
		mainLog.Errorf("%v", err)
		return err
	}

	// Write cpu profile if requested.
	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			mainLog.Errorf("Unable to create cpu profile: %v", err)
			return err
		}
		pprof.StartCPUProfile(f)
		defer f.Close()
		defer pprof.StopCPUProfile()
	}

	var searcher *search.Searcher
	var batches batchSearcher
	if cfg.GPU {
		searcher, err = newSearcher(cfg)
		if err != nil {
			mainLog.Errorf("%v", err)
			return err
		}
		batches = gpuSearcher{searcher}
	}

	m, err := NewMiner(cfg, params, batches)
	if err != nil {
		mainLog.Criticalf("Error initializing miner: %v", err)
		return err
	}

	if cfg.Autocalibrate > 0 {
		batchSize, err := calcBatchSizeForMilliseconds(searcher.Search,
			m.tmpl, cfg.MaxThreads, cfg.Autocalibrate)
		if err != nil {
			mainLog.Errorf("Unable to calibrate batch size: %v", err)
			return err
		}
		mainLog.Infof("Calibrated batch size %d for %dms batches",
			batchSize, cfg.Autocalibrate)
		m.batchSize = batchSize
	}

	if len(cfg.APIListeners) != 0 {
		RunMonitor(m, cfg.APIListeners)
	}

	ctx := shutdownListener()

	res, err := m.Run(ctx)
	if errors.Is(err, errNonceRangeExhausted) {
		mainLog.Warnf("Searched every nonce from %d", params.Nonce)
		err = nil
	}
	if err != nil {
		mainLog.Errorf("Search failed: %v", err)
		return err
	}
	if res == nil {
		fmt.Println("No valid hash found.")
		return nil
	}
	return printSolution(res)
}

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Work around defer not working after os.Exit()
	if err := clsearchMain(); err != nil {
		os.Exit(1)
	}
}
