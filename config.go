// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2023 The Decred developers

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrutil/v4"
	flags "github.com/jessevdk/go-flags"

	"github.com/decred/clsearch/search"
	"github.com/decred/clsearch/work"
)

const (
	defaultConfigFilename = "clsearch.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "clsearch.log"
	defaultBatchSize      = 10000000
	defaultMaxThreads     = 4
)

var (
	searchHomeDir     = dcrutil.AppDataDir("clsearch", false)
	defaultConfigFile = filepath.Join(searchHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(searchHomeDir, defaultLogDirname)
)

type config struct {
	ShowVersion bool `short:"V" long:"version" description:"Display version information and exit"`

	// Config / log options
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir     string `long:"logdir" description:"Directory to log output."`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	// Debugging options
	CPUProfile string `long:"cpuprofile" description:"Write CPU profile to the specified file"`

	// Search options
	GPU           bool     `long:"gpu" description:"Search on a GPU (requires a build with the opencl tag)"`
	ListDevices   bool     `short:"l" long:"listdevices" description:"List the GPU devices of every platform and exit"`
	Platform      string   `long:"platform" description:"Name of the OpenCL platform to use; the first platform is used when none matches"`
	Device        int      `long:"device" description:"Zero-based index of the GPU on the platform"`
	MaxThreads    int      `long:"maxthreads" description:"CPU worker threads, or GPU threads per work group"`
	BatchSize     uint64   `long:"batchsize" description:"Nonces searched per batch"`
	Autocalibrate int      `long:"autocalibrate" description:"Derive the GPU batch size from this many milliseconds per batch (0 to disable)"`
	KernelDir     string   `long:"kerneldir" description:"Directory holding the kernel sources"`
	KernelFile    string   `long:"kernel" description:"Path of the search kernel source, relative to kerneldir"`
	UtilityFile   string   `long:"utility" description:"Path of the shared kernel utility source, relative to kerneldir"`
	Verbose       bool     `short:"v" long:"verbose" description:"Report hash rate and device capabilities"`
	APIListeners  []string `long:"apilisten" description:"Serve search status as JSON on this address (eg. 127.0.0.1:3333)"`
}

// jobParams holds the positional arguments describing the block to search.
type jobParams struct {
	Block      uint32
	Hash       string
	Nonce      uint64
	Difficulty int
	Miner      string
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsytems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// cleanAndExpandPath expands environement variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(searchHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// parseJobArgs parses the positional arguments
// <block> <hash> <nonce> <difficulty> <miner>.
func parseJobArgs(args []string) (*jobParams, error) {
	if len(args) != 5 {
		return nil, fmt.Errorf("expected 5 positional arguments "+
			"<block> <hash> <nonce> <difficulty> <miner>, got %d",
			len(args))
	}

	block, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid block %q: %w", args[0], err)
	}
	nonce, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid nonce %q: %w", args[2], err)
	}
	difficulty, err := strconv.Atoi(args[3])
	if err != nil {
		return nil, fmt.Errorf("invalid difficulty %q: %w", args[3], err)
	}
	if difficulty < 1 || difficulty > work.MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d not within range 1 to %d",
			difficulty, work.MaxDifficulty)
	}

	return &jobParams{
		Block:      uint32(block),
		Hash:       args[1],
		Nonce:      nonce,
		Difficulty: difficulty,
		Miner:      args[4],
	}, nil
}

// validateSearchOptions checks the search related options of cfg.
func validateSearchOptions(cfg *config) error {
	if cfg.MaxThreads < 1 {
		return fmt.Errorf("maxthreads must be positive, got %d",
			cfg.MaxThreads)
	}
	if cfg.BatchSize == 0 {
		return fmt.Errorf("batchsize must be positive")
	}
	if cfg.Device < 0 {
		return fmt.Errorf("device must not be negative, got %d", cfg.Device)
	}
	if cfg.Autocalibrate < 0 {
		return fmt.Errorf("autocalibrate must not be negative, got %d",
			cfg.Autocalibrate)
	}
	for _, path := range []string{cfg.KernelFile, cfg.UtilityFile} {
		if !fs.ValidPath(path) {
			return fmt.Errorf("kernel source path %q must be a slash "+
				"separated path relative to kerneldir", path)
		}
	}
	if cfg.Autocalibrate > 0 && !cfg.GPU {
		return fmt.Errorf("autocalibrate requires --gpu")
	}
	return nil
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in clsearch functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile:  defaultConfigFile,
		DebugLevel:  defaultLogLevel,
		LogDir:      defaultLogDir,
		MaxThreads:  defaultMaxThreads,
		BatchSize:   defaultBatchSize,
		KernelDir:   ".",
		KernelFile:  search.DefaultKernelFile,
		UtilityFile: search.DefaultUtilityFile,
	}

	// Create the home directory if it doesn't already exist.
	funcName := "loadConfig"
	err := os.MkdirAll(searchHomeDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(-1)
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err = preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	parser.Usage = "[OPTIONS] <block> <hash> <nonce> <difficulty> <miner>"
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	if err := validateSearchOptions(&cfg); err != nil {
		err := fmt.Errorf("%s: %w", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize logging at the default logging level.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	setLogLevels(defaultLogLevel)

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %w", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	cfg.KernelDir = cleanAndExpandPath(cfg.KernelDir)

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid
	// options.  Note this should go directly before the return.
	if configFileError != nil {
		mainLog.Warnf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}
