// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"strings"
	"testing"
)

func TestParseJobArgs(t *testing.T) {
	const addr = "GAAZI4TCR3TY5OJHCTJC2A4QSY6CJWJH5IAJTGKIN2ER7LBNVKOCCWN7"
	const hash = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

	tests := []struct {
		name    string
		args    []string
		want    *jobParams
		wantErr string
	}{{
		name: "valid",
		args: []string{"42", hash, "1000", "6", addr},
		want: &jobParams{Block: 42, Hash: hash, Nonce: 1000, Difficulty: 6,
			Miner: addr},
	}, {
		name: "max nonce",
		args: []string{"0", hash, "18446744073709551615", "64", addr},
		want: &jobParams{Hash: hash, Nonce: 1<<64 - 1, Difficulty: 64,
			Miner: addr},
	}, {
		name:    "too few",
		args:    []string{"42", hash, "1000", "6"},
		wantErr: "expected 5 positional arguments",
	}, {
		name:    "negative block",
		args:    []string{"-1", hash, "1000", "6", addr},
		wantErr: "invalid block",
	}, {
		name:    "block overflow",
		args:    []string{"4294967296", hash, "1000", "6", addr},
		wantErr: "invalid block",
	}, {
		name:    "bad nonce",
		args:    []string{"42", hash, "x", "6", addr},
		wantErr: "invalid nonce",
	}, {
		name:    "bad difficulty",
		args:    []string{"42", hash, "1000", "six", addr},
		wantErr: "invalid difficulty",
	}, {
		name:    "zero difficulty",
		args:    []string{"42", hash, "1000", "0", addr},
		wantErr: "not within range",
	}, {
		name:    "difficulty too high",
		args:    []string{"42", hash, "1000", "65", addr},
		wantErr: "not within range",
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseJobArgs(test.args)
			if test.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), test.wantErr) {
					t.Fatalf("got error %v, want %q", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != *test.want {
				t.Fatalf("got %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestValidateSearchOptions(t *testing.T) {
	valid := func() config {
		return config{
			MaxThreads:  defaultMaxThreads,
			BatchSize:   defaultBatchSize,
			KernelFile:  "kernel.cl",
			UtilityFile: "utils/keccak.cl",
		}
	}

	tests := []struct {
		name    string
		modify  func(*config)
		wantErr bool
	}{
		{"defaults", func(*config) {}, false},
		{"zero threads", func(c *config) { c.MaxThreads = 0 }, true},
		{"zero batch", func(c *config) { c.BatchSize = 0 }, true},
		{"negative device", func(c *config) { c.Device = -1 }, true},
		{"negative calibration", func(c *config) {
			c.GPU = true
			c.Autocalibrate = -1
		}, true},
		{"calibration without gpu", func(c *config) { c.Autocalibrate = 100 }, true},
		{"calibration with gpu", func(c *config) {
			c.GPU = true
			c.Autocalibrate = 100
		}, false},
		{"absolute kernel", func(c *config) { c.KernelFile = "/tmp/kernel.cl" }, true},
		{"escaping utility", func(c *config) { c.UtilityFile = "../keccak.cl" }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.modify(&cfg)
			err := validateSearchOptions(&cfg)
			if (err != nil) != test.wantErr {
				t.Fatalf("got error %v, want error %v", err, test.wantErr)
			}
		})
	}
}

func TestParseAndSetDebugLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"info", false},
		{"SRCH=trace,OPCL=debug", false},
		{"verbose", true},
		{"SRCH", true},
		{"NOPE=info", true},
		{"MINR=loud", true},
	}

	for _, test := range tests {
		err := parseAndSetDebugLevels(test.level)
		if (err != nil) != test.wantErr {
			t.Errorf("%q: got error %v, want error %v", test.level, err,
				test.wantErr)
		}
	}
	setLogLevels(defaultLogLevel)
}
