// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"errors"
	"testing"
	"time"

	"github.com/decred/clsearch/search"
	"github.com/decred/clsearch/work"
)

func TestScaleBatchSize(t *testing.T) {
	tests := []struct {
		name      string
		batchSize uint64
		execTime  time.Duration
		target    time.Duration
		want      uint64
	}{
		{"exact", 1 << 20, 100 * time.Millisecond, 100 * time.Millisecond, 1 << 20},
		{"half", 1 << 20, 200 * time.Millisecond, 100 * time.Millisecond, 1 << 19},
		{"round up", 1000, 100 * time.Millisecond, 100 * time.Millisecond, 1024},
		{"tiny", 1 << 16, time.Hour, time.Millisecond, 256},
		{"no time", 1 << 16, 0, time.Millisecond, 1 << 16},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := scaleBatchSize(test.batchSize, test.execTime, test.target)
			if got != test.want {
				t.Fatalf("got %d, want %d", got, test.want)
			}
			if test.execTime > 0 && got%calibrationGranularity != 0 {
				t.Fatalf("%d is not a multiple of %d", got,
					calibrationGranularity)
			}
		})
	}
}

func testTemplate(t *testing.T) *work.Template {
	t.Helper()
	tmpl, err := work.NewTemplate(42,
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		"GAAZI4TCR3TY5OJHCTJC2A4QSY6CJWJH5IAJTGKIN2ER7LBNVKOCCWN7")
	if err != nil {
		t.Fatalf("NewTemplate: unexpected error: %v", err)
	}
	return tmpl
}

func TestCalcBatchSize(t *testing.T) {
	tmpl := testTemplate(t)

	var probes []uint64
	run := func(job *search.Job, sol *search.Solution) (search.Status, error) {
		if job.Difficulty != work.MaxDifficulty {
			t.Errorf("probe difficulty %d, want %d", job.Difficulty,
				work.MaxDifficulty)
		}
		probes = append(probes, job.BatchSize)
		time.Sleep(time.Duration(job.BatchSize/calibrationStart) *
			time.Millisecond)
		return search.StatusNotFound, nil
	}

	got, err := calcBatchSizeForMilliseconds(run, tmpl, 256, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probes) == 0 {
		t.Fatal("no probes run")
	}
	for i, size := range probes {
		if want := calibrationStart << i; size != want {
			t.Fatalf("probe %d: batch size %d, want %d", i, size, want)
		}
	}
	last := probes[len(probes)-1]
	if got == 0 || got > last+calibrationGranularity {
		t.Fatalf("calibrated batch size %d out of range (last probe %d)",
			got, last)
	}
	if got%calibrationGranularity != 0 {
		t.Fatalf("%d is not a multiple of %d", got, calibrationGranularity)
	}
}

func TestCalcBatchSizeErrors(t *testing.T) {
	tmpl := testTemplate(t)

	errProbe := errors.New("probe failed")
	failing := func(*search.Job, *search.Solution) (search.Status, error) {
		return search.StatusError, errProbe
	}
	if _, err := calcBatchSizeForMilliseconds(failing, tmpl, 256, 10); !errors.Is(err, errProbe) {
		t.Fatalf("got error %v, want %v", err, errProbe)
	}

	instant := func(*search.Job, *search.Solution) (search.Status, error) {
		return search.StatusNotFound, nil
	}
	if _, err := calcBatchSizeForMilliseconds(instant, tmpl, 256, 60000); err == nil {
		t.Fatal("expected an error when no batch size reaches the target")
	}
}
