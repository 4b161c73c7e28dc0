package util

import (
	"testing"
	"time"
)

func TestFormatHashRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{"zero", 0, "0.00 H/s"},
		{"hashes", 999, "999.00 H/s"},
		{"kilo", 1000, "1.00 KH/s"},
		{"mega", 12345678, "12.35 MH/s"},
		{"giga", 2.5e9, "2.50 GH/s"},
		{"capped", 5e21, "5000.00 EH/s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatHashRate(tt.rate); got != tt.want {
				t.Errorf("FormatHashRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashRate(t *testing.T) {
	tests := []struct {
		name    string
		hashes  uint64
		elapsed time.Duration
		want    float64
	}{
		{"one second", 1000, time.Second, 1000},
		{"half second", 1000, 500 * time.Millisecond, 2000},
		{"no time", 1000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashRate(tt.hashes, tt.elapsed); got != tt.want {
				t.Errorf("HashRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
