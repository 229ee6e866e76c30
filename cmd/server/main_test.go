package main

import (
	"log/slog"
	"testing"
)

func TestNewRNGReturnsDistinctSources(t *testing.T) {
	a, b := newRNG(), newRNG()
	if a == b {
		t.Fatalf("each component must own its rng")
	}
	if a.Int63() == b.Int63() {
		t.Fatalf("sources must be seeded independently")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLogLevel(tc.in); got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}
