package cpu

import (
	"runtime"
	"slices"
	"testing"
)

func TestDetect(t *testing.T) {
	f := Detect()
	if f.Arch != runtime.GOARCH {
		t.Fatalf("Arch = %q, want %q", f.Arch, runtime.GOARCH)
	}
	if runtime.GOARCH == "amd64" && !f.HasSSE2 {
		t.Fatal("amd64 without SSE2")
	}
	if Detect() != f {
		t.Fatal("Detect() not stable across calls")
	}
}

func TestFeatures(t *testing.T) {
	tests := []struct {
		name   string
		f      Features
		levels []Level
		best   Level
		str    string
	}{
		{"empty", Features{Arch: "riscv64"}, nil, None, "riscv64: none"},
		{"x86", Features{Arch: "amd64", HasSSE2: true, HasAVX: true, HasAVX2: true}, []Level{SSE2, AVX, AVX2}, AVX2, "amd64: SSE2 AVX AVX2"},
		{"arm", Features{Arch: "arm64", HasNEON: true}, []Level{NEON}, NEON, "arm64: NEON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Levels(); !slices.Equal(got, tt.levels) {
				t.Errorf("Levels() = %v, want %v", got, tt.levels)
			}
			if got := tt.f.Best(); got != tt.best {
				t.Errorf("Best() = %v, want %v", got, tt.best)
			}
			if got := tt.f.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
			if !tt.f.Has(None) {
				t.Error("Has(None) = false")
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if AVX512.String() != "AVX-512" || Level(99).String() != "unknown" {
		t.Fatalf("String() = %q / %q", AVX512.String(), Level(99).String())
	}
}
