package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		want    float64
		wantErr bool
	}{
		{"one sample off", []float64{1, 2, 3}, []float64{1, 2.1, 3}, 0.1, false},
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0, false},
		{"empty", nil, nil, 0, false},
		{"length mismatch", []float64{1}, []float64{1, 2}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaxAbsDiff(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MaxAbsDiff() error = %v, wantErr %v", err, tt.wantErr)
			}
			if math.Abs(got-tt.want) > 1e-15 {
				t.Fatalf("MaxAbsDiff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(DC(-0.5, 16)); math.Abs(got-0.5) > 1e-15 {
		t.Fatalf("RMS = %v, want 0.5", got)
	}
	if got := RMS(DeterministicSine(100, 48000, 1, 48000)); math.Abs(got-math.Sqrt2/2) > 1e-6 {
		t.Fatalf("RMS(sine) = %v, want 1/sqrt(2)", got)
	}
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %v, want 0", got)
	}
}

func TestBufferHelpers(t *testing.T) {
	b := DCBuffer(0.25, 2, 8)
	if b.Channels() != 2 || b.Len() != 8 || b.Channel(1)[7] != 0.25 {
		t.Fatalf("DCBuffer() = %d x %d", b.Channels(), b.Len())
	}
	RequireBufferNearlyEqual(t, b, Buffer(DC(0.25, 8), DC(0.25, 8)), 0)
}
