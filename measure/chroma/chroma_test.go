package chroma

import (
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-chords/internal/testutil"
	"github.com/cwbudde/algo-chords/theory/key"
	"github.com/cwbudde/algo-chords/theory/tuning"
)

func TestComputeSinePeaksAtPitchClass(t *testing.T) {
	const sampleRate = 44100.0
	ex, err := New(sampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		midi float64
	}{
		{"A3", 57},
		{"C4", 60},
		{"F#4", 66},
		{"D5", 74},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := testutil.DeterministicSine(tuning.MIDIToFrequency(tt.midi), sampleRate, 0.5, 44100)
			c, err := ex.Compute(sig)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			want := tuning.PitchClass(tt.midi)
			if got := argmax(c); got != want {
				t.Fatalf("argmax = %d, want %d (chroma %v)", got, want, c)
			}
			if math.Abs(c[want]-1) > 1e-9 {
				t.Fatalf("normalized peak = %v, want 1", c[want])
			}
		})
	}
}

func TestComputeSilenceIsZero(t *testing.T) {
	ex, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, in := range [][]float64{nil, make([]float64, 10000)} {
		c, err := ex.Compute(in)
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if c.Sum() != 0 {
			t.Fatalf("Compute(silence) = %v, want zeros", c)
		}
	}
}

func TestComputeShortInputUsesOneFrame(t *testing.T) {
	ex, err := New(44100)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sig := testutil.DeterministicSine(440, 44100, 0.5, 1500)
	c, err := ex.Compute(sig)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if argmax(c) != 9 {
		t.Fatalf("argmax = %d, want 9 (A)", argmax(c))
	}
}

func TestComputeChordFeedsKeyEstimate(t *testing.T) {
	const sampleRate = 44100.0
	ex, err := New(sampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// D F# G A C#: only D major and its relative B minor hold all five.
	notes := []float64{74, 78, 79, 81, 85}
	sig := testutil.Chord(sampleRate, 0.2, 88200, tuning.MIDIToFrequencies(notes)...)

	c, err := ex.Compute(sig)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	info, err := key.Estimate(c)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	for _, n := range notes {
		if !slices.Contains(info.Scale[:], tuning.PitchClassNames[tuning.PitchClass(n)]) {
			t.Fatalf("Estimate() = %s, scale %v misses %s (chroma %v)", info.Name(), info.Scale, tuning.NoteName(n), c)
		}
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		opts    []Option
		wantErr bool
	}{
		{"defaults", 44100, nil, false},
		{"frame 2048", 44100, []Option{WithFrameSize(2048)}, false},
		{"frame not pow2", 44100, []Option{WithFrameSize(3000)}, true},
		{"frame too small", 44100, []Option{WithFrameSize(128)}, true},
		{"hop zero", 44100, []Option{WithHopSize(0)}, true},
		{"range inverted", 44100, []Option{WithFrequencyRange(500, 100)}, true},
		{"zero rate", 0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rate, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLowSampleRateClampsUpperBound(t *testing.T) {
	ex, err := New(8000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for k, pc := range ex.binClass {
		f := float64(k) * 8000 / float64(ex.FrameSize())
		if f > 4000 && pc >= 0 {
			t.Fatalf("bin %d (%f Hz) above Nyquist mapped to %d", k, f, pc)
		}
	}
}

func argmax(c key.Chroma) int {
	best := 0
	for i, v := range c {
		if v > c[best] {
			best = i
		}
	}
	return best
}
