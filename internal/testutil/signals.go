package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-chords/dsp/buffer"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Chord sums equal-amplitude sines at the given frequencies.
func Chord(sampleRate, amplitude float64, length int, freqsHz ...float64) []float64 {
	out := make([]float64, length)
	for _, f := range freqsHz {
		for i, v := range DeterministicSine(f, sampleRate, amplitude, length) {
			out[i] += v
		}
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ramp generates a linear ramp from 0 towards peak over length samples.
func Ramp(peak float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = peak * float64(i) / float64(max(length, 1))
	}
	return out
}

// Buffer wraps channels into a buffer.Buffer and panics on ragged input.
func Buffer(channels ...[]float64) *buffer.Buffer {
	b, err := buffer.FromChannels(channels...)
	if err != nil {
		panic(err)
	}
	return b
}

// DCBuffer returns a channels×length buffer filled with value.
func DCBuffer(value float64, channels, length int) *buffer.Buffer {
	chs := make([][]float64, channels)
	for c := range chs {
		chs[c] = DC(value, length)
	}
	return Buffer(chs...)
}
