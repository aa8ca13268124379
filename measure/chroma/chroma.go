package chroma

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-chords/dsp/window"
	"github.com/cwbudde/algo-chords/theory/key"
	"github.com/cwbudde/algo-chords/theory/tuning"
)

const (
	defaultFrameSize = 4096
	defaultHopSize   = 1024
	defaultMinHz     = 55.0
	defaultMaxHz     = 5000.0
)

// Option configures an Extractor.
type Option func(*Extractor) error

// WithFrameSize sets the FFT length; it must be a power of two >= 256.
func WithFrameSize(n int) Option {
	return func(e *Extractor) error {
		if n < 256 || n&(n-1) != 0 {
			return fmt.Errorf("chroma frame size must be power-of-two and >= 256: %d", n)
		}
		e.frameSize = n
		return nil
	}
}

// WithHopSize sets the distance between frames in samples.
func WithHopSize(n int) Option {
	return func(e *Extractor) error {
		if n < 1 {
			return fmt.Errorf("chroma hop size must be positive: %d", n)
		}
		e.hopSize = n
		return nil
	}
}

// WithFrequencyRange limits the bins folded into the profile.
func WithFrequencyRange(minHz, maxHz float64) Option {
	return func(e *Extractor) error {
		if !(minHz > 0) || !(maxHz > minHz) {
			return fmt.Errorf("chroma frequency range invalid: [%f, %f]", minHz, maxHz)
		}
		e.minHz, e.maxHz = minHz, maxHz
		return nil
	}
}

// Extractor computes averaged chroma profiles. It is immutable after New
// and safe for concurrent use.
type Extractor struct {
	sampleRate float64
	frameSize  int
	hopSize    int
	minHz      float64
	maxHz      float64

	window []float64
	// binClass maps each FFT bin to a pitch class, or -1 when the bin is
	// outside the frequency range.
	binClass []int
}

// New returns an Extractor for sampleRate.
func New(sampleRate float64, opts ...Option) (*Extractor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("chroma sample rate must be positive and finite: %f", sampleRate)
	}
	e := &Extractor{
		sampleRate: sampleRate,
		frameSize:  defaultFrameSize,
		hopSize:    defaultHopSize,
		minHz:      defaultMinHz,
		maxHz:      defaultMaxHz,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.window = window.Generate(window.TypeHann, e.frameSize, window.WithPeriodic())
	upper := min(e.maxHz, sampleRate/2)
	e.binClass = make([]int, e.frameSize/2+1)
	for k := range e.binClass {
		f := float64(k) * sampleRate / float64(e.frameSize)
		if f < e.minHz || f > upper {
			e.binClass[k] = -1
			continue
		}
		e.binClass[k] = tuning.PitchClass(tuning.FrequencyToMIDI(f))
	}
	return e, nil
}

// FrameSize returns the FFT length.
func (e *Extractor) FrameSize() int { return e.frameSize }

// HopSize returns the frame advance in samples.
func (e *Extractor) HopSize() int { return e.hopSize }

// Compute returns the mean per-frame chroma of mono. Silent or empty input
// yields an all-zero profile.
func (e *Extractor) Compute(mono []float64) (key.Chroma, error) {
	var acc key.Chroma
	if len(mono) == 0 {
		return acc, nil
	}

	plan, err := algofft.NewPlan64(e.frameSize)
	if err != nil {
		return acc, fmt.Errorf("chroma: failed to create FFT plan: %w", err)
	}

	n := e.frameSize
	bins := n/2 + 1
	frame := make([]float64, n)
	spectrum := make([]complex128, n)
	re := make([]float64, bins)
	im := make([]float64, bins)
	power := make([]float64, bins)

	frames := 1
	if len(mono) > n {
		frames += (len(mono) - n + e.hopSize - 1) / e.hopSize
	}

	for f := range frames {
		start := f * e.hopSize
		clear(frame)
		copy(frame, mono[start:min(start+n, len(mono))])
		if err := window.ApplyCoefficients(frame, frame, e.window); err != nil {
			return acc, fmt.Errorf("chroma: %w", err)
		}
		for i, v := range frame {
			spectrum[i] = complex(v, 0)
		}
		if err := plan.Forward(spectrum, spectrum); err != nil {
			return acc, fmt.Errorf("chroma: forward FFT failed: %w", err)
		}
		for k := range bins {
			re[k], im[k] = real(spectrum[k]), imag(spectrum[k])
		}
		vecmath.Power(power, re, im)

		var c key.Chroma
		for k, pc := range e.binClass {
			if pc >= 0 {
				c[pc] += power[k]
			}
		}
		peak := 0.0
		for _, v := range c {
			peak = max(peak, v)
		}
		if peak <= 0 {
			continue
		}
		for i := range c {
			acc[i] += c[i] / peak
		}
	}

	for i := range acc {
		acc[i] /= float64(frames)
	}
	return acc, nil
}
