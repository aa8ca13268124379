package pitchtrack

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-chords/theory/tuning"
)

const (
	defaultStepMs        = 10.0
	defaultFrameSize     = 2048
	defaultMinHz         = 65.0
	defaultMaxHz         = 1000.0
	defaultThreshold     = 0.15
	defaultMinConfidence = 0.5
)

// ErrFrameTooShort is returned when the frame cannot hold a single period
// of the highest frequency at the given sample rate.
var ErrFrameTooShort = errors.New("pitchtrack: frame too short for frequency range")

// Contour is a frame-wise pitch track. Times, Frequency and Confidence have
// equal length; Frequency is 0 where the frame is unvoiced.
type Contour struct {
	Times      []float64
	Frequency  []float64
	Confidence []float64
}

// Len returns the number of frames.
func (c Contour) Len() int { return len(c.Frequency) }

// Voiced returns the number of frames with a valid frequency.
func (c Contour) Voiced() int {
	n := 0
	for _, f := range c.Frequency {
		if f > 0 {
			n++
		}
	}
	return n
}

// MIDI converts the frequency track to fractional MIDI notes, 0 where
// unvoiced.
func (c Contour) MIDI() []float64 {
	return tuning.FrequenciesToMIDI(c.Frequency)
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithThreshold sets the YIN absolute threshold in (0, 1).
func WithThreshold(v float64) Option {
	return func(t *Tracker) error {
		if !(v > 0 && v < 1) {
			return fmt.Errorf("pitchtrack threshold must be in (0, 1): %f", v)
		}
		t.threshold = v
		return nil
	}
}

// WithMinConfidence sets the confidence below which a frame is unvoiced.
func WithMinConfidence(v float64) Option {
	return func(t *Tracker) error {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("pitchtrack min confidence must be in [0, 1]: %f", v)
		}
		t.minConfidence = v
		return nil
	}
}

// WithStep sets the frame spacing in milliseconds.
func WithStep(ms float64) Option {
	return func(t *Tracker) error {
		if !(ms > 0) || math.IsInf(ms, 0) {
			return fmt.Errorf("pitchtrack step must be positive: %f", ms)
		}
		t.stepMs = ms
		return nil
	}
}

// WithFrameSize sets the analysis frame length; a power of two >= 256.
func WithFrameSize(n int) Option {
	return func(t *Tracker) error {
		if n < 256 || n&(n-1) != 0 {
			return fmt.Errorf("pitchtrack frame size must be power-of-two and >= 256: %d", n)
		}
		t.frameSize = n
		return nil
	}
}

// WithRange limits the detectable fundamental.
func WithRange(minHz, maxHz float64) Option {
	return func(t *Tracker) error {
		if !(minHz > 0) || !(maxHz > minHz) || math.IsInf(maxHz, 0) {
			return fmt.Errorf("pitchtrack range invalid: [%f, %f]", minHz, maxHz)
		}
		t.minHz, t.maxHz = minHz, maxHz
		return nil
	}
}

// Tracker is a YIN pitch detector. Its configuration is fixed after New and
// Detect allocates its own state, so one Tracker may be shared.
type Tracker struct {
	stepMs        float64
	frameSize     int
	minHz         float64
	maxHz         float64
	threshold     float64
	minConfidence float64
}

// New returns a Tracker with a 10 ms step, 2048-sample frames, a 65-1000 Hz
// range and threshold 0.15.
func New(opts ...Option) (*Tracker, error) {
	t := &Tracker{
		stepMs:        defaultStepMs,
		frameSize:     defaultFrameSize,
		minHz:         defaultMinHz,
		maxHz:         defaultMaxHz,
		threshold:     defaultThreshold,
		minConfidence: defaultMinConfidence,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Threshold returns the YIN absolute threshold.
func (t *Tracker) Threshold() float64 { return t.threshold }

// Detect tracks the pitch of mono. Frame i is centred on sample i*hop.
func (t *Tracker) Detect(mono []float64, sampleRate float64) (Contour, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return Contour{}, fmt.Errorf("pitchtrack sample rate must be positive and finite: %f", sampleRate)
	}
	if len(mono) == 0 {
		return Contour{}, nil
	}

	y, err := t.newYIN(sampleRate)
	if err != nil {
		return Contour{}, err
	}

	hop := max(int(math.Round(t.stepMs*0.001*sampleRate)), 1)
	frames := 1 + (len(mono)-1)/hop
	c := Contour{
		Times:      make([]float64, frames),
		Frequency:  make([]float64, frames),
		Confidence: make([]float64, frames),
	}

	half := t.frameSize / 2
	for i := range frames {
		center := i * hop
		for j := range y.frame {
			y.frame[j] = sampleZero(mono, center-half+j)
		}
		freq, conf, err := y.estimate()
		if err != nil {
			return Contour{}, err
		}
		c.Times[i] = float64(center) / sampleRate
		c.Confidence[i] = conf
		if conf >= t.minConfidence {
			c.Frequency[i] = freq
		}
	}
	return c, nil
}

// yin holds the per-call scratch buffers of one Detect run.
type yin struct {
	sampleRate float64
	threshold  float64
	window     int // integration window W
	tauMin     int
	tauMax     int

	plan  *algofft.Plan[complex128]
	frame []float64
	full  []complex128
	head  []complex128
	corr  []complex128
	cmnd  []float64
}

func (t *Tracker) newYIN(sampleRate float64) (*yin, error) {
	w := t.frameSize / 2
	tauMin := max(int(math.Floor(sampleRate/t.maxHz)), 2)
	tauMax := min(int(math.Ceil(sampleRate/t.minHz)), t.frameSize-w-1)
	if tauMax <= tauMin+1 {
		return nil, fmt.Errorf("%w: frame=%d rate=%f range=[%f, %f]", ErrFrameTooShort, t.frameSize, sampleRate, t.minHz, t.maxHz)
	}

	n := nextPow2(t.frameSize + w)
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("pitchtrack: failed to create FFT plan: %w", err)
	}
	return &yin{
		sampleRate: sampleRate,
		threshold:  t.threshold,
		window:     w,
		tauMin:     tauMin,
		tauMax:     tauMax,
		plan:       plan,
		frame:      make([]float64, t.frameSize),
		full:       make([]complex128, n),
		head:       make([]complex128, n),
		corr:       make([]complex128, n),
		cmnd:       make([]float64, tauMax+2),
	}, nil
}

// estimate runs YIN on y.frame and returns frequency and confidence.
func (y *yin) estimate() (float64, float64, error) {
	if err := y.difference(); err != nil {
		return 0, 0, err
	}

	tau := -1
	for k := y.tauMin; k <= y.tauMax; k++ {
		if y.cmnd[k] < y.threshold {
			for k+1 <= y.tauMax && y.cmnd[k+1] < y.cmnd[k] {
				k++
			}
			tau = k
			break
		}
	}
	if tau < 0 {
		// No dip below threshold: fall back to the global minimum, which
		// normally yields a low confidence.
		tau = y.tauMin
		for k := y.tauMin + 1; k <= y.tauMax; k++ {
			if y.cmnd[k] < y.cmnd[tau] {
				tau = k
			}
		}
	}

	conf := min(max(1-y.cmnd[tau], 0), 1)
	period := float64(tau)
	if tau > y.tauMin && tau < y.tauMax {
		s0, s1, s2 := y.cmnd[tau-1], y.cmnd[tau], y.cmnd[tau+1]
		if den := s0 - 2*s1 + s2; math.Abs(den) > 1e-12 {
			period += 0.5 * (s0 - s2) / den
		}
	}
	if period <= 0 {
		return 0, 0, nil
	}
	return y.sampleRate / period, conf, nil
}

// difference fills y.cmnd[0..tauMax] with the cumulative mean normalized
// difference of y.frame.
func (y *yin) difference() error {
	for i := range y.full {
		y.full[i], y.head[i] = 0, 0
	}
	for i, v := range y.frame {
		y.full[i] = complex(v, 0)
		if i < y.window {
			y.head[i] = complex(v, 0)
		}
	}
	if err := y.plan.Forward(y.full, y.full); err != nil {
		return fmt.Errorf("pitchtrack: forward FFT failed: %w", err)
	}
	if err := y.plan.Forward(y.head, y.head); err != nil {
		return fmt.Errorf("pitchtrack: forward FFT failed: %w", err)
	}
	for i := range y.corr {
		h := y.head[i]
		y.corr[i] = complex(real(h), -imag(h)) * y.full[i]
	}
	// head[τ] = Σ_{j<W} x[j]·x[j+τ] after the inverse transform.
	if err := y.plan.Inverse(y.head, y.corr); err != nil {
		return fmt.Errorf("pitchtrack: inverse FFT failed: %w", err)
	}

	e0 := 0.0
	for _, v := range y.frame[:y.window] {
		e0 += v * v
	}
	eTau := e0
	running := 0.0
	y.cmnd[0] = 1
	for tau := 1; tau <= y.tauMax; tau++ {
		out, in := y.frame[tau-1], y.frame[tau+y.window-1]
		eTau += in*in - out*out
		d := max(e0+eTau-2*real(y.head[tau]), 0)
		running += d
		if running <= 0 {
			y.cmnd[tau] = 1
			continue
		}
		y.cmnd[tau] = d * float64(tau) / running
	}
	return nil
}

func sampleZero(x []float64, idx int) float64 {
	if idx < 0 || idx >= len(x) {
		return 0
	}
	return x[idx]
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
