package pitch

import (
	"errors"
	"fmt"
	"math"
)

const (
	minRatio = 0.25
	maxRatio = 4.0

	// MaxSemitones is the widest shift a Shifter accepts in either direction.
	MaxSemitones = 24

	identityEps = 1e-9
	tiny        = 1e-12
)

var (
	// ErrSemitonesOutOfRange is returned for shifts beyond ±MaxSemitones.
	ErrSemitonesOutOfRange = errors.New("pitch: semitones out of range")

	// ErrUnknownBackend is returned by New for an unrecognised backend name.
	ErrUnknownBackend = errors.New("pitch: unknown backend")
)

// Shifter transposes a mono signal without changing its duration.
//
// Implementations hold configuration only, no per-signal state, so one
// Shifter may be shared across goroutines.
type Shifter interface {
	// Shift returns a new slice of len(samples) transposed by semitones.
	Shift(samples []float64, sampleRate float64, semitones int) ([]float64, error)
	// Name identifies the backend in logs.
	Name() string
}

var (
	_ Shifter = (*WSOLA)(nil)
	_ Shifter = (*Vocoder)(nil)
)

// Backend names a Shifter implementation.
type Backend string

const (
	BackendWSOLA   Backend = "wsola"
	BackendVocoder Backend = "vocoder"
)

// Backends lists the available backends, preferred first.
var Backends = []Backend{BackendWSOLA, BackendVocoder}

// New constructs the named backend with default settings.
func New(b Backend) (Shifter, error) {
	switch b {
	case BackendWSOLA:
		return NewWSOLA(), nil
	case BackendVocoder:
		return NewVocoder(defaultVocoderFrameSize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, b)
	}
}

const (
	probeSampleRate = 44100.0
	probeLength     = 1000
)

// Select builds the preferred backend and checks it on a short silent probe.
// When construction or the probe fails it falls back to the remaining
// backends in Backends order. It is meant to run once at startup; the
// returned Shifter is then passed to whoever needs it.
func Select(preferred Backend) (Shifter, error) {
	order := []Backend{preferred}
	for _, b := range Backends {
		if b != preferred {
			order = append(order, b)
		}
	}

	var errs []error
	for _, b := range order {
		s, err := New(b)
		if err == nil {
			err = probe(s)
		}
		if err == nil {
			return s, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", b, err))
	}
	return nil, fmt.Errorf("pitch: no usable backend: %w", errors.Join(errs...))
}

func probe(s Shifter) error {
	in := make([]float64, probeLength)
	out, err := s.Shift(in, probeSampleRate, 2)
	if err != nil {
		return err
	}
	if len(out) != len(in) {
		return fmt.Errorf("probe returned %d samples, want %d", len(out), len(in))
	}
	return nil
}

// Ratio converts a semitone shift to a frequency ratio.
func Ratio(semitones int) float64 {
	return math.Pow(2, float64(semitones)/12)
}

func validate(sampleRate float64, semitones int) (float64, error) {
	if !isFinitePositive(sampleRate) {
		return 0, fmt.Errorf("pitch: sample rate must be positive and finite: %f", sampleRate)
	}
	if semitones < -MaxSemitones || semitones > MaxSemitones {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrSemitonesOutOfRange, semitones, -MaxSemitones, MaxSemitones)
	}
	ratio := Ratio(semitones)
	if ratio < minRatio || ratio > maxRatio {
		return 0, fmt.Errorf("%w: ratio %f", ErrSemitonesOutOfRange, ratio)
	}
	return ratio, nil
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
