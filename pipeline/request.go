package pipeline

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-chords/theory/interval"
)

var (
	// ErrMissingInput is returned when no input path is given.
	ErrMissingInput = errors.New("no input file given")

	// ErrVolumeRange is returned for a harmony volume outside [0, 1].
	ErrVolumeRange = errors.New("harmony volume must be in [0, 1]")
)

// InputError reports a problem with the caller's request rather than with
// processing.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string { return fmt.Sprintf("invalid %s: %v", e.Field, e.Err) }

func (e *InputError) Unwrap() error { return e.Err }

// Request describes one harmony run.
type Request struct {
	Input  string
	Output string // empty selects DefaultOutputPath(Input)

	Harmonies      []string
	HarmonyVolume  float64
	AddReverb      bool
	SkipSeparation bool
}

// NewRequest returns a request for input with third and fifth harmonies at
// volume 0.6 and reverb on.
func NewRequest(input string) Request {
	return Request{
		Input:         input,
		Harmonies:     interval.SplitList("third,fifth"),
		HarmonyVolume: 0.6,
		AddReverb:     true,
	}
}

// DefaultOutputPath places "<stem>_harmony<ext>" next to input.
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)
	return filepath.Join(filepath.Dir(input), stem+"_harmony"+ext)
}

// Validate checks the request and fills in the default output path. It
// returns an *InputError.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Input) == "" {
		return &InputError{Field: "input", Err: ErrMissingInput}
	}
	info, err := os.Stat(r.Input)
	if err != nil {
		return &InputError{Field: "input", Err: err}
	}
	if info.IsDir() {
		return &InputError{Field: "input", Err: fmt.Errorf("%s is a directory", r.Input)}
	}
	if math.IsNaN(r.HarmonyVolume) || r.HarmonyVolume < 0 || r.HarmonyVolume > 1 {
		return &InputError{Field: "harmony-volume", Err: fmt.Errorf("%w: %g", ErrVolumeRange, r.HarmonyVolume)}
	}
	if r.Output == "" {
		r.Output = DefaultOutputPath(r.Input)
	}
	return nil
}
