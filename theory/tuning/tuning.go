// Package tuning converts between frequencies in Hz and fractional MIDI note
// numbers in 12-tone equal temperament (A4 = 440 Hz = MIDI 69).
//
// Zero is the "no pitch" sentinel in both directions: a frequency of 0 maps
// to MIDI 0 and MIDI 0 maps to 0 Hz. Any non-positive or non-finite input is
// treated the same way.
package tuning

import (
	"fmt"
	"math"
)

const (
	// ReferenceHz is the concert pitch of MIDI note 69.
	ReferenceHz = 440.0
	// ReferenceNote is the MIDI number of the reference pitch.
	ReferenceNote = 69.0
)

// PitchClassNames lists pitch classes using sharps, starting at C.
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FrequencyToMIDI returns the fractional MIDI note for freqHz.
func FrequencyToMIDI(freqHz float64) float64 {
	if !valid(freqHz) {
		return 0
	}
	return ReferenceNote + 12*math.Log2(freqHz/ReferenceHz)
}

// MIDIToFrequency returns the frequency in Hz of a fractional MIDI note.
func MIDIToFrequency(midi float64) float64 {
	if !valid(midi) {
		return 0
	}
	return ReferenceHz * math.Pow(2, (midi-ReferenceNote)/12)
}

// FrequenciesToMIDI converts a contour of frequencies, keeping zeros as zeros.
func FrequenciesToMIDI(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = FrequencyToMIDI(f)
	}
	return out
}

// MIDIToFrequencies converts a contour of MIDI notes, keeping zeros as zeros.
func MIDIToFrequencies(notes []float64) []float64 {
	out := make([]float64, len(notes))
	for i, m := range notes {
		out[i] = MIDIToFrequency(m)
	}
	return out
}

// PitchClass returns the pitch class (0 = C) of the nearest MIDI note.
func PitchClass(midi float64) int {
	pc := int(math.Round(midi)) % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}

// NoteName renders the nearest note as name plus octave, e.g. "A4".
// It returns "-" for the zero sentinel.
func NoteName(midi float64) string {
	if !valid(midi) {
		return "-"
	}
	n := int(math.Round(midi))
	octave := n/12 - 1
	return fmt.Sprintf("%s%d", PitchClassNames[PitchClass(midi)], octave)
}

func valid(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
