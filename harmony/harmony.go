// Package harmony builds pitch-shifted harmony voices from a vocal take.
//
// Each requested harmony resolves to one fixed semitone offset for the whole
// track (see package interval); the shifting itself is delegated to a
// pitch.Shifter chosen by the caller.
package harmony

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-chords/dsp/buffer"
	"github.com/cwbudde/algo-chords/dsp/pitch"
	"github.com/cwbudde/algo-chords/report"
	"github.com/cwbudde/algo-chords/theory/interval"
	"github.com/cwbudde/algo-chords/theory/key"
)

// ErrShapeMismatch is returned when a shifter changes the signal length.
var ErrShapeMismatch = errors.New("harmony: shifted audio does not match source shape")

// Track is one generated harmony voice. Audio has the channel layout and
// length of the source vocals.
type Track struct {
	Audio     *buffer.Buffer
	Harmony   interval.Harmony
	Semitones int
}

// Builder turns harmony labels into Tracks.
type Builder struct {
	shifter  pitch.Shifter
	reporter report.Reporter
}

// NewBuilder returns a Builder using shifter. A nil reporter discards
// warnings.
func NewBuilder(shifter pitch.Shifter, reporter report.Reporter) *Builder {
	if reporter == nil {
		reporter = report.Nop{}
	}
	return &Builder{shifter: shifter, reporter: reporter}
}

// Shifter returns the shifting backend in use.
func (b *Builder) Shifter() pitch.Shifter { return b.shifter }

// Build returns one Track per recognised label, in request order. Unknown
// labels are reported as warnings and skipped; duplicates are kept. A nil
// key is treated as major.
func (b *Builder) Build(vocals *buffer.Buffer, sampleRate float64, k *key.Info, labels []string) ([]Track, error) {
	if vocals == nil {
		return nil, fmt.Errorf("harmony: %w", buffer.ErrNoChannels)
	}
	mode := key.Major
	if k != nil {
		mode = k.Mode
	}

	tracks := make([]Track, 0, len(labels))
	for _, label := range labels {
		h, err := interval.Parse(label)
		if err != nil {
			b.reporter.Warn(report.StageHarmony, fmt.Sprintf("unknown harmony type %q, skipping", label))
			continue
		}
		semitones, ok := interval.For(h, mode)
		if !ok {
			b.reporter.Warn(report.StageHarmony, fmt.Sprintf("no interval for %s, skipping", h))
			continue
		}

		audio, err := b.shift(vocals, sampleRate, semitones)
		if err != nil {
			return nil, fmt.Errorf("harmony: %s (%+d semitones): %w", h, semitones, err)
		}
		b.reporter.Report(report.StageHarmony, fmt.Sprintf("generated %s harmony (%+d semitones) with %s", h, semitones, b.shifter.Name()))
		tracks = append(tracks, Track{Audio: audio, Harmony: h, Semitones: semitones})
	}
	return tracks, nil
}

// shift transposes every channel independently.
func (b *Builder) shift(vocals *buffer.Buffer, sampleRate float64, semitones int) (*buffer.Buffer, error) {
	chans := make([][]float64, vocals.Channels())
	for c := range chans {
		src := vocals.Channel(c)
		out, err := b.shifter.Shift(src, sampleRate, semitones)
		if err != nil {
			return nil, err
		}
		if len(out) != len(src) {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d", ErrShapeMismatch, c, len(out), len(src))
		}
		chans[c] = out
	}
	return buffer.FromChannels(chans...)
}
