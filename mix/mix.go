package mix

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-chords/dsp/buffer"
	"github.com/cwbudde/algo-chords/dsp/effectchain"
	"github.com/cwbudde/algo-chords/harmony"
)

// Ceiling is the peak a clipping mix is scaled down to.
const Ceiling = 0.95

// ErrChannelMismatch is returned when an input is neither mono nor laid out
// like the vocals.
var ErrChannelMismatch = errors.New("mix: channel layout mismatch")

// Mixer combines the parts of a harmony run.
type Mixer struct {
	effects effectchain.Processor
}

// NewMixer returns a Mixer that uses effects for the harmony bus. A nil
// processor selects effectchain.HarmonyBus.
func NewMixer(effects effectchain.Processor) *Mixer {
	if effects == nil {
		effects = effectchain.HarmonyBus{}
	}
	return &Mixer{effects: effects}
}

// Mix returns vocals·gV + bus·gH + accompaniment·gA, truncated to the
// shortest input and peak-normalized. The output has the vocals' channel
// count; mono accompaniment or harmonies are spread to every channel.
// Inputs are not modified.
func (m *Mixer) Mix(vocals *buffer.Buffer, harmonies []harmony.Track, accompaniment *buffer.Buffer, sampleRate float64, s Settings) (*buffer.Buffer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if vocals == nil || accompaniment == nil {
		return nil, fmt.Errorf("mix: %w", buffer.ErrNoChannels)
	}
	nch := vocals.Channels()
	if err := checkLayout("accompaniment", accompaniment, nch); err != nil {
		return nil, err
	}

	n := min(vocals.Len(), accompaniment.Len())
	for i, h := range harmonies {
		if h.Audio == nil {
			return nil, fmt.Errorf("mix: harmony %d: %w", i, buffer.ErrNoChannels)
		}
		if err := checkLayout(fmt.Sprintf("harmony %d", i), h.Audio, nch); err != nil {
			return nil, err
		}
		n = min(n, h.Audio.Len())
	}

	out := vocals.Truncate(n)
	for c := range nch {
		vecmath.ScaleBlockInPlace(out.Channel(c), s.VocalsGain)
	}

	if len(harmonies) > 0 {
		bus := buffer.New(nch, n)
		for _, h := range harmonies {
			for c := range nch {
				vecmath.AddBlockInPlace(bus.Channel(c), spread(h.Audio, c)[:n])
			}
		}
		if s.AddEffects {
			var err error
			bus, err = m.effects.Process(bus, sampleRate, s.EffectParams())
			if err != nil {
				return nil, fmt.Errorf("mix: harmony effects: %w", err)
			}
			if !bus.SameShape(out) {
				return nil, fmt.Errorf("mix: harmony effects changed bus shape to %dx%d", bus.Channels(), bus.Len())
			}
		}
		for c := range nch {
			addScaled(out.Channel(c), bus.Channel(c), s.HarmonyGain)
		}
	}

	for c := range nch {
		addScaled(out.Channel(c), spread(accompaniment, c)[:n], s.AccompanimentGain)
	}

	NormalizePeak(out, Ceiling)
	return out, nil
}

// NormalizePeak scales buf in place so its peak equals ceiling, but only
// when the peak exceeds 1. It returns the gain applied, 1 when untouched.
func NormalizePeak(buf *buffer.Buffer, ceiling float64) float64 {
	peak := 0.0
	for c := range buf.Channels() {
		if ch := buf.Channel(c); len(ch) > 0 {
			peak = max(peak, vecmath.MaxAbs(ch))
		}
	}
	if peak <= 1 {
		return 1
	}
	g := ceiling / peak
	for c := range buf.Channels() {
		vecmath.ScaleBlockInPlace(buf.Channel(c), g)
	}
	return g
}

func checkLayout(name string, b *buffer.Buffer, channels int) error {
	if b.Channels() == channels || b.Channels() == 1 {
		return nil
	}
	return fmt.Errorf("%w: %s has %d channels, vocals have %d", ErrChannelMismatch, name, b.Channels(), channels)
}

// spread returns channel c of b, or its only channel when b is mono.
func spread(b *buffer.Buffer, c int) []float64 {
	if b.Channels() == 1 {
		return b.Channel(0)
	}
	return b.Channel(c)
}

// addScaled adds src·gain onto dst.
func addScaled(dst, src []float64, gain float64) {
	tmp := make([]float64, len(dst))
	vecmath.ScaleBlock(tmp, src, gain)
	vecmath.AddBlockInPlace(dst, tmp)
}
