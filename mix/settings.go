package mix

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chords/dsp/effectchain"
)

// Settings controls gains and the harmony effects.
type Settings struct {
	VocalsGain        float64
	HarmonyGain       float64
	AccompanimentGain float64

	// AddEffects runs the harmony bus through compression then reverb.
	AddEffects     bool
	ReverbRoomSize float64
	ReverbWet      float64
	Compressor     effectchain.CompressorParams
}

// DefaultSettings returns gains 1.0/0.6/1.0 with effects on, room 0.3 and
// wet 0.2.
func DefaultSettings() Settings {
	fx := effectchain.DefaultParams()
	return Settings{
		VocalsGain:        1.0,
		HarmonyGain:       0.6,
		AccompanimentGain: 1.0,
		AddEffects:        true,
		ReverbRoomSize:    fx.Reverb.RoomSize,
		ReverbWet:         fx.Reverb.Wet,
		Compressor:        fx.Compressor,
	}
}

// Validate reports the first out-of-range field.
func (s Settings) Validate() error {
	gains := []struct {
		name string
		v    float64
	}{
		{"vocals gain", s.VocalsGain},
		{"harmony gain", s.HarmonyGain},
		{"accompaniment gain", s.AccompanimentGain},
	}
	for _, g := range gains {
		if !(g.v >= 0) || math.IsInf(g.v, 0) {
			return fmt.Errorf("mix: %s must be non-negative and finite: %f", g.name, g.v)
		}
	}
	if !(s.ReverbRoomSize >= 0 && s.ReverbRoomSize <= 1) {
		return fmt.Errorf("mix: reverb room size must be in [0, 1]: %f", s.ReverbRoomSize)
	}
	if !(s.ReverbWet >= 0 && s.ReverbWet <= 1) {
		return fmt.Errorf("mix: reverb wet must be in [0, 1]: %f", s.ReverbWet)
	}
	return s.EffectParams().Validate()
}

// EffectParams derives the harmony-bus chain parameters; dry is 1 - wet.
// A zero Compressor selects effectchain.DefaultCompressorParams.
func (s Settings) EffectParams() effectchain.Params {
	comp := s.Compressor
	if comp == (effectchain.CompressorParams{}) {
		comp = effectchain.DefaultCompressorParams()
	}
	return effectchain.Params{
		Compressor: comp,
		Reverb:     effectchain.ReverbParams(s.ReverbRoomSize, s.ReverbWet),
	}
}
