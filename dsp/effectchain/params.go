package effectchain

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chords/dsp/dynamics"
	"github.com/cwbudde/algo-chords/dsp/reverb"
)

// CompressorParams configures the compression stage.
type CompressorParams struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
}

// DefaultCompressorParams returns the harmony-bus compressor settings:
// -20 dB, 3:1, 5 ms attack, 100 ms release.
func DefaultCompressorParams() CompressorParams {
	return CompressorParams{
		ThresholdDB: dynamics.DefaultThresholdDB,
		Ratio:       dynamics.DefaultRatio,
		AttackMs:    dynamics.DefaultAttackMs,
		ReleaseMs:   dynamics.DefaultReleaseMs,
	}
}

// Params configures both stages of the chain.
type Params struct {
	Compressor CompressorParams
	Reverb     reverb.Params
}

// DefaultParams returns the bus compressor and a reverb with room 0.3,
// wet 0.2 and dry 0.8.
func DefaultParams() Params {
	return Params{
		Compressor: DefaultCompressorParams(),
		Reverb:     ReverbParams(0.3, 0.2),
	}
}

// ReverbParams derives full reverb controls from a room size and wet
// level; dry is the complement of wet.
func ReverbParams(roomSize, wet float64) reverb.Params {
	p := reverb.DefaultParams()
	p.RoomSize = roomSize
	p.Wet = wet
	p.Dry = 1 - wet
	return p
}

// Validate reports the first out-of-range parameter.
func (p Params) Validate() error {
	c := p.Compressor
	if math.IsNaN(c.ThresholdDB) || math.IsInf(c.ThresholdDB, 0) {
		return fmt.Errorf("effectchain: compressor threshold must be finite: %f", c.ThresholdDB)
	}
	if !inRange(c.Ratio, dynamics.MinRatio, dynamics.MaxRatio) {
		return fmt.Errorf("effectchain: compressor ratio must be in [%g, %g]: %g", dynamics.MinRatio, dynamics.MaxRatio, c.Ratio)
	}
	if !inRange(c.AttackMs, dynamics.MinAttackMs, dynamics.MaxAttackMs) {
		return fmt.Errorf("effectchain: compressor attack must be in [%g, %g] ms: %g", dynamics.MinAttackMs, dynamics.MaxAttackMs, c.AttackMs)
	}
	if !inRange(c.ReleaseMs, dynamics.MinReleaseMs, dynamics.MaxReleaseMs) {
		return fmt.Errorf("effectchain: compressor release must be in [%g, %g] ms: %g", dynamics.MinReleaseMs, dynamics.MaxReleaseMs, c.ReleaseMs)
	}
	if err := p.Reverb.Validate(); err != nil {
		return fmt.Errorf("effectchain: %w", err)
	}
	return nil
}

func inRange(v, lo, hi float64) bool { return v >= lo && v <= hi }
