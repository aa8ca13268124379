package dynamics

import (
	"fmt"
	"math"
)

const (
	DefaultThresholdDB = -20.0
	DefaultRatio       = 3.0
	DefaultAttackMs    = 5.0
	DefaultReleaseMs   = 100.0

	MinRatio     = 1.0
	MaxRatio     = 100.0
	MinAttackMs  = 0.1
	MaxAttackMs  = 1000.0
	MinReleaseMs = 1.0
	MaxReleaseMs = 5000.0

	minKneeDB = 0.0
	maxKneeDB = 24.0

	// log2(10)/20: dB to log2-amplitude.
	log2Of10Div20 = 0.166096404744
)

// Compressor is a feed-forward peak compressor with its gain computer in
// the log2 domain. The knee defaults to hard (0 dB) and there is no makeup
// gain unless one is set, which is what a harmony bus sitting under a lead
// vocal wants.
//
// A Compressor is mono and keeps envelope state between samples; use one
// per channel and do not share it across goroutines.
type Compressor struct {
	thresholdDB  float64
	ratio        float64
	kneeDB       float64
	attackMs     float64
	releaseMs    float64
	makeupGainDB float64

	sampleRate float64
	envelope   float64

	attackCoeff   float64
	releaseCoeff  float64
	thresholdLog2 float64
	kneeLog2      float64
	makeupLin     float64
	slope         float64 // 1 - 1/ratio
}

// NewCompressor creates a compressor with bus defaults: -20 dB threshold,
// 3:1, 5 ms attack, 100 ms release, hard knee, no makeup.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}

	c := &Compressor{
		thresholdDB: DefaultThresholdDB,
		ratio:       DefaultRatio,
		attackMs:    DefaultAttackMs,
		releaseMs:   DefaultReleaseMs,
		sampleRate:  sampleRate,
	}
	c.updateCoefficients()
	return c, nil
}

// SetThreshold sets the threshold in dBFS.
func (c *Compressor) SetThreshold(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return fmt.Errorf("compressor threshold must be finite: %f", dB)
	}
	c.thresholdDB = dB
	c.updateCoefficients()
	return nil
}

// SetRatio sets the compression ratio in [1, 100].
func (c *Compressor) SetRatio(ratio float64) error {
	if ratio < MinRatio || ratio > MaxRatio || math.IsNaN(ratio) {
		return fmt.Errorf("compressor ratio must be in [%f, %f]: %f", MinRatio, MaxRatio, ratio)
	}
	c.ratio = ratio
	c.updateCoefficients()
	return nil
}

// SetKnee sets the soft-knee width in dB; 0 is a hard knee.
func (c *Compressor) SetKnee(kneeDB float64) error {
	if kneeDB < minKneeDB || kneeDB > maxKneeDB || math.IsNaN(kneeDB) {
		return fmt.Errorf("compressor knee must be in [%f, %f]: %f", minKneeDB, maxKneeDB, kneeDB)
	}
	c.kneeDB = kneeDB
	c.updateCoefficients()
	return nil
}

// SetAttack sets the attack time in milliseconds.
func (c *Compressor) SetAttack(ms float64) error {
	if ms < MinAttackMs || ms > MaxAttackMs || math.IsNaN(ms) {
		return fmt.Errorf("compressor attack must be in [%f, %f]: %f", MinAttackMs, MaxAttackMs, ms)
	}
	c.attackMs = ms
	c.updateTimeConstants()
	return nil
}

// SetRelease sets the release time in milliseconds.
func (c *Compressor) SetRelease(ms float64) error {
	if ms < MinReleaseMs || ms > MaxReleaseMs || math.IsNaN(ms) {
		return fmt.Errorf("compressor release must be in [%f, %f]: %f", MinReleaseMs, MaxReleaseMs, ms)
	}
	c.releaseMs = ms
	c.updateTimeConstants()
	return nil
}

// SetMakeupGain sets a fixed output gain in dB.
func (c *Compressor) SetMakeupGain(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return fmt.Errorf("compressor makeup gain must be finite: %f", dB)
	}
	c.makeupGainDB = dB
	c.updateCoefficients()
	return nil
}

// Parameter getters.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }
func (c *Compressor) Ratio() float64 { return c.ratio }
func (c *Compressor) Knee() float64 { return c.kneeDB }
func (c *Compressor) Attack() float64 { return c.attackMs }
func (c *Compressor) Release() float64 { return c.releaseMs }
func (c *Compressor) MakeupGain() float64 { return c.makeupGainDB }
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// ProcessSample compresses one sample.
func (c *Compressor) ProcessSample(input float64) float64 {
	level := math.Abs(input)
	if level > c.envelope {
		c.envelope += (level - c.envelope) * c.attackCoeff
	} else {
		c.envelope = level + (c.envelope-level)*c.releaseCoeff
	}
	return input * c.gainFor(c.envelope) * c.makeupLin
}

// ProcessInPlace compresses buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// StaticGain returns the steady-state linear gain for a constant input
// magnitude, makeup included.
func (c *Compressor) StaticGain(magnitude float64) float64 {
	return c.gainFor(math.Abs(magnitude)) * c.makeupLin
}

// Reset clears the envelope follower.
func (c *Compressor) Reset() { c.envelope = 0 }

func (c *Compressor) updateCoefficients() {
	c.thresholdLog2 = c.thresholdDB * log2Of10Div20
	c.kneeLog2 = c.kneeDB * log2Of10Div20
	c.slope = 1 - 1/c.ratio
	c.makeupLin = mathPower10(c.makeupGainDB / 20)
	c.updateTimeConstants()
}

// Attack: 1 - exp(-ln2/(t*fs)); release: exp(-ln2/(t*fs)).
func (c *Compressor) updateTimeConstants() {
	c.attackCoeff = 1 - math.Exp(-math.Ln2/(c.attackMs*0.001*c.sampleRate))
	c.releaseCoeff = math.Exp(-math.Ln2 / (c.releaseMs * 0.001 * c.sampleRate))
}

func (c *Compressor) gainFor(level float64) float64 {
	if level <= 0 {
		return 1
	}
	over := mathLog2(level) - c.thresholdLog2

	if c.kneeLog2 <= 0 {
		if over <= 0 {
			return 1
		}
		return mathPower2(-over * c.slope)
	}

	half := c.kneeLog2 * 0.5
	switch {
	case over < -half:
		return 1
	case over <= half:
		// Quadratic blend across the knee.
		s := over + half
		over = s * s * 0.5 / c.kneeLog2
	}
	return mathPower2(-over * c.slope)
}
