package reverb

import (
	"fmt"
	"math"
)

const (
	numCombs     = 8
	numAllpasses = 4

	inputGain      = 0.015
	wetScale       = 3.0
	dryScale       = 2.0
	roomScale      = 0.28
	roomOffset     = 0.7
	dampScale      = 0.4
	stereoSpread   = 23
	tuningRate     = 44100.0
	allpassFeedback = 0.5

	DefaultRoomSize = 0.5
	DefaultDamping  = 0.5
	DefaultWet      = 0.33
	DefaultDry      = 0.4
	DefaultWidth    = 1.0
)

// Delay lengths in samples at 44.1 kHz, left channel.
var (
	combTuning    = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTuning = [numAllpasses]int{556, 441, 341, 225}
)

// Params are the user-facing reverb controls, all in [0,1]. They follow
// the Freeverb mapping used by common plugin hosts: RoomSize drives comb
// feedback in [0.7, 0.98], Wet and Dry are scaled by 3 and 2.
type Params struct {
	RoomSize float64
	Damping  float64
	Wet      float64
	Dry      float64
	Width    float64
}

// DefaultParams returns the classic Freeverb defaults.
func DefaultParams() Params {
	return Params{
		RoomSize: DefaultRoomSize,
		Damping:  DefaultDamping,
		Wet:      DefaultWet,
		Dry:      DefaultDry,
		Width:    DefaultWidth,
	}
}

// Validate checks that every control lies in [0,1].
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"room size", p.RoomSize},
		{"damping", p.Damping},
		{"wet", p.Wet},
		{"dry", p.Dry},
		{"width", p.Width},
	} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("reverb %s must be in [0, 1]: %f", f.name, f.v)
		}
	}
	return nil
}

// Freeverb is a Schroeder/Moorer reverb: eight damped feedback combs in
// parallel followed by four allpasses in series, per channel. Stereo input
// gets decorrelated right-channel tunings and a width-controlled cross
// mix; other channel counts are processed as independent mono lanes.
type Freeverb struct {
	params     Params
	sampleRate float64

	wet1, wet2, dry float64

	lanes []lane
}

type lane struct {
	combs   [numCombs]comb
	allpass [numAllpasses]allpass
}

// New returns a Freeverb for the given sample rate and channel count.
func New(sampleRate float64, channels int, p Params) (*Freeverb, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("reverb sample rate must be positive and finite: %f", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("reverb channel count must be positive: %d", channels)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := &Freeverb{sampleRate: sampleRate, lanes: make([]lane, channels)}
	scale := sampleRate / tuningRate
	for c := range r.lanes {
		spread := 0
		if channels == 2 && c == 1 {
			spread = stereoSpread
		}
		for i, n := range combTuning {
			r.lanes[c].combs[i] = newComb(scaled(n+spread, scale))
		}
		for i, n := range allpassTuning {
			r.lanes[c].allpass[i] = newAllpass(scaled(n+spread, scale))
		}
	}
	r.SetParams(p)
	return r, nil
}

// SetParams updates the controls. Values are assumed validated.
func (r *Freeverb) SetParams(p Params) {
	r.params = p
	wet := p.Wet * wetScale
	r.wet1 = 0.5 * wet * (1 + p.Width)
	r.wet2 = 0.5 * wet * (1 - p.Width)
	r.dry = p.Dry * dryScale

	feedback := p.RoomSize*roomScale + roomOffset
	damp := p.Damping * dampScale
	for c := range r.lanes {
		for i := range r.lanes[c].combs {
			r.lanes[c].combs[i].feedback = feedback
			r.lanes[c].combs[i].setDamp(damp)
		}
	}
}

// Params returns the current controls.
func (r *Freeverb) Params() Params { return r.params }

// Reset clears all delay lines.
func (r *Freeverb) Reset() {
	for c := range r.lanes {
		for i := range r.lanes[c].combs {
			r.lanes[c].combs[i].reset()
		}
		for i := range r.lanes[c].allpass {
			r.lanes[c].allpass[i].reset()
		}
	}
}

// ProcessInPlace reverberates channels in place. len(channels) must match
// the channel count given to New and all channels must be equally long.
func (r *Freeverb) ProcessInPlace(channels [][]float64) error {
	if len(channels) != len(r.lanes) {
		return fmt.Errorf("reverb expects %d channels, got %d", len(r.lanes), len(channels))
	}
	if len(channels) == 2 {
		r.processStereo(channels[0], channels[1])
		return nil
	}
	for c, ch := range channels {
		l := &r.lanes[c]
		for i, x := range ch {
			ch[i] = l.process(x*inputGain)*(r.wet1+r.wet2) + x*r.dry
		}
	}
	return nil
}

func (r *Freeverb) processStereo(left, right []float64) {
	n := min(len(left), len(right))
	for i := range n {
		in := (left[i] + right[i]) * inputGain
		outL := r.lanes[0].process(in)
		outR := r.lanes[1].process(in)
		left[i] = outL*r.wet1 + outR*r.wet2 + left[i]*r.dry
		right[i] = outR*r.wet1 + outL*r.wet2 + right[i]*r.dry
	}
}

func (l *lane) process(x float64) float64 {
	acc := 0.0
	for i := range l.combs {
		acc += l.combs[i].process(x)
	}
	for i := range l.allpass {
		acc = l.allpass[i].process(acc)
	}
	return acc
}

func scaled(n int, scale float64) int {
	return max(int(math.Round(float64(n)*scale)), 1)
}

type comb struct {
	feedback    float64
	filterStore float64
	damp1       float64
	damp2       float64
	buffer      []float64
	index       int
}

func newComb(size int) comb {
	return comb{buffer: make([]float64, size)}
}

func (c *comb) setDamp(v float64) {
	c.damp1 = v
	c.damp2 = 1 - v
}

func (c *comb) process(input float64) float64 {
	out := c.buffer[c.index]
	c.filterStore = out*c.damp2 + c.filterStore*c.damp1
	if math.Abs(c.filterStore) < 1e-23 {
		c.filterStore = 0
	}
	c.buffer[c.index] = input + c.filterStore*c.feedback
	if c.index++; c.index >= len(c.buffer) {
		c.index = 0
	}
	return out
}

func (c *comb) reset() {
	clear(c.buffer)
	c.index = 0
	c.filterStore = 0
}

type allpass struct {
	buffer []float64
	index  int
}

func newAllpass(size int) allpass {
	return allpass{buffer: make([]float64, size)}
}

func (a *allpass) process(input float64) float64 {
	buffered := a.buffer[a.index]
	a.buffer[a.index] = input + buffered*allpassFeedback
	if a.index++; a.index >= len(a.buffer) {
		a.index = 0
	}
	return buffered - input
}

func (a *allpass) reset() {
	clear(a.buffer)
	a.index = 0
}
