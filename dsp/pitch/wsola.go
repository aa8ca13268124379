package pitch

import (
	"fmt"
	"math"
)

const (
	// Sequence/overlap/search windows tuned for sung material: long enough
	// that a few vocal periods fit in the correlation window.
	defaultSequenceMs = 82.0
	defaultOverlapMs  = 10.0
	defaultSearchMs   = 28.0

	minSequenceMs = 20.0
	maxSequenceMs = 120.0
	minOverlapMs  = 4.0
	maxOverlapMs  = 60.0
	minSearchMs   = 2.0
	maxSearchMs   = 40.0
)

// WSOLA shifts pitch in the time domain: the signal is stretched by the
// pitch ratio with waveform-similarity overlap-add, then resampled back to
// its original length.
type WSOLA struct {
	sequenceMs float64
	overlapMs  float64
	searchMs   float64
}

// NewWSOLA returns a WSOLA shifter with default windows.
func NewWSOLA() *WSOLA {
	return &WSOLA{
		sequenceMs: defaultSequenceMs,
		overlapMs:  defaultOverlapMs,
		searchMs:   defaultSearchMs,
	}
}

// Name implements Shifter.
func (w *WSOLA) Name() string { return string(BackendWSOLA) }

// Sequence returns the segment length in milliseconds.
func (w *WSOLA) Sequence() float64 { return w.sequenceMs }

// Overlap returns the cross-fade length in milliseconds.
func (w *WSOLA) Overlap() float64 { return w.overlapMs }

// Search returns the similarity search radius in milliseconds.
func (w *WSOLA) Search() float64 { return w.searchMs }

// SetWindows updates all three window lengths at once.
func (w *WSOLA) SetWindows(sequenceMs, overlapMs, searchMs float64) error {
	if !inRange(sequenceMs, minSequenceMs, maxSequenceMs) {
		return fmt.Errorf("wsola sequence must be in [%f, %f] ms: %f", minSequenceMs, maxSequenceMs, sequenceMs)
	}
	if !inRange(overlapMs, minOverlapMs, maxOverlapMs) {
		return fmt.Errorf("wsola overlap must be in [%f, %f] ms: %f", minOverlapMs, maxOverlapMs, overlapMs)
	}
	if !inRange(searchMs, minSearchMs, maxSearchMs) {
		return fmt.Errorf("wsola search must be in [%f, %f] ms: %f", minSearchMs, maxSearchMs, searchMs)
	}
	if overlapMs >= sequenceMs {
		return fmt.Errorf("wsola overlap must be smaller than sequence: overlap=%f sequence=%f", overlapMs, sequenceMs)
	}
	w.sequenceMs, w.overlapMs, w.searchMs = sequenceMs, overlapMs, searchMs
	return nil
}

// Shift implements Shifter.
func (w *WSOLA) Shift(samples []float64, sampleRate float64, semitones int) ([]float64, error) {
	ratio, err := validate(sampleRate, semitones)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return []float64{}, nil
	}
	if math.Abs(ratio-1) <= identityEps {
		return append([]float64(nil), samples...), nil
	}

	g, err := w.geometry(sampleRate)
	if err != nil {
		return nil, err
	}
	stretched := g.stretch(samples, ratio)
	return resampleHermite(stretched, len(samples)), nil
}

// wsolaGeometry is the per-sample-rate window layout of one Shift call.
type wsolaGeometry struct {
	sequenceLen int
	overlapLen  int
	searchLen   int
	stepOut     int
	fadeIn      []float64
	fadeOut     []float64
}

func (w *WSOLA) geometry(sampleRate float64) (*wsolaGeometry, error) {
	g := &wsolaGeometry{
		sequenceLen: max(int(math.Round(w.sequenceMs*0.001*sampleRate)), 32),
		overlapLen:  max(int(math.Round(w.overlapMs*0.001*sampleRate)), 8),
		searchLen:   max(int(math.Round(w.searchMs*0.001*sampleRate)), 1),
	}
	if g.overlapLen >= g.sequenceLen {
		return nil, fmt.Errorf("wsola overlap too large for sequence: overlap=%d sequence=%d", g.overlapLen, g.sequenceLen)
	}
	g.stepOut = g.sequenceLen - g.overlapLen
	if g.stepOut < 4 {
		return nil, fmt.Errorf("wsola output hop too small: %d", g.stepOut)
	}

	g.fadeIn = make([]float64, g.overlapLen)
	g.fadeOut = make([]float64, g.overlapLen)
	for i := range g.overlapLen {
		t := float64(i) / float64(g.overlapLen-1)
		in := 0.5 - 0.5*math.Cos(math.Pi*t)
		g.fadeIn[i] = in
		g.fadeOut[i] = 1 - in
	}
	return g, nil
}

// stretch time-scales input by ratio: the result has round(len*ratio)
// samples at the original pitch.
func (g *wsolaGeometry) stretch(input []float64, ratio float64) []float64 {
	targetLen := max(int(math.Round(float64(len(input))*ratio)), 1)
	inStep := max(float64(g.stepOut)/ratio, 1)

	out := make([]float64, (targetLen/g.stepOut+4)*g.stepOut+g.sequenceLen+1)
	for i := range g.sequenceLen {
		out[i] = sampleZero(input, i)
	}

	outLen := g.sequenceLen
	prevStart := 0
	nominal := inStep
	ref := make([]float64, g.overlapLen)

	for outLen < targetLen+g.sequenceLen {
		// The natural continuation of the previous segment is the template
		// the next segment has to match.
		for i := range ref {
			ref[i] = sampleZero(input, prevStart+g.stepOut+i)
		}
		start := g.bestOverlap(ref, input, int(math.Round(nominal)))

		fadeAt := outLen - g.overlapLen
		for i := range g.overlapLen {
			out[fadeAt+i] = out[fadeAt+i]*g.fadeOut[i] + sampleZero(input, start+i)*g.fadeIn[i]
		}
		copyAt := fadeAt + g.overlapLen
		for i := g.overlapLen; i < g.sequenceLen; i++ {
			out[copyAt+i-g.overlapLen] = sampleZero(input, start+i)
		}

		outLen = fadeAt + g.sequenceLen
		prevStart = start
		nominal += inStep

		if prevStart > len(input)+g.sequenceLen && outLen >= targetLen {
			break
		}
	}

	if targetLen <= len(out) {
		return out[:targetLen]
	}
	padded := make([]float64, targetLen)
	copy(padded, out)
	return padded
}

// bestOverlap returns the candidate start within ±searchLen of predicted
// whose first overlapLen samples correlate best with ref.
func (g *wsolaGeometry) bestOverlap(ref, input []float64, predicted int) int {
	best := predicted
	bestScore := math.Inf(-1)

	refEnergy := tiny
	for _, v := range ref {
		refEnergy += v * v
	}

	for cand := predicted - g.searchLen; cand <= predicted+g.searchLen; cand++ {
		dot := 0.0
		candEnergy := tiny
		for i, rv := range ref {
			cv := sampleZero(input, cand+i)
			dot += rv * cv
			candEnergy += cv * cv
		}
		if score := dot / math.Sqrt(refEnergy*candEnergy); score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
