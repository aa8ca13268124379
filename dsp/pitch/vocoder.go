package pitch

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-chords/dsp/window"
)

const (
	defaultVocoderFrameSize = 2048
	minVocoderFrameSize     = 64
	normFloor               = 1e-12
)

// Vocoder shifts pitch in the frequency domain: an STFT phase vocoder with
// identity phase locking (Laroche & Dolson 1999) stretches the signal by
// the pitch ratio, then the result is resampled back to the input length.
//
// The realised ratio is quantised to synthesisHop/analysisHop, with the
// analysis hop fixed at a quarter frame.
type Vocoder struct {
	frameSize int
	hop       int
	window    []float64
}

// NewVocoder returns a phase-vocoder shifter. frameSize must be a power of
// two and at least 64.
func NewVocoder(frameSize int) (*Vocoder, error) {
	if frameSize < minVocoderFrameSize || frameSize&(frameSize-1) != 0 {
		return nil, fmt.Errorf("vocoder frame size must be power-of-two and >= %d: %d", minVocoderFrameSize, frameSize)
	}
	return &Vocoder{
		frameSize: frameSize,
		hop:       frameSize / 4,
		window:    window.Generate(window.TypeHann, frameSize, window.WithPeriodic()),
	}, nil
}

// Name implements Shifter.
func (v *Vocoder) Name() string { return string(BackendVocoder) }

// FrameSize returns the FFT length.
func (v *Vocoder) FrameSize() int { return v.frameSize }

// Shift implements Shifter.
func (v *Vocoder) Shift(samples []float64, sampleRate float64, semitones int) ([]float64, error) {
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

	synthesisHop := max(int(math.Round(float64(v.hop)*ratio)), 1)
	stretched, err := v.stretch(samples, synthesisHop)
	if err != nil {
		return nil, err
	}

	useful := int(math.Round(float64(len(samples)) * float64(synthesisHop) / float64(v.hop)))
	return resampleHermite(fitLength(stretched, max(useful, 1)), len(samples)), nil
}

func (v *Vocoder) stretch(input []float64, synthesisHop int) ([]float64, error) {
	plan, err := algofft.NewPlan64(v.frameSize)
	if err != nil {
		return nil, fmt.Errorf("vocoder: failed to create FFT plan: %w", err)
	}

	n := v.frameSize
	half := n / 2
	bins := half + 1
	anaHop := float64(v.hop)
	synHop := float64(synthesisHop)

	omega := make([]float64, bins)
	for k := range omega {
		omega[k] = 2 * math.Pi * float64(k) / float64(n)
	}
	prevPhase := make([]float64, bins)
	sumPhase := make([]float64, bins)
	mag := make([]float64, bins)
	instFreq := make([]float64, bins)
	peaks := make([]int, 0, bins)

	spectrum := make([]complex128, n)
	frame := make([]complex128, n)

	frameCount := 1 + (len(input)-1)/v.hop
	outLen := (frameCount-1)*synthesisHop + n
	out := make([]float64, outLen)
	norm := make([]float64, outLen)

	for f := range frameCount {
		inPos := f * v.hop
		outPos := f * synthesisHop

		for i := range n {
			spectrum[i] = complex(sampleZero(input, inPos+i)*v.window[i], 0)
		}
		if err := plan.Forward(spectrum, spectrum); err != nil {
			return nil, fmt.Errorf("vocoder: forward FFT failed: %w", err)
		}

		for k := range bins {
			re, im := real(spectrum[k]), imag(spectrum[k])
			mag[k] = math.Hypot(re, im)
			phase := math.Atan2(im, re)
			delta := wrapPhase(phase - prevPhase[k] - omega[k]*anaHop)
			instFreq[k] = omega[k] + delta/anaHop
			prevPhase[k] = phase
		}

		peaks = peaks[:0]
		for k := 1; k < half; k++ {
			if mag[k] >= mag[k-1] && mag[k] > mag[k+1] {
				peaks = append(peaks, k)
			}
		}

		if len(peaks) == 0 {
			for k := range bins {
				sumPhase[k] += instFreq[k] * synHop
			}
		} else {
			for _, pk := range peaks {
				sumPhase[pk] += instFreq[pk] * synHop
			}
			// Bins follow the phase of their nearest peak, keeping the
			// original phase offset to it.
			p := 0
			for k := range bins {
				for p+1 < len(peaks) && absInt(peaks[p+1]-k) < absInt(peaks[p]-k) {
					p++
				}
				if pk := peaks[p]; k != pk {
					sumPhase[k] = sumPhase[pk] + (prevPhase[k] - prevPhase[pk])
				}
			}
		}

		for k := range bins {
			spectrum[k] = complex(mag[k]*math.Cos(sumPhase[k]), mag[k]*math.Sin(sumPhase[k]))
		}
		spectrum[0] = complex(real(spectrum[0]), 0)
		spectrum[half] = complex(real(spectrum[half]), 0)
		for k := 1; k < half; k++ {
			spectrum[n-k] = complex(real(spectrum[k]), -imag(spectrum[k]))
		}

		if err := plan.Inverse(frame, spectrum); err != nil {
			return nil, fmt.Errorf("vocoder: inverse FFT failed: %w", err)
		}

		for i := range n {
			w := v.window[i]
			out[outPos+i] += real(frame[i]) * w
			norm[outPos+i] += w * w
		}
	}

	for i := range out {
		if norm[i] > normFloor {
			out[i] /= norm[i]
		}
	}
	return out, nil
}

func wrapPhase(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return x - math.Pi
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
