package pitch

import "math"

// resampleHermite maps input onto outLen samples spanning the same
// first-to-last range, using 4-point Hermite interpolation.
func resampleHermite(input []float64, outLen int) []float64 {
	if outLen <= 0 || len(input) == 0 {
		return make([]float64, max(outLen, 0))
	}

	out := make([]float64, outLen)
	if len(input) == 1 || outLen == 1 {
		for i := range out {
			out[i] = input[0]
		}
		return out
	}

	step := float64(len(input)-1) / float64(outLen-1)
	for i := range out {
		out[i] = sampleHermite(input, float64(i)*step)
	}
	return out
}

func sampleHermite(input []float64, pos float64) float64 {
	idx := int(math.Floor(pos))
	t := pos - float64(idx)
	xm1 := sampleClamp(input, idx-1)
	x0 := sampleClamp(input, idx)
	x1 := sampleClamp(input, idx+1)
	x2 := sampleClamp(input, idx+2)

	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + x0
}

func sampleZero(x []float64, idx int) float64 {
	if idx < 0 || idx >= len(x) {
		return 0
	}
	return x[idx]
}

func sampleClamp(x []float64, idx int) float64 {
	if idx < 0 {
		return x[0]
	}
	if idx >= len(x) {
		return x[len(x)-1]
	}
	return x[idx]
}

// fitLength copies in into a slice of exactly n samples, zero-padding or
// truncating the tail.
func fitLength(in []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, in)
	return out
}
