// Package pitchtrack estimates the fundamental-frequency contour of a
// monophonic signal with the YIN algorithm (de Cheveigné & Kawahara 2002).
//
// Frames are centred on a fixed time grid. For every frame the cumulative
// mean normalized difference function d′(τ) is evaluated through an
// FFT-based autocorrelation; the first dip below the absolute threshold is
// refined by parabolic interpolation. Confidence is 1 − d′ at the chosen lag
// and frames below the voicing confidence report frequency 0.
package pitchtrack
