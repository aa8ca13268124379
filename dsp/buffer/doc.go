// Package buffer provides the planar multichannel sample container shared by
// the harmony, mixing and codec packages. DSP kernels keep working on raw
// []float64 channels; Buffer only groups them and keeps their lengths equal.
package buffer
