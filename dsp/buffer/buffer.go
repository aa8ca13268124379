package buffer

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrRaggedChannels is returned when channels of unequal length are
	// combined into one Buffer.
	ErrRaggedChannels = errors.New("buffer: channels differ in length")

	// ErrNoChannels is returned when a Buffer would have zero channels.
	ErrNoChannels = errors.New("buffer: at least one channel is required")
)

// Buffer holds planar multichannel audio: one []float64 per channel, all of
// equal length. Frame i of the buffer is the set of samples at index i of
// every channel.
//
// Operations that produce audio return new Buffers; the receiver is never
// mutated unless the method name says so (InPlace).
type Buffer struct {
	channels [][]float64
}

// New returns a zero-filled Buffer with the given channel count and length.
// A channel count below one is raised to one.
func New(channels, frames int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	if frames < 0 {
		frames = 0
	}
	b := &Buffer{channels: make([][]float64, channels)}
	for i := range b.channels {
		b.channels[i] = make([]float64, frames)
	}
	return b
}

// FromChannels wraps the given channel slices without copying.
func FromChannels(channels ...[]float64) (*Buffer, error) {
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}
	n := len(channels[0])
	for i, ch := range channels[1:] {
		if len(ch) != n {
			return nil, fmt.Errorf("%w: channel %d has %d samples, want %d", ErrRaggedChannels, i+1, len(ch), n)
		}
	}
	return &Buffer{channels: channels}, nil
}

// FromMono wraps a single channel without copying.
func FromMono(samples []float64) *Buffer {
	return &Buffer{channels: [][]float64{samples}}
}

// FromInterleaved de-interleaves samples laid out as frame-major
// (L R L R ...) into a new Buffer. Trailing samples that do not form a
// complete frame are dropped.
func FromInterleaved(samples []float64, channels int) (*Buffer, error) {
	if channels < 1 {
		return nil, ErrNoChannels
	}
	frames := len(samples) / channels
	b := New(channels, frames)
	for i := range frames {
		base := i * channels
		for c := range channels {
			b.channels[c][i] = samples[base+c]
		}
	}
	return b, nil
}

// Channels returns the number of channels.
func (b *Buffer) Channels() int { return len(b.channels) }

// Len returns the number of frames.
func (b *Buffer) Len() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// Channel returns the samples of channel c. The slice aliases the buffer.
func (b *Buffer) Channel(c int) []float64 { return b.channels[c] }

// Interleaved returns the samples in frame-major order.
func (b *Buffer) Interleaved() []float64 {
	nch := len(b.channels)
	out := make([]float64, b.Len()*nch)
	for c, ch := range b.channels {
		for i, v := range ch {
			out[i*nch+c] = v
		}
	}
	return out
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	return b.Truncate(b.Len())
}

// Truncate returns a deep copy holding the first n frames. n is clamped to
// [0, Len()].
func (b *Buffer) Truncate(n int) *Buffer {
	n = max(0, min(n, b.Len()))
	out := &Buffer{channels: make([][]float64, len(b.channels))}
	for c, ch := range b.channels {
		out.channels[c] = append([]float64(nil), ch[:n]...)
	}
	return out
}

// Mono returns the per-frame mean across channels.
func (b *Buffer) Mono() []float64 {
	out := make([]float64, b.Len())
	if len(b.channels) == 1 {
		copy(out, b.channels[0])
		return out
	}
	scale := 1 / float64(len(b.channels))
	for _, ch := range b.channels {
		for i, v := range ch {
			out[i] += v
		}
	}
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Peak returns the largest absolute sample value over all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.channels {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// SameShape reports whether o has the same channel count and length as b.
func (b *Buffer) SameShape(o *Buffer) bool {
	return o != nil && b.Channels() == o.Channels() && b.Len() == o.Len()
}
