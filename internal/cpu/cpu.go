// Package cpu reports the SIMD extensions of the host processor for the
// command-line --info output.
package cpu

import (
	"runtime"
	"strings"
	"sync"
)

// Level names a SIMD extension. Levels are ordered within an architecture
// only.
type Level int

const (
	None Level = iota
	SSE2
	AVX
	AVX2
	AVX512
	NEON
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case SSE2:
		return "SSE2"
	case AVX:
		return "AVX"
	case AVX2:
		return "AVX2"
	case AVX512:
		return "AVX-512"
	case NEON:
		return "NEON"
	default:
		return "unknown"
	}
}

// Features is the detected extension set.
type Features struct {
	Arch      string
	HasSSE2   bool
	HasAVX    bool
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool
}

// Has reports whether level is available. None is always available.
func (f Features) Has(level Level) bool {
	switch level {
	case None:
		return true
	case SSE2:
		return f.HasSSE2
	case AVX:
		return f.HasAVX
	case AVX2:
		return f.HasAVX2
	case AVX512:
		return f.HasAVX512
	case NEON:
		return f.HasNEON
	}
	return false
}

// Levels lists the available extensions, weakest first.
func (f Features) Levels() []Level {
	var out []Level
	for _, l := range []Level{SSE2, AVX, AVX2, AVX512, NEON} {
		if f.Has(l) {
			out = append(out, l)
		}
	}
	return out
}

// Best returns the strongest available extension.
func (f Features) Best() Level {
	levels := f.Levels()
	if len(levels) == 0 {
		return None
	}
	return levels[len(levels)-1]
}

// String formats the set as "amd64: SSE2 AVX AVX2".
func (f Features) String() string {
	levels := f.Levels()
	if len(levels) == 0 {
		return f.Arch + ": " + None.String()
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return f.Arch + ": " + strings.Join(names, " ")
}

var detect = sync.OnceValue(func() Features {
	f := detectFeatures()
	f.Arch = runtime.GOARCH
	return f
})

// Detect returns the host features. Detection runs once per process.
func Detect() Features { return detect() }
