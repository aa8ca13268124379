package key

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-chords/theory/tuning"
)

var (
	// ErrEmptySignal is returned when a chroma vector carries no energy.
	ErrEmptySignal = errors.New("key: chroma vector has no energy")

	// ErrInvalidChroma is returned for chroma data that is not twelve
	// finite, non-negative values.
	ErrInvalidChroma = errors.New("key: invalid chroma vector")
)

// Chroma is the aggregate energy of each pitch class, index 0 = C.
type Chroma [12]float64

// ChromaFromSlice copies a 12-element slice into a Chroma.
func ChromaFromSlice(v []float64) (Chroma, error) {
	var c Chroma
	if len(v) == 0 {
		return c, ErrEmptySignal
	}
	if len(v) != len(c) {
		return c, fmt.Errorf("%w: got %d bins, want 12", ErrInvalidChroma, len(v))
	}
	copy(c[:], v)
	return c, nil
}

// Sum returns the total energy.
func (c Chroma) Sum() float64 {
	s := 0.0
	for _, v := range c {
		s += v
	}
	return s
}

// Mode is the tonal quality of a key.
type Mode int

const (
	Major Mode = iota
	Minor
)

// String returns "major" or "minor".
func (m Mode) String() string {
	switch m {
	case Major:
		return "major"
	case Minor:
		return "minor"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "major"/"minor" (also "maj", "min", "M", "m").
func ParseMode(s string) (Mode, error) {
	switch s {
	case "major", "maj", "M", "":
		return Major, nil
	case "minor", "min", "m":
		return Minor, nil
	default:
		return Major, fmt.Errorf("key: unknown mode %q", s)
	}
}

// Semitone offsets of the seven scale degrees above the root.
var (
	MajorScale = [7]int{0, 2, 4, 5, 7, 9, 11}
	MinorScale = [7]int{0, 2, 3, 5, 7, 8, 10}
)

// Offsets returns the scale-degree offsets of m.
func (m Mode) Offsets() [7]int {
	if m == Minor {
		return MinorScale
	}
	return MajorScale
}

// Info is an estimated key.
type Info struct {
	Root       int // pitch class 0..11, 0 = C
	Mode       Mode
	Confidence float64 // share of chroma energy inside the scale, [0,1]
	Scale      [7]string
}

// RootName returns the pitch-class name of the root.
func (i Info) RootName() string { return tuning.PitchClassNames[i.Root] }

// Name renders the key in short form: "C", "F#m".
func (i Info) Name() string {
	if i.Mode == Minor {
		return i.RootName() + "m"
	}
	return i.RootName()
}

// Degree returns the position of pitch class pc relative to the root,
// in semitones 0..11.
func (i Info) Degree(pc int) int {
	d := (pc - i.Root) % 12
	if d < 0 {
		d += 12
	}
	return d
}

// New builds an Info for a known key with full confidence.
func New(root int, mode Mode) (Info, error) {
	if root < 0 || root > 11 {
		return Info{}, fmt.Errorf("key: root must be in [0, 11]: %d", root)
	}
	return Info{Root: root, Mode: mode, Confidence: 1, Scale: scaleNames(root, mode)}, nil
}

// Parse parses a short key name such as "C", "F#m" or "Bb minor".
func Parse(s string) (Info, error) {
	names := map[string]int{
		"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "F": 5,
		"F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
	}
	root, rest := s, ""
	for _, n := range []int{2, 1} {
		if len(s) >= n {
			if _, ok := names[s[:n]]; ok {
				root, rest = s[:n], s[n:]
				break
			}
		}
	}
	idx, ok := names[root]
	if !ok {
		return Info{}, fmt.Errorf("key: unknown root in %q", s)
	}
	for len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	mode, err := ParseMode(rest)
	if err != nil {
		return Info{}, err
	}
	return New(idx, mode)
}

// Estimate picks the major or minor key whose seven scale tones hold the
// most chroma energy.
//
// Candidates are visited root 0..11, major before minor, and only a strictly
// greater score replaces the current best, so ties go to the earliest
// candidate (C major beats C minor).
func Estimate(c Chroma) (Info, error) {
	for i, v := range c {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Info{}, fmt.Errorf("%w: bin %d = %v", ErrInvalidChroma, i, v)
		}
	}
	total := c.Sum()
	if total == 0 {
		return Info{}, ErrEmptySignal
	}
	if math.IsInf(total, 1) {
		// Finite bins can still overflow the sum. A common scale leaves
		// every score ratio unchanged.
		peak := 0.0
		for _, v := range c {
			peak = max(peak, v)
		}
		for i := range c {
			c[i] /= peak
		}
		total = c.Sum()
	}

	best := -1.0
	bestRoot, bestMode := 0, Major
	for root := range 12 {
		for _, mode := range [...]Mode{Major, Minor} {
			if s := score(c, root, mode); s > best {
				best, bestRoot, bestMode = s, root, mode
			}
		}
	}

	return Info{
		Root:       bestRoot,
		Mode:       bestMode,
		Confidence: min(best/total, 1),
		Scale:      scaleNames(bestRoot, bestMode),
	}, nil
}

func score(c Chroma, root int, mode Mode) float64 {
	s := 0.0
	for _, off := range mode.Offsets() {
		s += c[(root+off)%12]
	}
	return s
}

func scaleNames(root int, mode Mode) [7]string {
	var out [7]string
	for i, off := range mode.Offsets() {
		out[i] = tuning.PitchClassNames[(root+off)%12]
	}
	return out
}
