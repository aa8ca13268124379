// Package interval maps harmony requests to signed semitone offsets.
//
// Thirds follow the key mode (major third in major keys, minor third in
// minor keys); fifths are always perfect. Diminished fifths are not
// modelled.
package interval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-chords/theory/key"
)

// ErrUnknownHarmonyType is returned by Parse for labels outside the table.
var ErrUnknownHarmonyType = errors.New("interval: unknown harmony type")

// Harmony identifies a harmony voice relative to the melody.
type Harmony int

const (
	Unknown Harmony = iota
	Third
	Fifth
	ThirdLower
	FifthLower
)

// All lists the recognised harmonies in table order.
var All = [...]Harmony{Third, Fifth, ThirdLower, FifthLower}

var labels = map[Harmony]string{
	Third:      "third",
	Fifth:      "fifth",
	ThirdLower: "third_lower",
	FifthLower: "fifth_lower",
}

var byLabel = func() map[string]Harmony {
	m := make(map[string]Harmony, len(labels))
	for h, l := range labels {
		m[l] = h
	}
	return m
}()

// String returns the CLI label, or "unknown".
func (h Harmony) String() string {
	if l, ok := labels[h]; ok {
		return l
	}
	return "unknown"
}

// Lower reports whether the voice sits below the melody.
func (h Harmony) Lower() bool { return h == ThirdLower || h == FifthLower }

// Parse resolves a label such as "third" or " Fifth_Lower ".
func Parse(label string) (Harmony, error) {
	if h, ok := byLabel[strings.ToLower(strings.TrimSpace(label))]; ok {
		return h, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownHarmonyType, label)
}

// SplitList splits a comma-separated label list, trimming whitespace.
// Labels are not validated here; unknown ones surface when they are parsed.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// For returns the semitone offset of h in a key of mode m. The bool is
// false for Unknown.
func For(h Harmony, m key.Mode) (int, bool) {
	switch h {
	case Third:
		return thirdFor(m), true
	case ThirdLower:
		return -thirdFor(m), true
	case Fifth:
		return 7, true
	case FifthLower:
		return -7, true
	default:
		return 0, false
	}
}

// ForDegree returns the offset for a melody note at the given scale degree
// (semitones above the tonic, 0..11). Thirds take a major or minor quality
// per degree instead of per key; fifths are unchanged.
//
// Track building uses For; this table is exposed for inspection only.
func ForDegree(h Harmony, m key.Mode, degree int) (int, bool) {
	degree %= 12
	if degree < 0 {
		degree += 12
	}
	third := 3
	if majorThirdDegrees[m][degree] {
		third = 4
	}
	switch h {
	case Third:
		return third, true
	case ThirdLower:
		return -third, true
	default:
		return For(h, m)
	}
}

var majorThirdDegrees = map[key.Mode]map[int]bool{
	key.Major: {0: true, 5: true, 7: true},
	key.Minor: {3: true, 8: true, 10: true},
}

func thirdFor(m key.Mode) int {
	if m == key.Minor {
		return 3
	}
	return 4
}
