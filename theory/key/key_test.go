package key

import (
	"errors"
	"math"
	"testing"
)

func chromaOf(pcs ...int) Chroma {
	var c Chroma
	for _, pc := range pcs {
		c[pc%12]++
	}
	return c
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		chroma   Chroma
		wantName string
		wantConf float64
	}{
		{"D major scale", chromaOf(2, 4, 6, 7, 9, 11, 1), "D", 1},
		// G major and E minor share one pitch set; E minor is visited first.
		{"G major set resolves to relative minor", chromaOf(7, 9, 11, 0, 2, 4, 6), "Em", 1},
		// C major is visited before A minor.
		{"C major set", chromaOf(0, 2, 4, 5, 7, 9, 11), "C", 1},
		{"single pitch class", chromaOf(9), "C", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Estimate(tt.chroma)
			if err != nil {
				t.Fatalf("Estimate() error = %v", err)
			}
			if got.Name() != tt.wantName {
				t.Errorf("Estimate().Name() = %q, want %q", got.Name(), tt.wantName)
			}
			if math.Abs(got.Confidence-tt.wantConf) > 1e-12 {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestEstimateTieBreakMajorBeforeMinor(t *testing.T) {
	// C D F G are shared by C major and C minor.
	got, err := Estimate(chromaOf(0, 2, 5, 7))
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if got.Root != 0 || got.Mode != Major {
		t.Fatalf("Estimate() = %s, want C major", got.Name())
	}
}

func TestEstimateEmptySignal(t *testing.T) {
	got, err := Estimate(Chroma{})
	if !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("Estimate(zero) error = %v, want ErrEmptySignal", err)
	}
	if math.IsNaN(got.Confidence) {
		t.Fatal("Estimate(zero) returned NaN confidence")
	}
}

func TestEstimateRejectsInvalidBins(t *testing.T) {
	tests := []struct {
		name string
		v    float64
	}{
		{"negative", -1},
		{"NaN", math.NaN()},
		{"Inf", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chromaOf(0, 4, 7)
			c[3] = tt.v
			if _, err := Estimate(c); !errors.Is(err, ErrInvalidChroma) {
				t.Fatalf("Estimate() error = %v, want ErrInvalidChroma", err)
			}
		})
	}
}

func TestEstimateDeterministicAndBounded(t *testing.T) {
	seeds := []Chroma{
		{0.9, 0.1, 0.4, 0.05, 0.7, 0.3, 0.02, 0.8, 0.1, 0.5, 0.03, 0.2},
		{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.1, 0.11, 0.12},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	for _, c := range seeds {
		a, err := Estimate(c)
		if err != nil {
			t.Fatalf("Estimate() error = %v", err)
		}
		b, _ := Estimate(c)
		if a != b {
			t.Fatalf("Estimate not deterministic: %+v vs %+v", a, b)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Fatalf("Confidence = %v out of [0,1]", a.Confidence)
		}
		if a.Root < 0 || a.Root > 11 {
			t.Fatalf("Root = %d out of range", a.Root)
		}
	}
}

func TestEstimateOverflowingTotal(t *testing.T) {
	huge := math.MaxFloat64 / 4

	var flat Chroma
	for i := range flat {
		flat[i] = huge
	}
	small := chromaOf(9, 11, 0, 2, 4, 5, 7, 9, 4)
	var loud Chroma
	for i, v := range small {
		loud[i] = v * huge / 2
	}

	tests := []struct {
		name string
		c    Chroma
		want Chroma
	}{
		{"flat", flat, Chroma{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
		{"weighted", loud, small},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Estimate(tt.c)
			if err != nil {
				t.Fatalf("Estimate() error = %v", err)
			}
			if math.IsNaN(got.Confidence) || got.Confidence < 0 || got.Confidence > 1 {
				t.Fatalf("Confidence = %v, want within [0,1]", got.Confidence)
			}
			want, err := Estimate(tt.want)
			if err != nil {
				t.Fatalf("Estimate(reference) error = %v", err)
			}
			if got.Root != want.Root || got.Mode != want.Mode {
				t.Fatalf("key = %s, want %s", got.Name(), want.Name())
			}
			if math.Abs(got.Confidence-want.Confidence) > 1e-12 {
				t.Fatalf("Confidence = %v, want %v", got.Confidence, want.Confidence)
			}
		})
	}
}

func TestEstimateScaleNotes(t *testing.T) {
	c := chromaOf(9, 11, 0, 2, 4, 5, 7)
	c[9] += 0.5
	got, err := Estimate(c)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	// C major still wins: its set is identical and it is visited first.
	want := [7]string{"C", "D", "E", "F", "G", "A", "B"}
	if got.Scale != want {
		t.Fatalf("Scale = %v, want %v", got.Scale, want)
	}

	minor, _ := New(9, Minor)
	wantMinor := [7]string{"A", "B", "C", "D", "E", "F", "G"}
	if minor.Scale != wantMinor {
		t.Fatalf("A minor scale = %v, want %v", minor.Scale, wantMinor)
	}
}

func TestChromaFromSlice(t *testing.T) {
	if _, err := ChromaFromSlice(nil); !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("ChromaFromSlice(nil) error = %v, want ErrEmptySignal", err)
	}
	if _, err := ChromaFromSlice(make([]float64, 11)); !errors.Is(err, ErrInvalidChroma) {
		t.Fatalf("ChromaFromSlice(11) error = %v, want ErrInvalidChroma", err)
	}
	c, err := ChromaFromSlice([]float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2})
	if err != nil || c[11] != 2 {
		t.Fatalf("ChromaFromSlice() = %v, %v", c, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"C", "C", false},
		{"Am", "Am", false},
		{"F#m", "F#m", false},
		{"Bb minor", "A#m", false},
		{"Eb", "D#", false},
		{"H", "", true},
		{"C lydian", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.Name() != tt.want {
				t.Fatalf("Parse(%q).Name() = %q, want %q", tt.in, got.Name(), tt.want)
			}
		})
	}
}

func TestDegree(t *testing.T) {
	k, _ := New(9, Minor)
	if got := k.Degree(0); got != 3 {
		t.Fatalf("Degree(C) in A minor = %d, want 3", got)
	}
	if got := k.Degree(9); got != 0 {
		t.Fatalf("Degree(A) in A minor = %d, want 0", got)
	}
}
