package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-chords/internal/testutil"
)

func TestNewCompressor(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		wantErr    bool
	}{
		{"valid 44100", 44100, false},
		{"valid 48000", 48000, false},
		{"invalid zero", 0, true},
		{"invalid negative", -1, true},
		{"invalid NaN", math.NaN(), true},
		{"invalid +Inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCompressor(tt.sampleRate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCompressor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && c == nil {
				t.Fatal("NewCompressor() returned nil without error")
			}
		})
	}
}

func TestCompressorDefaults(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"Threshold", c.Threshold(), -20},
		{"Ratio", c.Ratio(), 3},
		{"Attack", c.Attack(), 5},
		{"Release", c.Release(), 100},
		{"Knee", c.Knee(), 0},
		{"MakeupGain", c.MakeupGain(), 0},
		{"SampleRate", c.SampleRate(), 48000},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCompressorSettersValidate(t *testing.T) {
	c, _ := NewCompressor(48000)

	tests := []struct {
		name    string
		set     func() error
		wantErr bool
	}{
		{"ratio ok", func() error { return c.SetRatio(4) }, false},
		{"ratio below 1", func() error { return c.SetRatio(0.5) }, true},
		{"ratio NaN", func() error { return c.SetRatio(math.NaN()) }, true},
		{"threshold ok", func() error { return c.SetThreshold(-12) }, false},
		{"threshold Inf", func() error { return c.SetThreshold(math.Inf(-1)) }, true},
		{"knee ok", func() error { return c.SetKnee(6) }, false},
		{"knee too wide", func() error { return c.SetKnee(30) }, true},
		{"attack ok", func() error { return c.SetAttack(1) }, false},
		{"attack zero", func() error { return c.SetAttack(0) }, true},
		{"release ok", func() error { return c.SetRelease(250) }, false},
		{"release too long", func() error { return c.SetRelease(10000) }, true},
		{"makeup ok", func() error { return c.SetMakeupGain(3) }, false},
		{"makeup NaN", func() error { return c.SetMakeupGain(math.NaN()) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); (err != nil) != tt.wantErr {
				t.Fatalf("setter error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompressorStaticCurve(t *testing.T) {
	c, _ := NewCompressor(48000)

	// Below threshold: unity.
	if g := c.StaticGain(0.01); g != 1 {
		t.Fatalf("StaticGain(-40 dB) = %v, want 1", g)
	}

	// 12 dB over a -20 dB threshold at 3:1 leaves 4 dB over: 8 dB reduction.
	in := math.Pow(10, -8.0/20)
	wantDB := -8.0
	gotDB := 20 * math.Log10(c.StaticGain(in))
	if math.Abs(gotDB-wantDB) > 0.01 {
		t.Fatalf("gain at -8 dBFS = %.3f dB, want %.3f dB", gotDB, wantDB)
	}
}

func TestCompressorSoftKneeIsContinuous(t *testing.T) {
	c, _ := NewCompressor(48000)
	if err := c.SetKnee(6); err != nil {
		t.Fatal(err)
	}
	prev := c.StaticGain(math.Pow(10, -30.0/20))
	for db := -30.0; db <= 0; db += 0.25 {
		g := c.StaticGain(math.Pow(10, db/20))
		if g > prev+1e-12 {
			t.Fatalf("gain rises at %v dB: %v > %v", db, g, prev)
		}
		if math.Abs(g-prev) > 0.05 {
			t.Fatalf("gain jumps at %v dB: %v -> %v", db, prev, g)
		}
		prev = g
	}
}

func TestCompressorReducesLoudSine(t *testing.T) {
	c, _ := NewCompressor(44100)
	buf := testutil.DeterministicSine(220, 44100, 0.9, 44100)
	inRMS := testutil.RMS(buf[22050:])
	c.ProcessInPlace(buf)
	testutil.RequireFinite(t, buf)
	outRMS := testutil.RMS(buf[22050:])
	if outRMS >= inRMS*0.7 {
		t.Fatalf("RMS %v -> %v: expected clear reduction", inRMS, outRMS)
	}
}

func TestCompressorResetIsDeterministic(t *testing.T) {
	c, _ := NewCompressor(44100)
	in := testutil.DeterministicNoise(3, 0.8, 2048)

	a := append([]float64(nil), in...)
	c.ProcessInPlace(a)
	c.Reset()
	b := append([]float64(nil), in...)
	c.ProcessInPlace(b)

	testutil.RequireSliceNearlyEqual(t, a, b, 0)
}
