package demucs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/cwbudde/algo-chords/dsp/buffer"
	"github.com/cwbudde/algo-chords/internal/testutil"
)

// fileCodec writes a marker file on Save and returns a constant buffer per
// stem on Decode.
type fileCodec struct {
	saved   []string
	decoded []string
}

func (f *fileCodec) Save(_ context.Context, _ *buffer.Buffer, path string, _ int) error {
	f.saved = append(f.saved, path)
	return os.WriteFile(path, []byte("wav"), 0o600)
}

func (f *fileCodec) Decode(_ context.Context, path string, _, channels int) (*buffer.Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f.decoded = append(f.decoded, filepath.Base(path))
	v := 0.25
	if filepath.Base(path) == restStem {
		v = -0.25
	}
	return testutil.DCBuffer(v, channels, 16), nil
}

func TestArgs(t *testing.T) {
	got := Args("htdemucs", "/tmp/x", "/tmp/x/input.wav")
	want := []string{"--two-stems=vocals", "-n", "htdemucs", "-o", "/tmp/x", "/tmp/x/input.wav"}
	if !slices.Equal(got, want) {
		t.Fatalf("Args() = %v, want %v", got, want)
	}
	if got := StemDir("/o", "mdx", "/s/input.wav"); got != filepath.Join("/o", "mdx", "input") {
		t.Fatalf("StemDir() = %q", got)
	}
}

func TestOptions(t *testing.T) {
	s := New("", &fileCodec{}, WithModel("mdx_extra"))
	if s.Model() != "mdx_extra" || s.bin != DefaultBinary {
		t.Fatalf("New() = %+v", s)
	}
	if New("x", nil, WithModel("")).Model() != DefaultModel {
		t.Fatal("empty model overrode the default")
	}
}

func TestSeparateMissingBinary(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "no-demucs"), &fileCodec{})
	_, err := s.Separate(context.Background(), buffer.New(2, 16), 44100)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Separate() error = %v, want ErrNotFound", err)
	}
}

func fakeDemucs(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "demucs")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o700); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSeparateWithStandIn(t *testing.T) {
	// $3 is the model, $5 the output directory.
	bin := fakeDemucs(t, `mkdir -p "$5/$3/input" && touch "$5/$3/input/vocals.wav" "$5/$3/input/no_vocals.wav"`)
	scratch := t.TempDir()
	codec := &fileCodec{}
	s := New(bin, codec, WithTempDir(scratch))

	stems, err := s.Separate(context.Background(), buffer.New(2, 16), 44100)
	if err != nil {
		t.Fatalf("Separate() error = %v", err)
	}
	if stems.Vocals.Channels() != 2 || stems.Vocals.Channel(0)[0] != 0.25 {
		t.Fatalf("vocals = %v", stems.Vocals.Channel(0))
	}
	if stems.Accompaniment.Channel(1)[0] != -0.25 {
		t.Fatalf("accompaniment = %v", stems.Accompaniment.Channel(1))
	}
	if !slices.Equal(codec.decoded, []string{vocalsStem, restStem}) {
		t.Fatalf("decoded = %v", codec.decoded)
	}
	if len(codec.saved) != 1 || filepath.Base(codec.saved[0]) != "input.wav" {
		t.Fatalf("saved = %v", codec.saved)
	}
	left, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("scratch directory not cleaned: %v", left)
	}
}

func TestSeparateFailureReportsStderr(t *testing.T) {
	bin := fakeDemucs(t, "echo 'loading model' >&2\necho 'model not found' >&2\nexit 3")
	scratch := t.TempDir()
	s := New(bin, &fileCodec{}, WithTempDir(scratch))

	_, err := s.Separate(context.Background(), buffer.New(1, 16), 44100)
	if err == nil {
		t.Fatal("Separate() succeeded with failing demucs")
	}
	if got := err.Error(); !containsAll(got, "demucs", "model not found") {
		t.Fatalf("error = %q", got)
	}
	if left, _ := os.ReadDir(scratch); len(left) != 0 {
		t.Fatalf("scratch directory not cleaned after failure: %v", left)
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"one", "one"},
		{"a\nb\nc\n", "c"},
	}
	for _, tt := range tests {
		if got := lastLine(tt.in); got != tt.want {
			t.Errorf("lastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
