// Package demucs separates vocals from accompaniment by running the demucs
// command-line tool in two-stem mode.
package demucs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-chords/dsp/buffer"
	"github.com/cwbudde/algo-chords/pipeline"
)

const (
	DefaultBinary = "demucs"
	DefaultModel  = "htdemucs"

	inputName  = "input"
	vocalsStem = "vocals.wav"
	restStem   = "no_vocals.wav"
)

// ErrNotFound is returned when the demucs binary cannot be resolved.
var ErrNotFound = errors.New("demucs: executable not found")

// Codec writes the scratch input and reads the stems back.
type Codec interface {
	Decode(ctx context.Context, path string, sampleRate, channels int) (*buffer.Buffer, error)
	Save(ctx context.Context, buf *buffer.Buffer, path string, sampleRate int) error
}

var _ pipeline.Separator = (*Separator)(nil)

// Separator runs demucs in a per-call scratch directory.
type Separator struct {
	bin     string
	model   string
	tempDir string
	codec   Codec
}

// Option configures a Separator.
type Option func(*Separator)

// WithModel selects the pretrained model passed to -n.
func WithModel(name string) Option {
	return func(s *Separator) {
		if name != "" {
			s.model = name
		}
	}
}

// WithTempDir sets where scratch directories are created; the default is
// os.TempDir().
func WithTempDir(dir string) Option { return func(s *Separator) { s.tempDir = dir } }

// New returns a Separator running bin; empty selects "demucs" on PATH.
func New(bin string, codec Codec, opts ...Option) *Separator {
	if bin == "" {
		bin = DefaultBinary
	}
	s := &Separator{bin: bin, model: DefaultModel, codec: codec}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the configured model name.
func (s *Separator) Model() string { return s.model }

// Args builds the demucs command line for one input file.
func Args(model, outDir, input string) []string {
	return []string{"--two-stems=vocals", "-n", model, "-o", outDir, input}
}

// StemDir is where demucs writes the stems of input under outDir.
func StemDir(outDir, model, input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, model, stem)
}

// Separate implements pipeline.Separator. The stems are decoded at
// sampleRate with the channel count of audio.
func (s *Separator) Separate(ctx context.Context, audio *buffer.Buffer, sampleRate int) (pipeline.Stems, error) {
	bin, err := exec.LookPath(s.bin)
	if err != nil {
		return pipeline.Stems{}, fmt.Errorf("%w: %s: %w", ErrNotFound, s.bin, err)
	}

	dir := filepath.Join(s.tempDir, "chords-"+uuid.NewString())
	if s.tempDir == "" {
		dir = filepath.Join(os.TempDir(), "chords-"+uuid.NewString())
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return pipeline.Stems{}, fmt.Errorf("demucs: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, inputName+".wav")
	if err := s.codec.Save(ctx, audio, input, sampleRate); err != nil {
		return pipeline.Stems{}, fmt.Errorf("demucs: writing input: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, Args(s.model, dir, input)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pipeline.Stems{}, ctxErr
		}
		return pipeline.Stems{}, fmt.Errorf("demucs: %w: %s", err, lastLine(stderr.String()))
	}

	stems := StemDir(dir, s.model, input)
	vocals, err := s.codec.Decode(ctx, filepath.Join(stems, vocalsStem), sampleRate, audio.Channels())
	if err != nil {
		return pipeline.Stems{}, fmt.Errorf("demucs: reading vocals: %w", err)
	}
	rest, err := s.codec.Decode(ctx, filepath.Join(stems, restStem), sampleRate, audio.Channels())
	if err != nil {
		return pipeline.Stems{}, fmt.Errorf("demucs: reading accompaniment: %w", err)
	}
	return pipeline.Stems{Vocals: vocals, Accompaniment: rest}, nil
}

// lastLine keeps error messages short; demucs prints progress bars to
// stderr.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
