package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cwbudde/algo-chords/dsp/buffer"
	"github.com/cwbudde/algo-chords/dsp/effectchain"
	"github.com/cwbudde/algo-chords/dsp/pitch"
	"github.com/cwbudde/algo-chords/harmony"
	"github.com/cwbudde/algo-chords/measure/chroma"
	"github.com/cwbudde/algo-chords/measure/pitchtrack"
	"github.com/cwbudde/algo-chords/report"
	"github.com/cwbudde/algo-chords/theory/key"
)

// ErrNoCodec is returned by New when no Codec option is given.
var ErrNoCodec = errors.New("pipeline: a codec is required")

// ErrNoSeparator is returned by Process when separation is requested but no
// Separator is configured.
var ErrNoSeparator = errors.New("pipeline: no separator configured")

// Stems is the output of source separation.
type Stems struct {
	Vocals        *buffer.Buffer
	Accompaniment *buffer.Buffer
}

// Separator splits a mix into vocals and accompaniment at the input's
// sample rate and channel layout.
type Separator interface {
	Separate(ctx context.Context, audio *buffer.Buffer, sampleRate int) (Stems, error)
}

// Codec reads and writes audio files.
type Codec interface {
	// Load decodes path at its native sample rate and channel count.
	Load(ctx context.Context, path string) (*buffer.Buffer, int, error)
	// Decode reads path converted to the given rate and channel count.
	Decode(ctx context.Context, path string, sampleRate, channels int) (*buffer.Buffer, error)
	// Save encodes buf to path; the format follows the extension.
	Save(ctx context.Context, buf *buffer.Buffer, path string, sampleRate int) error
}

// PitchDetector produces a pitch contour for a mono signal.
type PitchDetector interface {
	Detect(mono []float64, sampleRate float64) (pitchtrack.Contour, error)
}

var _ PitchDetector = (*pitchtrack.Tracker)(nil)

// Shifter is the pitch-shifting strategy handed to the harmony builder.
type Shifter = pitch.Shifter

// Result describes a finished run.
type Result struct {
	RunID      string
	Output     string
	SampleRate int
	Key        key.Info
	Tracks     []harmony.Track
	Contour    pitchtrack.Contour
	Mix        *buffer.Buffer
}

// Pipeline runs harmony requests. It holds no per-run state and may be
// used for several runs.
type Pipeline struct {
	codec      Codec
	separator  Separator
	detector   PitchDetector
	shifter    Shifter
	effects    effectchain.Processor
	reporter   report.Reporter
	logger     *slog.Logger
	chromaOpts []chroma.Option
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCodec sets the audio file codec. Required.
func WithCodec(c Codec) Option { return func(p *Pipeline) { p.codec = c } }

// WithSeparator sets the source separator.
func WithSeparator(s Separator) Option { return func(p *Pipeline) { p.separator = s } }

// WithPitchDetector replaces the default YIN tracker.
func WithPitchDetector(d PitchDetector) Option { return func(p *Pipeline) { p.detector = d } }

// WithShifter replaces the default WSOLA shifter.
func WithShifter(s Shifter) Option { return func(p *Pipeline) { p.shifter = s } }

// WithEffects replaces the harmony-bus effects chain.
func WithEffects(e effectchain.Processor) Option { return func(p *Pipeline) { p.effects = e } }

// WithReporter receives stage progress in addition to the log.
func WithReporter(r report.Reporter) Option { return func(p *Pipeline) { p.reporter = r } }

// WithLogger sets the base logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithChromaOptions tunes the key-detection chroma extractor.
func WithChromaOptions(opts ...chroma.Option) Option {
	return func(p *Pipeline) { p.chromaOpts = append(p.chromaOpts, opts...) }
}

// New builds a Pipeline.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		effects:  effectchain.HarmonyBus{},
		reporter: report.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.codec == nil {
		return nil, ErrNoCodec
	}
	if p.detector == nil {
		tr, err := pitchtrack.New()
		if err != nil {
			return nil, err
		}
		p.detector = tr
	}
	if p.shifter == nil {
		p.shifter = pitch.NewWSOLA()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}
