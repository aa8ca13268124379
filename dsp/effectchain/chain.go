package effectchain

import (
	"fmt"

	"github.com/cwbudde/algo-chords/dsp/buffer"
	"github.com/cwbudde/algo-chords/dsp/dynamics"
	"github.com/cwbudde/algo-chords/dsp/reverb"
)

// Context provides the signal format stages are built for.
type Context struct {
	SampleRate float64
	Channels   int
}

// Stage is one processor in the chain. Process works in place on planar
// channels of equal length.
type Stage interface {
	Name() string
	Process(channels [][]float64) error
}

// Processor applies an effects chain to a whole buffer and returns a new
// buffer of the same shape.
type Processor interface {
	Process(buf *buffer.Buffer, sampleRate float64, p Params) (*buffer.Buffer, error)
}

var _ Processor = HarmonyBus{}

// HarmonyBus runs compression then reverb. The order is fixed.
//
// Stages are built fresh for every call, so a HarmonyBus carries no state
// and can be shared.
type HarmonyBus struct{}

// Stages builds the chain for ctx in processing order.
func (HarmonyBus) Stages(ctx Context, p Params) ([]Stage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	comp, err := newCompressorStage(ctx, p.Compressor)
	if err != nil {
		return nil, err
	}
	rev, err := reverb.New(ctx.SampleRate, ctx.Channels, p.Reverb)
	if err != nil {
		return nil, fmt.Errorf("effectchain: %w", err)
	}
	return []Stage{comp, reverbStage{rev}}, nil
}

// Process implements Processor.
func (h HarmonyBus) Process(buf *buffer.Buffer, sampleRate float64, p Params) (*buffer.Buffer, error) {
	out := buf.Clone()
	stages, err := h.Stages(Context{SampleRate: sampleRate, Channels: out.Channels()}, p)
	if err != nil {
		return nil, err
	}

	chans := make([][]float64, out.Channels())
	for c := range chans {
		chans[c] = out.Channel(c)
	}
	for _, s := range stages {
		if err := s.Process(chans); err != nil {
			return nil, fmt.Errorf("effectchain: %s: %w", s.Name(), err)
		}
	}
	return out, nil
}

// compressorStage runs one compressor per channel.
type compressorStage struct {
	perChannel []*dynamics.Compressor
}

func newCompressorStage(ctx Context, p CompressorParams) (*compressorStage, error) {
	s := &compressorStage{perChannel: make([]*dynamics.Compressor, ctx.Channels)}
	for c := range s.perChannel {
		comp, err := dynamics.NewCompressor(ctx.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("effectchain: %w", err)
		}
		for _, set := range []func() error{
			func() error { return comp.SetThreshold(p.ThresholdDB) },
			func() error { return comp.SetRatio(p.Ratio) },
			func() error { return comp.SetAttack(p.AttackMs) },
			func() error { return comp.SetRelease(p.ReleaseMs) },
		} {
			if err := set(); err != nil {
				return nil, fmt.Errorf("effectchain: %w", err)
			}
		}
		s.perChannel[c] = comp
	}
	return s, nil
}

func (s *compressorStage) Name() string { return "compressor" }

func (s *compressorStage) Process(channels [][]float64) error {
	if len(channels) != len(s.perChannel) {
		return fmt.Errorf("expected %d channels, got %d", len(s.perChannel), len(channels))
	}
	for c, ch := range channels {
		s.perChannel[c].ProcessInPlace(ch)
	}
	return nil
}

type reverbStage struct {
	r *reverb.Freeverb
}

func (reverbStage) Name() string { return "reverb" }

func (s reverbStage) Process(channels [][]float64) error {
	return s.r.ProcessInPlace(channels)
}
