package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-chords/dsp/buffer"
	"github.com/cwbudde/algo-chords/harmony"
	"github.com/cwbudde/algo-chords/measure/chroma"
	"github.com/cwbudde/algo-chords/mix"
	"github.com/cwbudde/algo-chords/report"
	"github.com/cwbudde/algo-chords/theory/key"
)

// Process runs req through all six stages and writes the mix to
// req.Output. Request problems are returned as *InputError; collaborator
// failures are wrapped with the stage name.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.SkipSeparation && p.separator == nil {
		return nil, ErrNoSeparator
	}

	runID := uuid.New().String()
	logger := p.logger.With("run", runID)
	rep := report.Multi{report.NewLog(logger), p.reporter}
	started := time.Now()
	logger.Debug("starting run", "input", req.Input, "output", req.Output, "harmonies", req.Harmonies, "shifter", p.shifter.Name())

	// load
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.Report(report.StageLoad, "loading "+req.Input)
	audio, sampleRate, err := p.codec.Load(ctx, req.Input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("load: invalid sample rate %d", sampleRate)
	}
	sr := float64(sampleRate)
	logger.Debug("loaded", "sample_rate", sampleRate, "channels", audio.Channels(), "seconds", float64(audio.Len())/sr)

	// separate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var stems Stems
	if req.SkipSeparation {
		rep.Report(report.StageSeparate, "separation skipped, accompaniment is silent")
		stems = Stems{Vocals: audio, Accompaniment: buffer.New(audio.Channels(), audio.Len())}
	} else {
		rep.Report(report.StageSeparate, "separating vocals from accompaniment")
		stems, err = p.separator.Separate(ctx, audio, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("separate: %w", err)
		}
		if stems.Vocals == nil || stems.Accompaniment == nil {
			return nil, fmt.Errorf("separate: %w", buffer.ErrNoChannels)
		}
	}
	mono := stems.Vocals.Mono()

	// pitch
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contour, err := p.detector.Detect(mono, sr)
	if err != nil {
		return nil, fmt.Errorf("pitch: %w", err)
	}
	rep.Report(report.StagePitch, fmt.Sprintf("pitch tracked, %d of %d frames voiced", contour.Voiced(), contour.Len()))

	// key
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := p.estimateKey(mono, sr)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	rep.Report(report.StageKey, fmt.Sprintf("detected key %s (confidence %.2f%%)", k.Name(), k.Confidence*100))

	// harmony
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracks, err := harmony.NewBuilder(p.shifter, rep).Build(stems.Vocals, sr, &k, req.Harmonies)
	if err != nil {
		return nil, err
	}
	rep.Report(report.StageHarmony, fmt.Sprintf("%d harmony tracks", len(tracks)))

	// mix and save
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings := mix.DefaultSettings()
	settings.HarmonyGain = req.HarmonyVolume
	settings.AddEffects = req.AddReverb
	out, err := mix.NewMixer(p.effects).Mix(stems.Vocals, tracks, stems.Accompaniment, sr, settings)
	if err != nil {
		return nil, err
	}
	if err := p.codec.Save(ctx, out, req.Output, sampleRate); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	rep.Report(report.StageMix, "saved "+req.Output)
	logger.Debug("run finished", "elapsed", time.Since(started))

	return &Result{
		RunID:      runID,
		Output:     req.Output,
		SampleRate: sampleRate,
		Key:        k,
		Tracks:     tracks,
		Contour:    contour,
		Mix:        out,
	}, nil
}

func (p *Pipeline) estimateKey(mono []float64, sampleRate float64) (key.Info, error) {
	ex, err := chroma.New(sampleRate, p.chromaOpts...)
	if err != nil {
		return key.Info{}, err
	}
	c, err := ex.Compute(mono)
	if err != nil {
		return key.Info{}, err
	}
	return key.Estimate(c)
}
