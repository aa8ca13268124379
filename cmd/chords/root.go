package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-chords/dsp/pitch"
	"github.com/cwbudde/algo-chords/internal/demucs"
	"github.com/cwbudde/algo-chords/internal/ffmpeg"
	"github.com/cwbudde/algo-chords/pipeline"
	"github.com/cwbudde/algo-chords/report"
	"github.com/cwbudde/algo-chords/theory/interval"
)

var version = "dev"

type options struct {
	output         string
	harmony        string
	volume         float64
	noReverb       bool
	skipSeparation bool
	info           bool
	shifter        string
	noProgress     bool
	debug          bool

	ffmpeg      string
	ffprobe     string
	demucs      string
	demucsModel string
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	def := pipeline.NewRequest("")
	o := &options{}

	cmd := &cobra.Command{
		Use:           "chords [flags] input",
		Short:         "Add vocal harmonies to a song",
		Long:          "chords separates the vocals of a song, generates pitch-shifted harmony voices in the detected key and mixes them back in.",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.info {
				return printInfo(cmd.OutOrStdout(), o)
			}
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return run(cmd, o, input)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "output path (default <dir>/<stem>_harmony<ext>)")
	f.StringVar(&o.harmony, "harmony", "third,fifth", "comma-separated harmony voices: third, fifth, third_lower, fifth_lower")
	f.Float64Var(&o.volume, "harmony-volume", def.HarmonyVolume, "harmony level in [0, 1]")
	f.BoolVar(&o.noReverb, "no-reverb", false, "skip compression and reverb on the harmony bus")
	f.BoolVar(&o.skipSeparation, "skip-separation", false, "treat the input as dry vocals")
	f.BoolVar(&o.info, "info", false, "print environment information and exit")
	f.StringVar(&o.shifter, "shifter", string(pitch.BackendWSOLA), "pitch shifting backend: wsola or vocoder")
	f.BoolVar(&o.noProgress, "no-progress", false, "disable the progress bar")
	f.BoolVar(&o.debug, "debug", false, "enable debug logging")
	f.StringVar(&o.ffmpeg, "ffmpeg", envOr("CHORDS_FFMPEG", ffmpeg.DefaultFFmpeg), "ffmpeg binary ($CHORDS_FFMPEG)")
	f.StringVar(&o.ffprobe, "ffprobe", envOr("CHORDS_FFPROBE", ffmpeg.DefaultFFprobe), "ffprobe binary ($CHORDS_FFPROBE)")
	f.StringVar(&o.demucs, "demucs", envOr("CHORDS_DEMUCS", demucs.DefaultBinary), "demucs binary ($CHORDS_DEMUCS)")
	f.StringVar(&o.demucsModel, "demucs-model", envOr("CHORDS_DEMUCS_MODEL", demucs.DefaultModel), "demucs model ($CHORDS_DEMUCS_MODEL)")
	_ = f.MarkHidden("skip-separation")

	cmd.AddCommand(newIntervalsCmd())
	return cmd
}

// initLogger builds the run logger. With the progress bar active only
// warnings are logged so the bar stays readable.
func initLogger(w io.Writer, debug, progress bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case debug:
		level = slog.LevelDebug
	case progress:
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(logger)
	return logger
}

func buildRequest(o *options, input string) (pipeline.Request, error) {
	req := pipeline.NewRequest(input)
	req.Output = o.output
	req.Harmonies = interval.SplitList(o.harmony)
	req.HarmonyVolume = o.volume
	req.AddReverb = !o.noReverb
	req.SkipSeparation = o.skipSeparation
	if err := req.Validate(); err != nil {
		return pipeline.Request{}, err
	}
	return req, nil
}

func run(cmd *cobra.Command, o *options, input string) error {
	req, err := buildRequest(o, input)
	if err != nil {
		return err
	}

	logger := initLogger(cmd.ErrOrStderr(), o.debug, !o.noProgress)

	shifter, err := pitch.Select(pitch.Backend(o.shifter))
	if err != nil {
		return err
	}
	if shifter.Name() != o.shifter {
		logger.Warn("pitch backend unavailable, falling back", "requested", o.shifter, "using", shifter.Name())
	}

	codec := ffmpeg.New(o.ffmpeg, o.ffprobe)
	opts := []pipeline.Option{
		pipeline.WithCodec(codec),
		pipeline.WithShifter(shifter),
		pipeline.WithLogger(logger),
	}
	if !req.SkipSeparation {
		opts = append(opts, pipeline.WithSeparator(demucs.New(o.demucs, codec, demucs.WithModel(o.demucsModel))))
	}

	var progress *report.Progress
	if !o.noProgress {
		progress = report.NewProgress(cmd.ErrOrStderr())
		opts = append(opts, pipeline.WithReporter(progress))
	}

	p, err := newPipeline(opts, progress)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := p.Process(ctx, req)
	if progress != nil {
		if err != nil {
			progress.Abort()
		} else {
			progress.Finish()
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "key: %s (confidence %.0f%%)\n", res.Key.Name(), res.Key.Confidence*100)
	for _, t := range res.Tracks {
		fmt.Fprintf(cmd.OutOrStdout(), "voice: %s (%+d semitones)\n", t.Harmony, t.Semitones)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved: %s\n", res.Output)
	return nil
}

// newPipeline builds the pipeline and stops progress if that fails, so the
// bar's render goroutine never outlives the command.
func newPipeline(opts []pipeline.Option, progress *report.Progress) (*pipeline.Pipeline, error) {
	p, err := pipeline.New(opts...)
	if err != nil {
		if progress != nil {
			progress.Abort()
		}
		return nil, err
	}
	return p, nil
}
