package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-chords/internal/ffmpeg"
	"github.com/cwbudde/algo-chords/pipeline"
	"github.com/cwbudde/algo-chords/report"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func inputFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))
	return path
}

func TestIntervalsMinor(t *testing.T) {
	assert := assert.New(t)

	out, _, err := execute(t, "intervals", "--key", "Am")
	require.NoError(t, err)

	assert.Contains(out, "key A minor")
	for _, row := range []string{`third\s+\+3`, `fifth\s+\+7`, `third_lower\s+-3`, `fifth_lower\s+-7`} {
		assert.Regexp(regexp.MustCompile(`(?m)^\s*`+row+`\s*$`), out)
	}
	assert.Contains(out, "per scale degree")
	// C is the third degree of A minor and takes a major third above it.
	assert.Regexp(regexp.MustCompile(`(?m)^\s*C\s+\+4\s+\+7\s+-4\s+-7\s*$`), out)
}

func TestIntervalsMajorDefault(t *testing.T) {
	out, _, err := execute(t, "intervals")
	require.NoError(t, err)
	assert.Contains(t, out, "key C major")
	assert.Regexp(t, regexp.MustCompile(`(?m)^\s*third\s+\+4\s*$`), out)
}

func TestIntervalsBadKey(t *testing.T) {
	_, _, err := execute(t, "intervals", "--key", "H#")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	assert := assert.New(t)

	out, _, err := execute(t, "--info", "--ffmpeg", "no-such-ffmpeg-binary")
	require.NoError(t, err)
	assert.Contains(out, runtime.GOOS+"/"+runtime.GOARCH)
	assert.Contains(out, "cpus")
	assert.Contains(out, "simd")
	assert.Contains(out, "not found (no-such-ffmpeg-binary)")
	assert.Contains(out, "htdemucs")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "version "+version)
}

func TestInputErrors(t *testing.T) {
	existing := inputFile(t)

	tests := []struct {
		name  string
		args  []string
		field string
		want  error
	}{
		{"no input", nil, "input", pipeline.ErrMissingInput},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.wav")}, "input", os.ErrNotExist},
		{"volume above range", []string{"--harmony-volume", "1.5", existing}, "harmony-volume", pipeline.ErrVolumeRange},
		{"negative volume", []string{"--harmony-volume=-0.1", existing}, "harmony-volume", pipeline.ErrVolumeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			var inErr *pipeline.InputError
			require.True(t, errors.As(err, &inErr), "error = %v", err)
			assert.Equal(t, tt.field, inErr.Field)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTooManyArguments(t *testing.T) {
	_, _, err := execute(t, "a.wav", "b.wav")
	assert.Error(t, err)
}

func TestProcessingFailure(t *testing.T) {
	input := inputFile(t)
	missing := filepath.Join(t.TempDir(), "ffprobe")

	for _, progress := range []bool{false, true} {
		args := []string{"--skip-separation", "--ffprobe", missing, input}
		if !progress {
			args = append([]string{"--no-progress"}, args...)
		}
		_, _, err := execute(t, args...)
		require.Error(t, err)
		assert.ErrorIs(t, err, ffmpeg.ErrNotFound)

		var inErr *pipeline.InputError
		assert.False(t, errors.As(err, &inErr), "collaborator failure reported as input error")
	}
}

func TestFlagDefaults(t *testing.T) {
	t.Setenv("CHORDS_DEMUCS_MODEL", "mdx_extra")
	t.Setenv("CHORDS_FFMPEG", "")

	cmd := newRootCmd()
	f := cmd.Flags()
	assert.Equal(t, "mdx_extra", f.Lookup("demucs-model").DefValue)
	assert.Equal(t, ffmpeg.DefaultFFmpeg, f.Lookup("ffmpeg").DefValue)
	assert.Equal(t, "third,fifth", f.Lookup("harmony").DefValue)
	assert.Equal(t, "0.6", f.Lookup("harmony-volume").DefValue)
	assert.True(t, f.Lookup("skip-separation").Hidden)
}

func TestBuildRequest(t *testing.T) {
	input := inputFile(t)
	o := &options{harmony: " third , fifth_lower", volume: 0.4, noReverb: true, skipSeparation: true}

	req, err := buildRequest(o, input)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "fifth_lower"}, req.Harmonies)
	assert.Equal(t, 0.4, req.HarmonyVolume)
	assert.False(t, req.AddReverb)
	assert.True(t, req.SkipSeparation)
	assert.Equal(t, pipeline.DefaultOutputPath(input), req.Output)
}

func TestNewPipelineStopsProgressOnError(t *testing.T) {
	var stderr bytes.Buffer
	progress := report.NewProgress(&stderr)

	_, err := newPipeline(nil, progress)
	require.ErrorIs(t, err, pipeline.ErrNoCodec)
	assert.True(t, progress.Stopped())

	// A stopped bar ignores further stages.
	progress.Report(report.StageLoad, "")
	assert.Equal(t, report.Stage(""), progress.Current())
}

func TestNewPipelineWithoutProgress(t *testing.T) {
	p, err := newPipeline([]pipeline.Option{pipeline.WithCodec(ffmpeg.New("", ""))}, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = newPipeline(nil, nil)
	assert.ErrorIs(t, err, pipeline.ErrNoCodec)
}
