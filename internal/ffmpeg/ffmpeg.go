// Package ffmpeg reads and writes audio files through the ffmpeg and
// ffprobe command-line tools. Samples cross the process boundary as raw
// little-endian float64.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-chords/dsp/buffer"
)

// ErrNotFound is returned when a tool binary cannot be resolved.
var ErrNotFound = errors.New("ffmpeg: executable not found")

// ErrNoAudioStream is returned when ffprobe finds no audio stream.
var ErrNoAudioStream = errors.New("ffmpeg: no audio stream")

const (
	DefaultFFmpeg  = "ffmpeg"
	DefaultFFprobe = "ffprobe"
)

// ProbeInfo describes the first audio stream of a file.
type ProbeInfo struct {
	SampleRate int
	Channels   int
	Codec      string
	Duration   float64
}

// Codec runs ffmpeg and ffprobe. The zero value is not usable; use New.
type Codec struct {
	ffmpeg  string
	ffprobe string
}

// New returns a Codec for the given binaries; empty names select the
// defaults on PATH.
func New(ffmpegBin, ffprobeBin string) *Codec {
	if ffmpegBin == "" {
		ffmpegBin = DefaultFFmpeg
	}
	if ffprobeBin == "" {
		ffprobeBin = DefaultFFprobe
	}
	return &Codec{ffmpeg: ffmpegBin, ffprobe: ffprobeBin}
}

// Probe reads the sample rate and channel count of path.
func (c *Codec) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	out, err := run(ctx, c.ffprobe, ProbeArgs(path), nil)
	if err != nil {
		return ProbeInfo{}, err
	}
	return parseProbe(out)
}

// Load decodes path at its native rate and channel count.
func (c *Codec) Load(ctx context.Context, path string) (*buffer.Buffer, int, error) {
	info, err := c.Probe(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	buf, err := c.Decode(ctx, path, info.SampleRate, info.Channels)
	if err != nil {
		return nil, 0, err
	}
	return buf, info.SampleRate, nil
}

// Decode converts path to the given sample rate and channel count.
func (c *Codec) Decode(ctx context.Context, path string, sampleRate, channels int) (*buffer.Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("ffmpeg: invalid decode format %d Hz x %d", sampleRate, channels)
	}
	out, err := run(ctx, c.ffmpeg, DecodeArgs(path, sampleRate, channels), nil)
	if err != nil {
		return nil, err
	}
	return buffer.FromInterleaved(decodeF64LE(out), channels)
}

// Save encodes buf to path, choosing the encoder from the extension.
// Missing parent directories are created.
func (c *Codec) Save(ctx context.Context, buf *buffer.Buffer, path string, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("ffmpeg: invalid sample rate %d", sampleRate)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ffmpeg: %w", err)
		}
	}
	_, err := run(ctx, c.ffmpeg, EncodeArgs(path, sampleRate, buf.Channels()), encodeF64LE(buf.Interleaved()))
	return err
}

// ProbeArgs builds the ffprobe arguments for path.
func ProbeArgs(path string) []string {
	return []string{"-v", "error", "-select_streams", "a:0", "-show_streams", "-of", "json", path}
}

// DecodeArgs builds the ffmpeg arguments that write path to stdout as
// interleaved f64le.
func DecodeArgs(path string, sampleRate, channels int) []string {
	return []string{
		"-hide_banner", "-v", "error",
		"-i", path,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-f", "f64le", "pipe:1",
	}
}

// EncodeArgs builds the ffmpeg arguments that read f64le from stdin and
// write path.
func EncodeArgs(path string, sampleRate, channels int) []string {
	args := []string{
		"-hide_banner", "-v", "error", "-y",
		"-f", "f64le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-i", "pipe:0",
	}
	args = append(args, EncoderFor(path)...)
	return append(args, path)
}

// EncoderFor returns the codec arguments for the extension of path.
// Unknown extensions get 16-bit PCM.
func EncoderFor(path string) []string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return []string{"-c:a", "libmp3lame", "-q:a", "2"}
	case ".flac":
		return []string{"-c:a", "flac"}
	case ".m4a", ".aac":
		return []string{"-c:a", "aac", "-b:a", "192k"}
	case ".ogg":
		return []string{"-c:a", "libvorbis"}
	default:
		return []string{"-c:a", "pcm_s16le"}
	}
}

func parseProbe(data []byte) (ProbeInfo, error) {
	var ff struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(data, &ff); err != nil {
		return ProbeInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	for _, s := range ff.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, err := strconv.Atoi(s.SampleRate)
		if err != nil || rate <= 0 || s.Channels <= 0 {
			return ProbeInfo{}, fmt.Errorf("ffprobe: bad stream format rate=%q channels=%d", s.SampleRate, s.Channels)
		}
		dur, _ := strconv.ParseFloat(s.Duration, 64)
		return ProbeInfo{SampleRate: rate, Channels: s.Channels, Codec: s.CodecName, Duration: dur}, nil
	}
	return ProbeInfo{}, ErrNoAudioStream
}

// run executes bin and returns its stdout. stderr is folded into the
// error.
func run(ctx context.Context, bin string, args []string, stdin []byte) ([]byte, error) {
	path, err := LookPath(bin)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(bin), err, msg)
	}
	return stdout.Bytes(), nil
}

// LookPath resolves bin like exec.LookPath, wrapping failures in
// ErrNotFound.
func LookPath(bin string) (string, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, bin, err)
	}
	return path, nil
}

func decodeF64LE(data []byte) []float64 {
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out
}

func encodeF64LE(samples []float64) []byte {
	out := make([]byte, len(samples)*8)
	for i, v := range samples {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}
