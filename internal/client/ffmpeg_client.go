package client

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/makeasinger/mashup/internal/config"
)

var commandContext = exec.CommandContext

// AudioProcessor defines the trim/concat capability used to build a mashup
type AudioProcessor interface {
	Trim(ctx context.Context, inputPath, outputPath string, seconds int) error
	Concat(ctx context.Context, manifestPath, outputPath string) error
	Probe(ctx context.Context, path string) (float64, error)
}

// FFmpeg settings for the trim and concat steps
const (
	TrimAudioCodec = "mp3"
	ffmpegLogLevel = "error"
)

// FFmpegClient implements AudioProcessor by shelling out to ffmpeg and ffprobe
type FFmpegClient struct {
	ffmpeg  string
	ffprobe string
}

// NewFFmpegClient creates a client using the configured binaries
func NewFFmpegClient(cfg *config.ToolsConfig) *FFmpegClient {
	c := &FFmpegClient{ffmpeg: "ffmpeg", ffprobe: "ffprobe"}
	if cfg != nil {
		if cfg.FFmpeg != "" {
			c.ffmpeg = cfg.FFmpeg
		}
		if cfg.FFprobe != "" {
			c.ffprobe = cfg.FFprobe
		}
	}
	return c
}

// Trim re-encodes the first seconds of inputPath into outputPath.
// Shorter inputs pass through at their own length.
func (c *FFmpegClient) Trim(ctx context.Context, inputPath, outputPath string, seconds int) error {
	if inputPath == "" || outputPath == "" {
		return errors.New("trim: input and output paths required")
	}
	if seconds <= 0 {
		return fmt.Errorf("trim: invalid duration %d", seconds)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", ffmpegLogLevel,
		"-i", inputPath,
		"-vn",
		"-t", strconv.Itoa(seconds),
		"-acodec", TrimAudioCodec,
		outputPath,
	}
	return c.run(ctx, "ffmpeg trim", c.ffmpeg, args)
}

// Concat stream-copies every file listed in the manifest into outputPath
func (c *FFmpegClient) Concat(ctx context.Context, manifestPath, outputPath string) error {
	if manifestPath == "" || outputPath == "" {
		return errors.New("concat: manifest and output paths required")
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", ffmpegLogLevel,
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outputPath,
	}
	return c.run(ctx, "ffmpeg concat", c.ffmpeg, args)
}

// Probe returns the duration of an audio file in seconds
func (c *FFmpegClient) Probe(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", ffmpegLogLevel,
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	}
	cmd := commandContext(ctx, c.ffprobe, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	value := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration %q: %w", value, err)
	}
	return duration, nil
}

func (c *FFmpegClient) run(ctx context.Context, op, binary string, args []string) error {
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", op, err, strings.TrimSpace(string(output)))
	}
	return nil
}
