package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/panuavakul/v-video-compressor-sub001/internal/compressor"
	"github.com/panuavakul/v-video-compressor-sub001/internal/geometry"
	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
)

// Probe captures the source properties snapshot for a media file:
// natural dimensions, duration, file size and the orientation encoded
// in the track's display matrix.
func (e *Exporter) Probe(ctx context.Context, path string) (*models.SourceVideoProperties, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(compressor.ErrInvalidInput, "source not readable: %v", err)
	}

	width, height, err := e.probeDimensions(ctx, path)
	if err != nil {
		return nil, err
	}

	duration, err := e.probeDuration(ctx, path)
	if err != nil {
		return nil, err
	}

	rotation := e.probeRotation(ctx, path)

	return &models.SourceVideoProperties{
		Path:          path,
		NaturalWidth:  width,
		NaturalHeight: height,
		Transform:     geometry.RotationBy(float64(rotation)),
		Duration:      duration,
		FileSize:      info.Size(),
	}, nil
}

func (e *Exporter) probeDimensions(ctx context.Context, path string) (int, int, error) {
	cmd := exec.CommandContext(ctx, e.cfg.FFmpeg.FFprobePath,
		"-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height", "-of", "csv=p=0", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, 0, errors.Wrapf(compressor.ErrInvalidInput, "ffprobe: %v output: %s", err, output)
	}

	trimmed := strings.TrimRight(strings.TrimSpace(string(output)), ",")
	if trimmed == "" {
		return 0, 0, compressor.ErrNoVideoTrack
	}
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return 0, 0, errors.Wrapf(compressor.ErrNoVideoTrack, "unexpected ffprobe output: %s", trimmed)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width: %w", err)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height: %w", err)
	}
	return width, height, nil
}

func (e *Exporter) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.cfg.FFmpeg.FFprobePath,
		"-v", "error", "-show_entries", "format=duration", "-of", "csv=p=0", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, errors.Wrapf(compressor.ErrInvalidInput, "ffprobe duration: %v", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	return duration, nil
}

// probeRotation reads the display-matrix rotation side data. Sources
// without one read as 0; the value is normalized so a -90 tag (the
// common portrait phone recording) comes out as 270.
func (e *Exporter) probeRotation(ctx context.Context, path string) int {
	cmd := exec.CommandContext(ctx, e.cfg.FFmpeg.FFprobePath,
		"-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream_side_data=rotation", "-of", "csv=p=0", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0
	}
	trimmed := strings.TrimRight(strings.TrimSpace(string(output)), ",")
	if trimmed == "" {
		return 0
	}
	rotation, err := strconv.Atoi(trimmed)
	if err != nil {
		e.logger.Warnf("unparseable rotation side data %q for %s", trimmed, path)
		return 0
	}
	return ((rotation % 360) + 360) % 360
}
