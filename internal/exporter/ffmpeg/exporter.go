// Package ffmpeg implements the export collaborator by shelling out to
// ffmpeg and ffprobe. The orchestrator never sees the process; it only
// drives the session returned by Submit.
package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/panuavakul/v-video-compressor-sub001/internal/compressor"
	"github.com/panuavakul/v-video-compressor-sub001/internal/config"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/logger"
)

const defaultVideoCodec = "libx264"

type Exporter struct {
	cfg    *config.Config
	logger logger.Logger
}

func NewExporter(cfg *config.Config, log logger.Logger) *Exporter {
	return &Exporter{cfg: cfg, logger: log}
}

// Submit starts an ffmpeg process for the render configuration and
// returns a session tracking it.
func (e *Exporter) Submit(ctx context.Context, cfg *compressor.RenderConfig) (compressor.ExportSession, error) {
	args := buildArgs(cfg)
	cmd := exec.CommandContext(ctx, e.cfg.FFmpeg.FFmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}
	e.logger.Debugf("ffmpeg started: %s %s", e.cfg.FFmpeg.FFmpegPath, strings.Join(args, " "))

	s := &session{
		cmd:        cmd,
		outputPath: cfg.OutputPath,
		duration:   effectiveDuration(cfg),
		done:       make(chan compressor.ExportOutcome, 1),
	}
	go s.readProgress(stdout)
	go s.wait(&stderr)
	return s, nil
}

// effectiveDuration is the trimmed window the export actually encodes.
func effectiveDuration(cfg *compressor.RenderConfig) float64 {
	start, end := 0.0, cfg.Duration
	if cfg.TrimStart != nil {
		start = *cfg.TrimStart
	}
	if cfg.TrimEnd != nil && *cfg.TrimEnd < end {
		end = *cfg.TrimEnd
	}
	if end <= start {
		return cfg.Duration
	}
	return end - start
}

// buildArgs translates the render configuration into an ffmpeg
// invocation. The upright rotation of the transform plan is not
// repeated here: ffmpeg applies the container's display matrix on
// decode, so the filter chain only handles scaling, padding, user
// rotation and brightness.
func buildArgs(cfg *compressor.RenderConfig) []string {
	args := []string{"-hide_banner", "-nostats"}

	if cfg.TrimStart != nil {
		args = append(args, "-ss", formatSeconds(*cfg.TrimStart))
	}
	args = append(args, "-i", cfg.SourcePath)
	if cfg.TrimEnd != nil {
		// Seeking before -i resets output timestamps to 0, so the end
		// bound must be expressed as a window length, not -to.
		start := 0.0
		if cfg.TrimStart != nil {
			start = *cfg.TrimStart
		}
		args = append(args, "-t", formatSeconds(*cfg.TrimEnd-start))
	}

	if filter := buildFilter(cfg); filter != "" {
		args = append(args, "-vf", filter)
	}

	codec := cfg.Codec
	if codec == "" {
		codec = defaultVideoCodec
	}
	args = append(args,
		"-c:v", codec,
		"-b:v", strconv.Itoa(int(cfg.VideoBitrate)),
	)
	if cfg.FrameRate != nil {
		args = append(args, "-r", strconv.FormatFloat(*cfg.FrameRate, 'f', -1, 64))
	}

	if cfg.RemoveAudio {
		args = append(args, "-an")
	} else {
		args = append(args,
			"-c:a", "aac",
			"-b:a", strconv.Itoa(int(cfg.AudioBitrate)),
		)
	}

	args = append(args,
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-y", cfg.OutputPath,
	)
	return args
}

func buildFilter(cfg *compressor.RenderConfig) string {
	plan := cfg.Plan
	if plan == nil {
		return ""
	}
	var parts []string

	w, h := plan.RenderSize.Width, plan.RenderSize.Height
	if w != plan.DisplaySize.Width || h != plan.DisplaySize.Height {
		parts = append(parts,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h),
		)
	}

	for _, step := range plan.Steps {
		if step.Name == "user_rotation" {
			angle := math.Atan2(step.Transform.B, step.Transform.A)
			parts = append(parts, fmt.Sprintf("rotate=%.6f", angle))
		}
	}

	if plan.Brightness != 1.0 {
		// TODO: map Contrast/Saturation onto eq= as well once their
		// response curves are settled.
		parts = append(parts, fmt.Sprintf("eq=brightness=%.4f", plan.Brightness-1))
	}

	return strings.Join(parts, ",")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// session is one running ffmpeg export.
type session struct {
	cmd        *exec.Cmd
	outputPath string
	duration   float64

	progressBits atomic.Uint64
	aborted      atomic.Bool
	abortOnce    sync.Once
	done         chan compressor.ExportOutcome
}

func (s *session) Progress() float64 {
	return math.Float64frombits(s.progressBits.Load())
}

// Abort requests a cooperative stop by killing the encoder process;
// wait turns the resulting exit error into a cancelled outcome.
func (s *session) Abort() {
	s.abortOnce.Do(func() {
		s.aborted.Store(true)
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
}

func (s *session) Done() <-chan compressor.ExportOutcome {
	return s.done
}

// readProgress consumes ffmpeg's key=value progress stream, updating
// the sampled fraction from out_time_us.
func (s *session) readProgress(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, found := strings.Cut(line, "=")
		if !found || key != "out_time_us" {
			continue
		}
		us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || s.duration <= 0 {
			continue
		}
		fraction := (float64(us) / 1e6) / s.duration
		if fraction > 1 {
			fraction = 1
		}
		s.progressBits.Store(math.Float64bits(fraction))
	}
}

func (s *session) wait(stderr *strings.Builder) {
	err := s.cmd.Wait()
	switch {
	case s.aborted.Load():
		s.done <- compressor.ExportOutcome{Cancelled: true}
	case err != nil:
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 2048 {
			detail = detail[len(detail)-2048:]
		}
		s.done <- compressor.ExportOutcome{Err: errors.Wrapf(err, "ffmpeg: %s", detail)}
	default:
		s.progressBits.Store(math.Float64bits(1.0))
		s.done <- compressor.ExportOutcome{OutputPath: s.outputPath}
	}
}
