package compressor

import (
	"context"

	"github.com/panuavakul/v-video-compressor-sub001/internal/geometry"
	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
)

// RenderConfig is everything the export collaborator needs to produce
// the output file: resolved geometry, codec and bitrate choices, trim
// range and audio handling.
type RenderConfig struct {
	SourcePath string
	OutputPath string
	Plan       *geometry.TransformPlan

	// Duration is the source duration in seconds; exporters use it to
	// turn elapsed output time into a progress fraction.
	Duration float64

	Codec        string
	VideoBitrate float64
	FrameRate    *float64
	TrimStart    *float64
	TrimEnd      *float64

	// RemoveAudio makes the exporter operate on a video-only view of
	// the source instead of the full source.
	RemoveAudio  bool
	AudioBitrate float64
}

// ExportOutcome is the terminal signal of an export session. Exactly
// one of the three shapes occurs: success (Err nil, Cancelled false),
// failure (Err set), or cancellation (Cancelled true).
type ExportOutcome struct {
	OutputPath string
	Err        error
	Cancelled  bool
}

// ExportSession is a running export. Progress is sampled by the
// orchestrator; Abort requests a cooperative stop, which the session
// may take bounded time to honor. Done fires exactly once.
type ExportSession interface {
	Progress() float64
	Abort()
	Done() <-chan ExportOutcome
}

// Exporter is the opaque native export capability. The orchestrator
// only ever submits a configuration and drives the returned session,
// so tests can substitute a deterministic fake.
type Exporter interface {
	Submit(ctx context.Context, cfg *RenderConfig) (ExportSession, error)
}

// SourceProber inspects a media file and captures its source
// properties snapshot. A file with no video stream yields
// ErrNoVideoTrack.
type SourceProber interface {
	Probe(ctx context.Context, path string) (*models.SourceVideoProperties, error)
}
