// Package estimator predicts output size and bitrate for a compression
// request before any export is committed. The model is closed-form and
// does no I/O, so callers can run it freely from UI code.
package estimator

import (
	"math"

	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
)

const (
	// Custom render targets scale bitrate by the pixel ratio; the model
	// tends to be optimistic there, so the scaled bitrate is bumped by
	// 10% to compensate.
	pixelRatioCorrection = 1.1
	// Tier bitrates assume a 30fps source.
	referenceFrameRate = 30.0
	// Container muxing overhead on top of the raw stream estimate.
	containerOverhead = 1.05
)

// Estimate predicts the output byte size, compression ratio and video
// bitrate for compressing the given source with the given spec.
func Estimate(src models.SourceVideoProperties, spec models.CompressionSpec) models.SizeEstimate {
	videoBitrate := spec.ResolveVideoBitrate()

	if spec.HasCustomDimensions() && src.NaturalWidth > 0 && src.NaturalHeight > 0 {
		pixelRatio := float64((*spec.CustomWidth)*(*spec.CustomHeight)) /
			float64(src.NaturalWidth*src.NaturalHeight)
		videoBitrate *= pixelRatio * pixelRatioCorrection
	}

	if spec.FrameRate != nil && *spec.FrameRate < referenceFrameRate {
		videoBitrate *= *spec.FrameRate / referenceFrameRate
	}

	audioBitrate := spec.ResolveAudioBitrate()

	estimatedBytes := math.Floor((videoBitrate + audioBitrate) * src.Duration / 8)
	estimatedBytes = math.Floor(estimatedBytes * containerOverhead)

	ratio := 0.0
	if src.FileSize > 0 {
		ratio = estimatedBytes / float64(src.FileSize)
	}

	return models.SizeEstimate{
		EstimatedBytes:   int64(estimatedBytes),
		CompressionRatio: ratio,
		BitrateMbps:      videoBitrate / 1_000_000,
	}
}
