package models

import (
	"fmt"

	"github.com/panuavakul/v-video-compressor-sub001/internal/geometry"
)

// Quality is the user-facing compression tier, ordered
// High > Medium > Low > VeryLow > UltraLow.
type Quality string

const (
	QualityHigh     Quality = "high"
	QualityMedium   Quality = "medium"
	QualityLow      Quality = "low"
	QualityVeryLow  Quality = "very_low"
	QualityUltraLow Quality = "ultra_low"
)

// DefaultVideoBitrate returns the tier's fixed video bitrate in bits
// per second. Unknown tiers fall back to medium.
func (q Quality) DefaultVideoBitrate() float64 {
	switch q {
	case QualityHigh:
		return 3_500_000
	case QualityMedium:
		return 1_800_000
	case QualityLow:
		return 500_000
	case QualityVeryLow:
		return 300_000
	case QualityUltraLow:
		return 200_000
	default:
		return 1_800_000
	}
}

func (q Quality) Valid() bool {
	switch q {
	case QualityHigh, QualityMedium, QualityLow, QualityVeryLow, QualityUltraLow:
		return true
	}
	return false
}

const DefaultAudioBitrate = 128_000

// CompressionSpec is the user-chosen quality tier plus optional
// overrides. Zero-valued pointers mean "use the tier default".
type CompressionSpec struct {
	Quality Quality `json:"quality" validate:"required"`

	VideoBitrate *float64 `json:"video_bitrate,omitempty" validate:"omitempty,gt=0"`
	Codec        string   `json:"codec,omitempty"`
	FrameRate    *float64 `json:"frame_rate,omitempty" validate:"omitempty,gt=0"`

	TrimStart *float64 `json:"trim_start,omitempty" validate:"omitempty,gte=0"`
	TrimEnd   *float64 `json:"trim_end,omitempty" validate:"omitempty,gt=0"`

	RemoveAudio  bool     `json:"remove_audio,omitempty"`
	AudioBitrate *float64 `json:"audio_bitrate,omitempty" validate:"omitempty,gt=0"`

	Brightness float64 `json:"brightness,omitempty" validate:"gte=-1,lte=1"`
	Contrast   float64 `json:"contrast,omitempty"`
	Saturation float64 `json:"saturation,omitempty"`

	Rotation int `json:"rotation,omitempty"`

	CustomWidth  *int                     `json:"custom_width,omitempty" validate:"omitempty,gt=0"`
	CustomHeight *int                     `json:"custom_height,omitempty" validate:"omitempty,gt=0"`
	Policy       geometry.DimensionPolicy `json:"policy,omitempty"`
}

// HasCustomDimensions reports whether an explicit render target was
// requested. Validate rejects specs with only one of the pair set.
func (s CompressionSpec) HasCustomDimensions() bool {
	return s.CustomWidth != nil && s.CustomHeight != nil
}

// RenderTarget converts the spec's dimension fields into a geometry
// target, defaulting the policy to auto alignment.
func (s CompressionSpec) RenderTarget() geometry.Target {
	policy := s.Policy
	if policy == "" {
		policy = geometry.PolicyAutoAlign
	}
	return geometry.Target{
		Width:  s.CustomWidth,
		Height: s.CustomHeight,
		Policy: policy,
	}
}

// ResolveVideoBitrate returns the override when present, otherwise the
// tier default.
func (s CompressionSpec) ResolveVideoBitrate() float64 {
	if s.VideoBitrate != nil {
		return *s.VideoBitrate
	}
	return s.Quality.DefaultVideoBitrate()
}

// ResolveAudioBitrate returns 0 when audio is removed, the override
// when present, otherwise the default audio bitrate.
func (s CompressionSpec) ResolveAudioBitrate() float64 {
	if s.RemoveAudio {
		return 0
	}
	if s.AudioBitrate != nil {
		return *s.AudioBitrate
	}
	return DefaultAudioBitrate
}

// Validate applies the cross-field rules struct tags cannot express.
func (s CompressionSpec) Validate() error {
	if !s.Quality.Valid() {
		return fmt.Errorf("unknown quality tier %q", s.Quality)
	}
	if (s.CustomWidth == nil) != (s.CustomHeight == nil) {
		return fmt.Errorf("custom width and height must be given together")
	}
	if s.TrimStart != nil && s.TrimEnd != nil && *s.TrimStart >= *s.TrimEnd {
		return fmt.Errorf("trim start %.3f must be before trim end %.3f", *s.TrimStart, *s.TrimEnd)
	}
	switch s.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("rotation must be one of 0, 90, 180, 270, got %d", s.Rotation)
	}
	switch s.Policy {
	case "", geometry.PolicyAutoAlign, geometry.PolicyLetterbox, geometry.PolicyExact:
	default:
		return fmt.Errorf("unknown dimension policy %q", s.Policy)
	}
	return nil
}
