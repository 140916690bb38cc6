package models

import (
	"fmt"

	"github.com/panuavakul/v-video-compressor-sub001/internal/geometry"
)

// SourceVideoProperties is an immutable snapshot of an input video,
// captured once when a job is accepted.
type SourceVideoProperties struct {
	Path          string          `json:"path" validate:"required"`
	NaturalWidth  int             `json:"natural_width" validate:"required,gt=0"`
	NaturalHeight int             `json:"natural_height" validate:"required,gt=0"`
	Transform     geometry.Affine `json:"transform"`
	Duration      float64         `json:"duration" validate:"required,gt=0"`
	FileSize      int64           `json:"file_size" validate:"gte=0"`
}

// NaturalSize returns the track's pixel dimensions before any
// orientation metadata is applied.
func (s SourceVideoProperties) NaturalSize() geometry.Size {
	return geometry.Size{Width: s.NaturalWidth, Height: s.NaturalHeight}
}

// FormatResolution renders a size as "1920x1080" for result reporting.
func FormatResolution(size geometry.Size) string {
	return fmt.Sprintf("%dx%d", size.Width, size.Height)
}
