package geometry

import "math"

// Rotation is a canonical track orientation in degrees.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// IsPortrait reports whether the rotation swaps the displayed
// width and height.
func (r Rotation) IsPortrait() bool {
	return r == Rotate90 || r == Rotate270
}

// DetectRotation derives the canonical orientation encoded in a track's
// preferred transform. Recording devices only ever write the four
// canonical rotations; anything else reads as the nearest one, with 0
// winning ties at exactly 45 degrees off axis.
func DetectRotation(t Affine) Rotation {
	radians := math.Atan2(t.B, t.A)
	degrees := radians * 180 / math.Pi
	normalized := math.Mod(math.Mod(degrees, 360)+360, 360)

	// Snap to the nearest canonical value; 315..360 wraps back to 0.
	snapped := math.Mod(math.Round(normalized/90)*90, 360)
	return Rotation(int(snapped))
}

// IsCanonical reports whether the transform's rotation component sits
// exactly on one of the four canonical angles.
func IsCanonical(t Affine) bool {
	radians := math.Atan2(t.B, t.A)
	degrees := radians * 180 / math.Pi
	normalized := math.Mod(math.Mod(degrees, 360)+360, 360)
	return math.Abs(normalized-math.Round(normalized/90)*90) < 1e-6
}
