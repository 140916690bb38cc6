package geometry

// Encoders pad frames up to their macroblock size internally; encoding
// at dimensions that are not a multiple of 16 can leave visible smears
// along the bottom/right edges. Alignment keeps the render size on a
// safe boundary instead.
const macroblockSize = 16

// Align16 snaps a dimension down to the nearest multiple of 16.
// Dimensions below 16 collapse to 0; callers treat that as "source too
// small to align", not as an error.
func Align16(dimension int) int {
	if dimension < 0 {
		return 0
	}
	return (dimension / macroblockSize) * macroblockSize
}

// AlignUp16 snaps a dimension up to the nearest multiple of 16. Used by
// the letterbox policy, which pads rather than crops.
func AlignUp16(dimension int) int {
	if dimension <= 0 {
		return 0
	}
	if rem := dimension % macroblockSize; rem != 0 {
		return dimension + macroblockSize - rem
	}
	return dimension
}
