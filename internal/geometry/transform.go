package geometry

// Size is a pixel dimension pair.
type Size struct {
	Width  int
	Height int
}

// DimensionPolicy decides how a requested render size is reconciled
// with the encoder's macroblock alignment.
type DimensionPolicy string

const (
	// PolicyAutoAlign snaps the render size down to a multiple of 16.
	PolicyAutoAlign DimensionPolicy = "auto_align"
	// PolicyLetterbox pads the render size up to a multiple of 16 and
	// centers the content, never cropping it.
	PolicyLetterbox DimensionPolicy = "letterbox"
	// PolicyExact uses the caller's dimensions verbatim, accepting the
	// risk of encoder padding artifacts.
	PolicyExact DimensionPolicy = "exact"
)

// Target describes the desired output dimensions. Width and Height are
// either both set or both nil; when nil the rotation-corrected display
// size of the source is used.
type Target struct {
	Width  *int
	Height *int
	Policy DimensionPolicy
}

// Step is one named affine operation of the render pipeline.
type Step struct {
	Name      string
	Transform Affine
}

// TransformPlan is the resolved per-frame geometry for an export:
// the aligned render size and the ordered affine steps that move the
// source content into it. Built once before submission and immutable
// afterward.
type TransformPlan struct {
	DisplaySize Size
	RenderSize  Size
	Scale       float64
	Steps       []Step
	Transform   Affine

	Brightness float64
	// Contrast and saturation are carried through from the request but
	// have no defined transform yet; exporters ignore them.
	Contrast   float64
	Saturation float64
}

// DisplaySize returns the "as viewed" size of a track: natural size
// with width and height swapped for portrait rotations.
func DisplaySize(natural Size, rotation Rotation) Size {
	if rotation.IsPortrait() {
		return Size{Width: natural.Height, Height: natural.Width}
	}
	return natural
}

// resolveRenderSize applies the dimension policy to the requested
// target, falling back to the display size when no explicit dimensions
// were given.
func resolveRenderSize(display Size, target Target) Size {
	size := display
	if target.Width != nil && target.Height != nil {
		size = Size{Width: *target.Width, Height: *target.Height}
	}
	switch target.Policy {
	case PolicyExact:
		return size
	case PolicyLetterbox:
		return Size{Width: AlignUp16(size.Width), Height: AlignUp16(size.Height)}
	default:
		return Size{Width: Align16(size.Width), Height: Align16(size.Height)}
	}
}

// uprightStep builds the rotation that brings rotated content upright,
// with the compensating translation that lands it back in the positive
// quadrant.
func uprightStep(natural Size, rotation Rotation) Affine {
	w := float64(natural.Width)
	h := float64(natural.Height)
	switch rotation {
	case Rotate90:
		return RotationBy(90).Mul(Translation(h, 0))
	case Rotate180:
		return RotationBy(180).Mul(Translation(w, h))
	case Rotate270:
		return RotationBy(-90).Mul(Translation(0, w))
	default:
		return Identity()
	}
}

// BuildPlan composes the per-frame transform in the fixed order the
// pipeline requires: upright rotation, uniform scale-to-fit, centering,
// then any user rotation about the render center. Reordering these
// steps produces visibly wrong output.
func BuildPlan(natural Size, rotation Rotation, target Target, userRotationDegrees int) *TransformPlan {
	display := DisplaySize(natural, rotation)
	render := resolveRenderSize(display, target)

	plan := &TransformPlan{
		DisplaySize: display,
		RenderSize:  render,
		Scale:       1.0,
		Transform:   Identity(),
	}

	appendStep := func(name string, t Affine) {
		plan.Steps = append(plan.Steps, Step{Name: name, Transform: t})
		plan.Transform = plan.Transform.Mul(t)
	}

	if rotation != Rotate0 {
		appendStep("upright", uprightStep(natural, rotation))
	}

	if display.Width > 0 && display.Height > 0 {
		sx := float64(render.Width) / float64(display.Width)
		sy := float64(render.Height) / float64(display.Height)
		scale := sx
		if sy < sx {
			scale = sy
		}
		plan.Scale = scale
		if scale != 1.0 {
			appendStep("scale_to_fit", Scaling(scale))
		}

		tx := (float64(render.Width) - float64(display.Width)*scale) / 2
		ty := (float64(render.Height) - float64(display.Height)*scale) / 2
		if tx != 0 || ty != 0 {
			appendStep("center", Translation(tx, ty))
		}
	}

	if deg := userRotationDegrees % 360; deg != 0 {
		cx := float64(render.Width) / 2
		cy := float64(render.Height) / 2
		about := Translation(-cx, -cy).
			Mul(RotationBy(float64(deg))).
			Mul(Translation(cx, cy))
		appendStep("user_rotation", about)
	}

	return plan
}

// MapBrightness converts the request's [-1, 1] brightness adjustment to
// the linear opacity-style factor applied per frame, clamped to
// [0.1, 1.0].
func MapBrightness(adjustment float64) float64 {
	v := 1 + adjustment
	if v < 0.1 {
		return 0.1
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
