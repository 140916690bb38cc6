package geometry

import "math"

// Affine is a 2D affine transform in row-vector convention:
//
//	| A  B  0 |
//	| C  D  0 |
//	| Tx Ty 1 |
//
// A point (x, y) maps to (A*x + C*y + Tx, B*x + D*y + Ty). This matches
// the layout video containers use for track orientation metadata.
type Affine struct {
	A, B   float64
	C, D   float64
	Tx, Ty float64
}

func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// RotationBy returns a counter-clockwise rotation by the given degrees.
func RotationBy(degrees float64) Affine {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Affine{A: cos, B: sin, C: -sin, D: cos}
}

func Translation(tx, ty float64) Affine {
	return Affine{A: 1, D: 1, Tx: tx, Ty: ty}
}

// Scaling returns a uniform scale about the origin.
func Scaling(s float64) Affine {
	return Affine{A: s, D: s}
}

// Mul returns t·u, the transform that applies t first and then u.
// Composition order matters for the render pipeline: each pipeline step
// post-multiplies onto the accumulated transform.
func (t Affine) Mul(u Affine) Affine {
	return Affine{
		A:  t.A*u.A + t.B*u.C,
		B:  t.A*u.B + t.B*u.D,
		C:  t.C*u.A + t.D*u.C,
		D:  t.C*u.B + t.D*u.D,
		Tx: t.Tx*u.A + t.Ty*u.C + u.Tx,
		Ty: t.Tx*u.B + t.Ty*u.D + u.Ty,
	}
}

// Apply maps a point through the transform.
func (t Affine) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.C*y + t.Tx, t.B*x + t.D*y + t.Ty
}

const epsilon = 1e-9

func (t Affine) IsIdentity() bool {
	return t.approxEquals(Identity())
}

func (t Affine) approxEquals(u Affine) bool {
	return math.Abs(t.A-u.A) < epsilon &&
		math.Abs(t.B-u.B) < epsilon &&
		math.Abs(t.C-u.C) < epsilon &&
		math.Abs(t.D-u.D) < epsilon &&
		math.Abs(t.Tx-u.Tx) < epsilon &&
		math.Abs(t.Ty-u.Ty) < epsilon
}
