package cif

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Transform accumulates the free-order sequence of T/M X/M Y/R tokens of
// a CIF `C` command's transformation list into a single composed 2-D
// transform. Tokens are pre-multiplied onto the running matrix in
// source order, so the first token parsed is applied first (innermost)
// and the last token parsed is applied last (outermost).
type Transform struct {
	m matrix.Matrix
}

// IdentityTransform is the starting point for accumulation.
var IdentityTransform = Transform{m: matrix.Identity}

var (
	mirrorXMatrix = matrix.Matrix{-1, 0, 0, 1, 0, 0}
	mirrorYMatrix = matrix.Matrix{1, 0, 0, -1, 0, 0}
)

// Translate composes a `T sx sy` token, where sx and sy have already
// been read at CIF-integer resolution and sf is the scale factor active
// at the point the `C` command was parsed.
func (t Transform) Translate(sx, sy, sf float64) Transform {
	return Transform{m: t.m.Mul(matrix.Translate(sx*sf, sy*sf))}
}

// MirrorX composes an `M X` token: x -> -x.
func (t Transform) MirrorX() Transform {
	return Transform{m: t.m.Mul(mirrorXMatrix)}
}

// MirrorY composes an `M Y` token: y -> -y.
func (t Transform) MirrorY() Transform {
	return Transform{m: t.m.Mul(mirrorYMatrix)}
}

// Rotate composes an `R x y` token: rotation by atan2(y, x) degrees. A
// zero vector is a no-op.
func (t Transform) Rotate(x, y float64) Transform {
	if x == 0 && y == 0 {
		return t
	}
	deg := math.Atan2(y, x) * 180 / math.Pi
	return Transform{m: t.m.Mul(matrix.RotateDeg(deg))}
}

// Apply maps a point through the composed transform.
func (t Transform) Apply(p vec.Vec2) vec.Vec2 {
	m := t.m
	return vec.Vec2{
		X: p.X*m[0] + p.Y*m[2] + m[4],
		Y: p.X*m[1] + p.Y*m[3] + m[5],
	}
}

// Matrix returns the raw composed matrix.
func (t Transform) Matrix() matrix.Matrix {
	return t.m
}

// Classification is the result of classifying a composed [Transform]:
// whether it reduces to a 90-degree-step rotation and/or axis mirror at
// unit magnification (the cheap, exactly representable case) or needs
// the full matrix.
type Classification struct {
	// Manhattan is true if the transform is exactly a combination of a
	// 90-degree-step rotation and/or an axis mirror at unit
	// magnification: no fractional rotation, scaling, or shear.
	Manhattan bool

	// Displacement is the translation component, always populated.
	Displacement vec.Vec2

	// Rotate90 and MirrorX are only meaningful when Manhattan is true.
	// Rotate90 counts quarter turns counter-clockwise (0..3); MirrorX
	// reports whether the x-axis is reflected before the rotation is
	// applied.
	Rotate90 int
	MirrorX  bool
}

// Classify checks the transform's linear part against the eight
// orthogonal, unit-magnitude combinations of quarter-turn rotation and
// x-axis mirror, and reports a match (if any) along with the
// transform's displacement.
func (t Transform) Classify() Classification {
	m := t.m
	c := Classification{Displacement: vec.Vec2{X: m[4], Y: m[5]}}

	// The eight orthogonal, unit-magnitude linear parts: rotations by
	// 0/90/180/270 degrees, each with and without an x-axis mirror
	// applied first.
	type lin struct {
		a, b, cc, d float64
		rot         int
		mirror      bool
	}
	candidates := []lin{
		{1, 0, 0, 1, 0, false},
		{0, 1, -1, 0, 1, false},
		{-1, 0, 0, -1, 2, false},
		{0, -1, 1, 0, 3, false},
		{-1, 0, 0, 1, 0, true},
		{0, -1, -1, 0, 1, true},
		{1, 0, 0, -1, 2, true},
		{0, 1, 1, 0, 3, true},
	}
	const eps = 1e-9
	for _, cand := range candidates {
		if approxEq(m[0], cand.a, eps) && approxEq(m[1], cand.b, eps) &&
			approxEq(m[2], cand.cc, eps) && approxEq(m[3], cand.d, eps) {
			c.Manhattan = true
			c.Rotate90 = cand.rot
			c.MirrorX = cand.mirror
			return c
		}
	}
	return c
}

func approxEq(a, b, eps float64) bool {
	d := a - b
	return d > -eps && d < eps
}
