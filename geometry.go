package cif

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Box is an axis-aligned rectangle, as produced by a `B` command whose
// rotation direction is the default (+x, 0).
type Box struct {
	P0, P1 vec.Vec2
}

func (Box) shapeMarker() {}

// Polygon is an arbitrary hull, as produced by a `P` command or by a
// rotated `B` command.
type Polygon struct {
	Points []vec.Vec2
}

func (Polygon) shapeMarker() {}

// Path is an open polyline with a width and end-cap style, as produced
// by `W` (wire) and `R` (round flash) commands.
type Path struct {
	Points             []vec.Vec2
	Width              float64
	BeginExtn, EndExtn float64
	Round              bool
}

func (Path) shapeMarker() {}

// Text is a label placed at a point, as produced by the `94`/`95`
// extensions.
type Text struct {
	Position  vec.Vec2
	String    string
	Height    int
	HasHeight bool
}

func (Text) shapeMarker() {}

// Instance places a cell under an accumulated [Transform], optionally
// repeated as a regular 2-D array (the `C` command's T/M X/M Y/R list
// and the `93` array-spec extension).
//
// Class records how the composed Transform was classified at the point
// the instance was built: a placement whose rotation/mirror lands on an
// exact quarter-turn, unit-magnification orientation can be stored and
// reasoned about as a cheap integer displacement+orientation, while
// anything else (arbitrary rotation, shear, scaling) needs the full
// matrix. A layout backend is free to use Class to pick its own storage
// representation instead of always keeping the dense Transform around.
type Instance struct {
	Cell      CellID
	Transform Transform
	Class     Classification
	NX, NY    int
	DX, DY    vec.Vec2
}

func (Instance) shapeMarker() {}

// buildBox builds the shape for `B w h x y [rx ry] ;`: an axis-aligned
// box when no rotation vector is given (or it points along +x), and the
// equivalent rotated rectangle as a four-point polygon otherwise.
func buildBox(w, h, x, y, rx, ry int32, sf float64) Shape {
	cx, cy := float64(x)*sf, float64(y)*sf

	if ry == 0 && rx >= 0 {
		hw, hh := float64(w)/2*sf, float64(h)/2*sf
		return Box{
			P0: vec.Vec2{X: cx - hw, Y: cy - hh},
			P1: vec.Vec2{X: cx + hw, Y: cy + hh},
		}
	}

	n := 1 / math.Hypot(float64(rx), float64(ry))
	hw := vec.Vec2{
		X: float64(w) / 2 * float64(rx) * n * sf,
		Y: float64(w) / 2 * float64(ry) * n * sf,
	}
	hh := vec.Vec2{
		X: -float64(h) / 2 * float64(ry) * n * sf,
		Y: float64(h) / 2 * float64(rx) * n * sf,
	}
	center := vec.Vec2{X: cx, Y: cy}
	return Polygon{Points: []vec.Vec2{
		center.Add(hw).Add(hh),
		center.Sub(hw).Add(hh),
		center.Sub(hw).Sub(hh),
		center.Add(hw).Sub(hh),
	}}
}

// buildPolygon builds the shape for `P (x y)+ ;`.
func buildPolygon(pts []vec.Vec2, sf float64) Shape {
	scaled := make([]vec.Vec2, len(pts))
	for i, p := range pts {
		scaled[i] = vec.Vec2{X: p.X * sf, Y: p.Y * sf}
	}
	return Polygon{Points: scaled}
}

// buildRoundFlash builds the shape for `R w x y ;`: a round flash,
// represented as a zero-length round-capped path centered on the point.
func buildRoundFlash(w, x, y int32, sf float64) Shape {
	width := sf * float64(w)
	return Path{
		Points:    []vec.Vec2{{X: float64(x) * sf, Y: float64(y) * sf}},
		Width:     width,
		BeginExtn: width / 2,
		EndExtn:   width / 2,
		Round:     true,
	}
}

// wireCaps resolves the end-cap style for a `W` command, folding
// together the `98` path-mode override's numbering (0=flush, 1=round,
// 2=square) and the reader-wide wire_mode default's numbering
// (0=square, 1=flush, 2=round). pathMode < 0 means "no 98 override is
// active".
func wireCaps(pathMode, wireMode int) (capFraction float64, round bool) {
	mode := pathMode
	if mode < 0 {
		switch wireMode {
		case 1:
			mode = 0 // flush
		case 2:
			mode = 1 // round
		default:
			mode = 2 // square
		}
	}
	switch mode {
	case 0:
		return 0, false
	case 1:
		return 0.5, true
	default:
		return 0.5, false
	}
}

// buildPath builds the shape for `W w (x y)+ ;`.
func buildPath(pts []vec.Vec2, w int32, pathMode, wireMode int, sf float64) Shape {
	width := sf * float64(w)
	capFrac, round := wireCaps(pathMode, wireMode)

	scaled := make([]vec.Vec2, len(pts))
	for i, p := range pts {
		scaled[i] = vec.Vec2{X: p.X * sf, Y: p.Y * sf}
	}
	return Path{
		Points:    scaled,
		Width:     width,
		BeginExtn: capFrac * width,
		EndExtn:   capFrac * width,
		Round:     round,
	}
}

// buildText builds the label placed by a `94` or `95` command.
func buildText(s string, rx, ry int32, sf float64) Text {
	return Text{
		Position: vec.Vec2{X: float64(rx) * sf, Y: float64(ry) * sf},
		String:   s,
	}
}
