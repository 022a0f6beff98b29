package cif

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"
)

func TestBuildBoxAxisAligned(t *testing.T) {
	shape := buildBox(100, 200, 10, 20, 0, 0, 1)
	box, ok := shape.(Box)
	if !ok {
		t.Fatalf("got %T, want Box", shape)
	}
	if box.P0 != (vec.Vec2{X: -40, Y: -80}) || box.P1 != (vec.Vec2{X: 60, Y: 120}) {
		t.Fatalf("got %+v", box)
	}
}

func TestBuildBoxRotated(t *testing.T) {
	shape := buildBox(2, 2, 0, 0, 1, 1, 1)
	if _, ok := shape.(Polygon); !ok {
		t.Fatalf("got %T, want Polygon for a non-axis-aligned rotation spec", shape)
	}
}

func TestBuildBoxRotatedOffCenter(t *testing.T) {
	shape := buildBox(2, 2, 100, 50, 1, 1, 10)
	poly, ok := shape.(Polygon)
	if !ok {
		t.Fatalf("got %T, want Polygon for a non-axis-aligned rotation spec", shape)
	}
	var cx, cy float64
	for _, p := range poly.Points {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(poly.Points))
	cy /= float64(len(poly.Points))
	if cx != 1000 || cy != 500 {
		t.Fatalf("got centroid (%v, %v), want (1000, 500) (x,y scaled by sf)", cx, cy)
	}
}

func TestBuildPolygonScales(t *testing.T) {
	pts := []vec.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	shape := buildPolygon(pts, 10)
	poly := shape.(Polygon)
	want := []vec.Vec2{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 0, Y: 1000}}
	if diff := cmp.Diff(want, poly.Points); diff != "" {
		t.Fatalf("buildPolygon points mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRoundFlash(t *testing.T) {
	shape := buildRoundFlash(20, 0, 0, 1)
	path := shape.(Path)
	if !path.Round || path.Width != 20 || path.BeginExtn != 10 || path.EndExtn != 10 {
		t.Fatalf("got %+v", path)
	}
}

func TestWireCaps(t *testing.T) {
	cases := []struct {
		pathMode, wireMode int
		wantFrac           float64
		wantRound          bool
	}{
		{pathMode: -1, wireMode: 0, wantFrac: 0.5, wantRound: false}, // default: square
		{pathMode: -1, wireMode: 1, wantFrac: 0, wantRound: false},   // wire_mode flush
		{pathMode: -1, wireMode: 2, wantFrac: 0.5, wantRound: true},  // wire_mode round
		{pathMode: 0, wireMode: 2, wantFrac: 0, wantRound: false},    // 98 override: flush
		{pathMode: 1, wireMode: 0, wantFrac: 0.5, wantRound: true},   // 98 override: round
		{pathMode: 2, wireMode: 1, wantFrac: 0.5, wantRound: false},  // 98 override: square
	}
	for _, c := range cases {
		frac, round := wireCaps(c.pathMode, c.wireMode)
		if frac != c.wantFrac || round != c.wantRound {
			t.Errorf("wireCaps(%d, %d) = (%v, %v), want (%v, %v)", c.pathMode, c.wireMode, frac, round, c.wantFrac, c.wantRound)
		}
	}
}

func TestBuildPathRoundEnds(t *testing.T) {
	pts := []vec.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}}
	shape := buildPath(pts, 20, 1, 0, 1)
	path := shape.(Path)
	if !path.Round || path.BeginExtn != 10 || path.EndExtn != 10 {
		t.Fatalf("got %+v", path)
	}
}

func TestBuildTextPosition(t *testing.T) {
	txt := buildText("hi", 5, -5, 10)
	if txt.String != "hi" || txt.Position != (vec.Vec2{X: 50, Y: -50}) {
		t.Fatalf("got %+v", txt)
	}
}
