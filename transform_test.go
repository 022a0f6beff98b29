package cif

import (
	"testing"

	"seehuhn.de/go/geom/vec"
)

func TestTransformTranslate(t *testing.T) {
	tr := IdentityTransform.Translate(10, 20, 2)
	got := tr.Apply(vec.Vec2{})
	if got.X != 20 || got.Y != 40 {
		t.Fatalf("got %+v", got)
	}
	c := tr.Classify()
	if !c.Manhattan || c.Rotate90 != 0 || c.MirrorX {
		t.Fatalf("expected plain translation, got %+v", c)
	}
}

func TestTransformMirrorX(t *testing.T) {
	tr := IdentityTransform.MirrorX()
	got := tr.Apply(vec.Vec2{X: 3, Y: 5})
	if got.X != -3 || got.Y != 5 {
		t.Fatalf("got %+v", got)
	}
}

func TestTransformMirrorY(t *testing.T) {
	tr := IdentityTransform.MirrorY()
	got := tr.Apply(vec.Vec2{X: 3, Y: 5})
	if got.X != 3 || got.Y != -5 {
		t.Fatalf("got %+v", got)
	}
}

func TestTransformRotate90(t *testing.T) {
	tr := IdentityTransform.Rotate(0, 1)
	got := tr.Apply(vec.Vec2{X: 1, Y: 0})
	if !approxEq(got.X, 0, 1e-9) || !approxEq(got.Y, 1, 1e-9) {
		t.Fatalf("got %+v", got)
	}
	c := tr.Classify()
	if !c.Manhattan || c.Rotate90 != 1 {
		t.Fatalf("expected 90-degree rotation classification, got %+v", c)
	}
}

func TestTransformRotateZeroIsNoOp(t *testing.T) {
	tr := IdentityTransform.Rotate(0, 0)
	if tr.Classify().Rotate90 != 0 || !tr.Classify().Manhattan {
		t.Fatalf("expected no-op")
	}
}

func TestTransformOrderInnerToOuter(t *testing.T) {
	// T then M X: translate first (innermost), then mirror (outermost).
	tr := IdentityTransform.Translate(10, 0, 1).MirrorX()
	got := tr.Apply(vec.Vec2{})
	if got.X != -10 {
		t.Fatalf("got %+v, want x=-10 (mirror applied after translate)", got)
	}
}

func TestTransformFractionalIsComplex(t *testing.T) {
	tr := IdentityTransform.Rotate(1, 1) // 45 degrees
	if tr.Classify().Manhattan {
		t.Fatalf("expected a 45-degree rotation to be classified as complex")
	}
}
