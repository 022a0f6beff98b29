package layout

import (
	"testing"

	cif "github.com/mrohne/klayout"
)

func TestAddCellAndShapes(t *testing.T) {
	lay := NewLayout()
	id := lay.AddCell("TOP")
	if lay.CellName(id) != "TOP" {
		t.Fatalf("got %q, want TOP", lay.CellName(id))
	}

	cell := lay.Cell(id)
	if cell.ID() != id {
		t.Fatalf("got %d, want %d", cell.ID(), id)
	}

	box := cif.Box{}
	cell.Shapes(0).Insert(box)
	cell.Shapes(0).Insert(box)
	cell.Shapes(1).Insert(box)

	if n := lay.ShapeCount(id); n != 3 {
		t.Fatalf("got %d shapes, want 3", n)
	}
	if n := len(lay.ShapesOn(id, 0)); n != 2 {
		t.Fatalf("got %d shapes on layer 0, want 2", n)
	}
	if n := len(lay.ShapesOn(id, 1)); n != 1 {
		t.Fatalf("got %d shapes on layer 1, want 1", n)
	}
}

func TestInstancesAreNotLayerKeyed(t *testing.T) {
	lay := NewLayout()
	parent := lay.AddCell("PARENT")
	child := lay.AddCell("CHILD")

	lay.Cell(parent).Instances().Insert(cif.Instance{Cell: child, NX: 1, NY: 1})

	if n := lay.InstanceCount(parent); n != 1 {
		t.Fatalf("got %d instances, want 1", n)
	}
	if n := lay.ShapeCount(parent); n != 0 {
		t.Fatalf("got %d shapes, want 0 (instances are not shapes)", n)
	}
}

func TestCellOnUnknownIDPanics(t *testing.T) {
	lay := NewLayout()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown cell id")
		}
	}()
	lay.Cell(cif.CellID(999))
}

func TestDeleteCellRemovesIt(t *testing.T) {
	lay := NewLayout()
	id := lay.AddCell("GONE")
	lay.DeleteCell(id)
	if len(lay.CellIDs()) != 0 {
		t.Fatalf("got %d cells, want 0", len(lay.CellIDs()))
	}
}

func TestRenameCell(t *testing.T) {
	lay := NewLayout()
	id := lay.AddCell("")
	lay.RenameCell(id, "NAMED")
	if lay.CellName(id) != "NAMED" {
		t.Fatalf("got %q, want NAMED", lay.CellName(id))
	}
}

func TestUniquifyCellName(t *testing.T) {
	lay := NewLayout()
	lay.AddCell("TOP")
	if got := lay.UniquifyCellName("OTHER"); got != "OTHER" {
		t.Fatalf("got %q, want OTHER (not yet used)", got)
	}
	if got := lay.UniquifyCellName("TOP"); got != "TOP$1" {
		t.Fatalf("got %q, want TOP$1", got)
	}
	lay.AddCell("TOP$1")
	if got := lay.UniquifyCellName("TOP"); got != "TOP$2" {
		t.Fatalf("got %q, want TOP$2", got)
	}
}

func TestDBURoundTrip(t *testing.T) {
	lay := NewLayout()
	lay.SetDBU(0.0025)
	if lay.DBU() != 0.0025 {
		t.Fatalf("got %g, want 0.0025", lay.DBU())
	}
}

func TestLayerLifecycle(t *testing.T) {
	lay := NewLayout()
	if lay.IsValidLayer(0) {
		t.Fatal("expected layer 0 to be invalid before insertion")
	}
	lay.InsertLayer(0, cif.LayerProperties{Name: "M1"})
	if !lay.IsValidLayer(0) {
		t.Fatal("expected layer 0 to be valid after insertion")
	}
	lay.SetLayerProperties(0, cif.LayerProperties{Layer: 1, Datatype: 0, HasNumeric: true})

	layers := lay.Layers()
	if len(layers) != 1 || layers[0].Layer != 1 {
		t.Fatalf("got %+v", layers)
	}

	// Layers() must be a copy: mutating the result must not affect the
	// layout's own state.
	delete(layers, 0)
	if !lay.IsValidLayer(0) {
		t.Fatal("Layers() leaked its backing map")
	}
}

func TestLayerMapRoundTrip(t *testing.T) {
	m := NewLayerMap()
	props := cif.LayerProperties{Layer: 7, Datatype: 3, HasNumeric: true, Name: "POLY"}
	m.Map(props, 4)

	if idx, ok := m.Logical("POLY"); !ok || idx != 4 {
		t.Fatalf("got (%d, %v), want (4, true)", idx, ok)
	}
	if idx, ok := m.LogicalByProperties(cif.LayerProperties{Layer: 7, Datatype: 3}); !ok || idx != 4 {
		t.Fatalf("got (%d, %v), want (4, true)", idx, ok)
	}
	if got := m.Mapping(4); got != props {
		t.Fatalf("got %+v, want %+v", got, props)
	}
	if next := m.NextIndex(); next != 5 {
		t.Fatalf("got %d, want 5", next)
	}
}

func TestLayerMapMissIsFalse(t *testing.T) {
	m := NewLayerMap()
	if _, ok := m.Logical("NOPE"); ok {
		t.Fatal("expected a miss on an empty map")
	}
	if _, ok := m.LogicalByProperties(cif.LayerProperties{Layer: 1, Datatype: 1}); ok {
		t.Fatal("expected a miss on an empty map")
	}
}
