package cif

import "testing"

func TestParsePlainInteger(t *testing.T) {
	cases := []struct {
		name string
		n    int
		ok   bool
	}{
		{"12", 12, true},
		{"0", 0, true},
		{"", 0, false},
		{"L7", 0, false},
		{"12a", 0, false},
	}
	for _, c := range cases {
		n, ok := parsePlainInteger(c.name)
		if n != c.n || ok != c.ok {
			t.Errorf("parsePlainInteger(%q) = (%d, %v), want (%d, %v)", c.name, n, ok, c.n, c.ok)
		}
	}
}

func TestParseLxDy(t *testing.T) {
	cases := []struct {
		name string
		l, d int
		tag  string
		ok   bool
	}{
		{"L7D3", 7, 3, "", true},
		{"L7", 7, 0, "", true},
		{"7", 7, 0, "", true},
		{"L7D3_POLY", 7, 3, "POLY", true},
		{"L7.3", 7, 3, "", true},
		{"METAL1", 0, 0, "", false},
		{"L", 0, 0, "", false},
		{"L7Dx", 0, 0, "", false},
	}
	for _, c := range cases {
		l, d, tag, ok := parseLxDy(c.name)
		if l != c.l || d != c.d || tag != c.tag || ok != c.ok {
			t.Errorf("parseLxDy(%q) = (%d, %d, %q, %v), want (%d, %d, %q, %v)",
				c.name, l, d, tag, ok, c.l, c.d, c.tag, c.ok)
		}
	}
}

type fakeLayout struct {
	inserted map[int]LayerProperties
	valid    map[int]bool
}

func newFakeLayout() *fakeLayout {
	return &fakeLayout{inserted: map[int]LayerProperties{}, valid: map[int]bool{}}
}

func (f *fakeLayout) AddCell(string) CellID               { panic("unused") }
func (f *fakeLayout) Cell(CellID) Cell                    { panic("unused") }
func (f *fakeLayout) DeleteCell(CellID)                   {}
func (f *fakeLayout) RenameCell(CellID, string)           {}
func (f *fakeLayout) UniquifyCellName(base string) string { return base }
func (f *fakeLayout) SetDBU(float64)                      {}
func (f *fakeLayout) IsValidLayer(index int) bool         { return f.valid[index] }
func (f *fakeLayout) InsertLayer(index int, props LayerProperties) {
	f.inserted[index] = props
	f.valid[index] = true
}
func (f *fakeLayout) SetLayerProperties(index int, props LayerProperties) {
	f.inserted[index] = props
}
func (f *fakeLayout) Layers() map[int]LayerProperties { return f.inserted }

func TestLayerResolverAllocatesAndFinalizes(t *testing.T) {
	fl := newFakeLayout()
	r := newLayerResolver(fl, nil, true)

	idx7d3 := r.resolve("L7D3")
	idx12 := r.resolve("12")
	if idx7d3 == idx12 {
		t.Fatalf("expected distinct indices, got %d and %d", idx7d3, idx12)
	}
	if r.resolve("L7D3") != idx7d3 {
		t.Fatalf("expected re-resolving the same name to reuse the index")
	}

	r.finalize()

	p7d3 := fl.inserted[idx7d3]
	if p7d3.Layer != 7 || p7d3.Datatype != 3 {
		t.Fatalf("got %+v", p7d3)
	}
	p12 := fl.inserted[idx12]
	if p12.Layer != 12 || p12.Datatype != 0 {
		t.Fatalf("got %+v", p12)
	}
}

func TestLayerResolverDropsUnmappedWhenDisabled(t *testing.T) {
	fl := newFakeLayout()
	r := newLayerResolver(fl, nil, false)
	if idx := r.resolve("METAL1"); idx != -1 {
		t.Fatalf("got %d, want -1", idx)
	}
}

func TestLayerResolverFinalizeSkipsCollisions(t *testing.T) {
	fl := newFakeLayout()
	// Pre-populate a layer at an index the resolver's own allocator
	// (which starts from 0 when there is no LayerMap) will not reuse,
	// so it still collides with "12" purely by (layer, datatype).
	fl.InsertLayer(5, LayerProperties{Layer: 12, Datatype: 0, HasNumeric: true})

	r := newLayerResolver(fl, nil, true)
	idx := r.resolve("12")
	r.finalize()

	got := fl.inserted[idx]
	if got.HasNumeric {
		t.Fatalf("expected the colliding plain-integer name to fall through to a name-only layer, got %+v", got)
	}
	if got.Name != "12" {
		t.Fatalf("got %+v", got)
	}
}
