// Package layout is a concrete, in-memory implementation of the
// cif.Layout and cif.LayerMap interfaces. Production embedders with a
// real mask-layout database implement those two interfaces directly
// instead of depending on this package; it exists so the reader is
// runnable and testable standalone, and so cmd/cifdump has something
// concrete to populate and print.
package layout

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	cif "github.com/mrohne/klayout"
)

// cellData is the mutable state behind one cif.CellID.
type cellData struct {
	id        cif.CellID
	name      string
	shapes    map[int][]cif.Shape
	instances []cif.Shape
}

// Layout is the default in-memory cif.Layout implementation.
type Layout struct {
	dbu        float64
	cells      map[cif.CellID]*cellData
	nextCellID cif.CellID
	usedNames  map[string]bool
	layers     map[int]cif.LayerProperties
}

// NewLayout returns an empty Layout.
func NewLayout() *Layout {
	return &Layout{
		cells:     make(map[cif.CellID]*cellData),
		usedNames: make(map[string]bool),
		layers:    make(map[int]cif.LayerProperties),
	}
}

// AddCell implements cif.Layout.
func (l *Layout) AddCell(name string) cif.CellID {
	id := l.nextCellID
	l.nextCellID++
	l.cells[id] = &cellData{id: id, name: name, shapes: make(map[int][]cif.Shape)}
	if name != "" {
		l.usedNames[name] = true
	}
	return id
}

// Cell implements cif.Layout.
func (l *Layout) Cell(id cif.CellID) cif.Cell {
	data, ok := l.cells[id]
	if !ok {
		// A reader bug (or a caller passing a foreign id) would panic
		// here rather than silently fabricate state; AddCell is the
		// only legitimate source of a cif.CellID.
		panic(fmt.Sprintf("layout: no such cell %d", id))
	}
	return &cellHandle{data: data}
}

// DeleteCell implements cif.Layout.
func (l *Layout) DeleteCell(id cif.CellID) {
	delete(l.cells, id)
}

// RenameCell implements cif.Layout.
func (l *Layout) RenameCell(id cif.CellID, name string) {
	data, ok := l.cells[id]
	if !ok {
		return
	}
	data.name = name
	if name != "" {
		l.usedNames[name] = true
	}
}

// UniquifyCellName implements cif.Layout.
func (l *Layout) UniquifyCellName(base string) string {
	if !l.usedNames[base] {
		return base
	}
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s$%d", base, i)
		if !l.usedNames[cand] {
			return cand
		}
	}
}

// SetDBU implements cif.Layout.
func (l *Layout) SetDBU(value float64) { l.dbu = value }

// DBU returns the database unit set via SetDBU.
func (l *Layout) DBU() float64 { return l.dbu }

// IsValidLayer implements cif.Layout.
func (l *Layout) IsValidLayer(index int) bool {
	_, ok := l.layers[index]
	return ok
}

// InsertLayer implements cif.Layout.
func (l *Layout) InsertLayer(index int, props cif.LayerProperties) {
	l.layers[index] = props
}

// SetLayerProperties implements cif.Layout.
func (l *Layout) SetLayerProperties(index int, props cif.LayerProperties) {
	l.layers[index] = props
}

// Layers implements cif.Layout.
func (l *Layout) Layers() map[int]cif.LayerProperties {
	return maps.Clone(l.layers)
}

// CellIDs returns every allocated cell id, in allocation order, for
// inspection tools.
func (l *Layout) CellIDs() []cif.CellID {
	ids := maps.Keys(l.cells)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CellName returns the display name of id, or "" if it has none or
// does not exist.
func (l *Layout) CellName(id cif.CellID) string {
	data, ok := l.cells[id]
	if !ok {
		return ""
	}
	return data.name
}

// ShapeCount returns the number of shapes inserted into id across every
// layer.
func (l *Layout) ShapeCount(id cif.CellID) int {
	data, ok := l.cells[id]
	if !ok {
		return 0
	}
	n := 0
	for _, shapes := range data.shapes {
		n += len(shapes)
	}
	return n
}

// InstanceCount returns the number of cell-instance placements inserted
// into id.
func (l *Layout) InstanceCount(id cif.CellID) int {
	data, ok := l.cells[id]
	if !ok {
		return 0
	}
	return len(data.instances)
}

// ShapesOn returns the shapes inserted into id on the given layer index.
func (l *Layout) ShapesOn(id cif.CellID, layerIndex int) []cif.Shape {
	data, ok := l.cells[id]
	if !ok {
		return nil
	}
	return data.shapes[layerIndex]
}

// Instances returns the cell-instance placements inserted into id.
func (l *Layout) Instances(id cif.CellID) []cif.Shape {
	data, ok := l.cells[id]
	if !ok {
		return nil
	}
	return data.instances
}

type cellHandle struct {
	data *cellData
}

func (c *cellHandle) ID() cif.CellID { return c.data.id }

func (c *cellHandle) Shapes(layerIndex int) cif.ShapeContainer {
	return &shapeContainer{cell: c.data, layer: layerIndex}
}

func (c *cellHandle) Instances() cif.ShapeContainer {
	return &instanceContainer{cell: c.data}
}

type shapeContainer struct {
	cell  *cellData
	layer int
}

func (s *shapeContainer) Insert(shape cif.Shape) {
	s.cell.shapes[s.layer] = append(s.cell.shapes[s.layer], shape)
}

type instanceContainer struct {
	cell *cellData
}

func (s *instanceContainer) Insert(shape cif.Shape) {
	s.cell.instances = append(s.cell.instances, shape)
}

// LayerMap is the default in-memory cif.LayerMap implementation: a
// caller pre-registers known (name, properties, index) triples via Map
// before the read, and the resolver extends the same table during
// finalization.
type LayerMap struct {
	byName  map[string]int
	byPair  map[[2]int]int
	mapping map[int]cif.LayerProperties
	next    int
}

// NewLayerMap returns an empty LayerMap.
func NewLayerMap() *LayerMap {
	return &LayerMap{
		byName:  make(map[string]int),
		byPair:  make(map[[2]int]int),
		mapping: make(map[int]cif.LayerProperties),
	}
}

// Prepare implements cif.LayerMap. The in-memory map needs no binding
// to a Layout; it is pre-populated by the caller via Map.
func (m *LayerMap) Prepare(cif.Layout) error { return nil }

// Logical implements cif.LayerMap.
func (m *LayerMap) Logical(name string) (int, bool) {
	idx, ok := m.byName[name]
	return idx, ok
}

// LogicalByProperties implements cif.LayerMap.
func (m *LayerMap) LogicalByProperties(props cif.LayerProperties) (int, bool) {
	idx, ok := m.byPair[[2]int{props.Layer, props.Datatype}]
	return idx, ok
}

// Mapping implements cif.LayerMap.
func (m *LayerMap) Mapping(index int) cif.LayerProperties {
	return m.mapping[index]
}

// Map implements cif.LayerMap.
func (m *LayerMap) Map(props cif.LayerProperties, index int) {
	m.mapping[index] = props
	if props.Name != "" {
		m.byName[props.Name] = index
	}
	if props.HasNumeric {
		m.byPair[[2]int{props.Layer, props.Datatype}] = index
	}
	if index >= m.next {
		m.next = index + 1
	}
}

// NextIndex implements cif.LayerMap.
func (m *LayerMap) NextIndex() int { return m.next }
