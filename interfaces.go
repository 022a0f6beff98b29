package cif

// This file declares the reader's two external collaborators: the
// layout model it populates and the layer-map configuration object that
// tells it how CIF layer names should map onto that layout's layer
// indices. The reader only consumes these interfaces; a concrete,
// in-memory implementation lives in the sibling `layout` package for
// testing and for the `cifdump` CLI. Embedders with their own
// mask-layout database implement these two interfaces directly instead
// of depending on `layout`.

// CellID identifies a cell within one read, equal to the integer id a
// CIF file uses in `DS`/`C` commands.
type CellID int32

// LayerProperties describes one layer entry: a numeric (layer,
// datatype) pair, a string name, or both. HasNumeric is false for
// entries that carry only a name, the case left over once the
// plain-integer and LxDy naming conventions have both been ruled out.
type LayerProperties struct {
	Layer, Datatype int
	HasNumeric      bool
	Name            string
}

// Shape is the marker interface implemented by every geometry type the
// reader constructs: [Box], [Polygon], [Path], [Text], and [Instance].
type Shape interface {
	shapeMarker()
}

// ShapeContainer receives the shapes the geometry builder constructs
// for one logical layer of one cell.
type ShapeContainer interface {
	Insert(Shape)
}

// Cell is a handle to one layout cell, returned by [Layout.Cell].
type Cell interface {
	// ID returns the cell's identity within the layout.
	ID() CellID

	// Shapes returns the container for shapes on the given layout
	// layer index, creating it on first use.
	Shapes(layerIndex int) ShapeContainer

	// Instances returns the container cell-instance placements are
	// inserted into. Unlike Shapes, it is not keyed by layer: a `C`
	// command's array placement belongs to the cell itself, not to any
	// one layer.
	Instances() ShapeContainer
}

// Layout is the mask-layout database the reader populates.
type Layout interface {
	// AddCell allocates a new cell. An empty name requests an
	// anonymous cell (the reader uses this for its synthetic top cell,
	// which it later either names via RenameCell or deletes); cells for
	// CIF ids, dangling or not, are added with the name "C<id>".
	AddCell(name string) CellID

	// Cell returns the handle for a previously allocated cell id.
	Cell(id CellID) Cell

	// DeleteCell removes a cell, used by the driver to prune an empty
	// synthetic top cell.
	DeleteCell(id CellID)

	// RenameCell assigns a display name to a cell.
	RenameCell(id CellID, name string)

	// UniquifyCellName returns a name derived from base that does not
	// collide with any existing cell name.
	UniquifyCellName(base string) string

	// SetDBU records the database unit, in microns.
	SetDBU(value float64)

	// IsValidLayer reports whether a layer index has been inserted.
	IsValidLayer(index int) bool

	// InsertLayer allocates layer index `index` with the given
	// properties. The index is caller-chosen (the layer resolver's
	// allocator), not assigned by the layout.
	InsertLayer(index int, props LayerProperties)

	// SetLayerProperties overwrites the properties of an
	// already-inserted layer, used by the driver's post-pass to bind
	// placeholder layer entries to concrete (layer, datatype) tuples.
	SetLayerProperties(index int, props LayerProperties)

	// Layers iterates the layer entries currently present in the
	// layout, keyed by layout layer index.
	Layers() map[int]LayerProperties
}

// LayerMap is the externally supplied mapping from CIF layer
// specifications to layout layer indices.
type LayerMap interface {
	// Prepare binds the layer map to a concrete layout, e.g. to
	// pre-register layers the map already knows about.
	Prepare(layout Layout) error

	// Logical looks up a layer by CIF name. The second return value
	// is false on a miss.
	Logical(name string) (int, bool)

	// LogicalByProperties looks up a layer by numeric/name
	// specification.
	LogicalByProperties(props LayerProperties) (int, bool)

	// Mapping returns the properties registered for a layout layer
	// index.
	Mapping(index int) LayerProperties

	// Map registers that layout layer index corresponds to props.
	Map(props LayerProperties, index int)

	// NextIndex returns an index not yet used by the map or the
	// layout, for allocating brand-new layers.
	NextIndex() int
}
