package cif

import (
	"fmt"
	"io"
	"math"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/mrohne/klayout/lexer"
	"seehuhn.de/go/geom/vec"
)

// dispatchFrame is the per-cell-body local state needed while reading
// one `DS ... DF` body (or the top level): one value per nesting level,
// pushed/popped on an explicit stack instead of through Go-level
// recursion, so that deeply nested CIF files don't grow the call stack.
type dispatchFrame struct {
	id    CellID
	cell  Cell
	scale float64
	level int
	name  string // diagnostic-only; the current display name of the cell

	layer    int // -2: no L yet, -1: explicitly masked, >=0: active layer
	pathMode int // -1: no `98` override active

	pendingNX, pendingNY int
	pendingDX, pendingDY float64

	insts, shapes, layerSpecs int
}

// reader carries the state of one Read call.
type reader struct {
	lx        *lexer.ByteLexer
	layout    Layout
	layers    *layerResolver
	opts      *Options
	cellsByID map[int32]CellID
	edges     map[CellID][]CellID // instance edges, for the acyclicity check
}

// Read populates layout from the CIF stream r. A nil opts is
// equivalent to &Options{}.
func Read(r io.Reader, layout Layout, opts *Options) error {
	return ReadStream(lexer.NewByteStream(r), layout, opts)
}

// ReadStream is [Read] generalized directly over a [lexer.Stream], for
// callers with their own stream implementation.
func ReadStream(s lexer.Stream, layout Layout, opts *Options) error {
	rd := &reader{
		lx:        lexer.New(s),
		layout:    layout,
		opts:      opts,
		cellsByID: make(map[int32]CellID),
		edges:     make(map[CellID][]CellID),
	}

	dbu := opts.dbu()
	layout.SetDBU(dbu)
	sf := 0.01 / dbu

	layerMap := opts.layerMap()
	if layerMap != nil {
		if err := layerMap.Prepare(layout); err != nil {
			return err
		}
	}
	rd.layers = newLayerResolver(layout, layerMap, opts.createOtherLayers())

	progress := opts.progress()
	if progress != nil {
		progress.Begin("read")
		defer progress.End()
	}

	topID := layout.AddCell("")
	root := &dispatchFrame{
		id:       topID,
		cell:     layout.Cell(topID),
		scale:    sf,
		level:    0,
		name:     "{CIF top level}",
		layer:    -2,
		pathMode: -1,
	}
	rd.checkScale(root)

	if err := rd.run(root); err != nil {
		return err
	}

	rd.lx.SkipBlanks()
	if !rd.lx.AtEnd() {
		rd.opts.warnf("cif: E command is followed by more text")
	}

	if root.insts > 1 || root.shapes > 0 || root.layerSpecs > 0 {
		layout.RenameCell(topID, layout.UniquifyCellName("CIF_TOP"))
	} else {
		layout.DeleteCell(topID)
	}

	rd.checkAcyclic()
	rd.layers.finalize()
	return nil
}

// checkScale warns when the accumulated scale factor for a cell body
// is not an integer, since DS's denominator/divider ratio can leave a
// fractional scale that will introduce rounding error when later
// coordinates are snapped to the database unit grid. Checked once per
// cell body, including the top level.
func (rd *reader) checkScale(f *dispatchFrame) {
	if math.Abs(f.scale-math.Round(f.scale)) > 1e-6 {
		rd.opts.warnf("cif: scaling factor is not an integer - snapping errors may occur in cell %q", f.name)
	}
}

// fatal wraps a dispatcher-level error with the current line number and
// the name of the cell being read, so a caller can report where in the
// file the failure occurred.
func (rd *reader) fatal(f *dispatchFrame, err error) error {
	return &MalformedFileError{Line: rd.lx.LineNumber(), Cell: f.name, Err: err}
}

// cellFor returns the layout cell id for CIF integer id n, allocating a
// dangling placeholder cell named "C<n>" on first reference from either
// `C` or `DS`. A `C` command is free to reference a cell id before its
// `DS` has been seen (or ever is), so allocation has to be lazy.
func (rd *reader) cellFor(n int32) CellID {
	if id, ok := rd.cellsByID[n]; ok {
		return id
	}
	id := rd.layout.AddCell(fmt.Sprintf("C%d", n))
	rd.cellsByID[n] = id
	return id
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

// run is the iterative command dispatcher: one explicit stack of
// [dispatchFrame] values standing in for the recursion a `DS`/`DF` pair
// would otherwise need, so that arbitrarily deep CIF cell nesting never
// grows the Go call stack.
func (rd *reader) run(root *dispatchFrame) error {
	stack := []*dispatchFrame{root}

	for len(stack) > 0 {
		f := stack[len(stack)-1]

		rd.lx.SkipBlanks()
		c, err := rd.lx.GetChar()
		if err != nil {
			return rd.fatal(f, err)
		}

		switch {
		case c == ';':
			// empty command

		case c == '(':
			if err := rd.lx.SkipComment(); err != nil {
				return rd.fatal(f, err)
			}

		case c == 'E':
			if f.level > 0 {
				return rd.fatal(f, ErrECommandInsideCell)
			}
			rd.lx.SkipBlanks()
			return nil

		case c == 'D':
			if err := rd.dispatchD(&stack, f); err != nil {
				return err
			}

		case c == 'C':
			if err := rd.dispatchC(f); err != nil {
				return err
			}

		case c == 'L':
			if err := rd.dispatchL(f); err != nil {
				return err
			}

		case c == 'B' || c == 'P' || c == 'R' || c == 'W':
			if err := rd.dispatchShape(f, c); err != nil {
				return err
			}

		case isDigitByte(c):
			if err := rd.dispatchDigit(f, c); err != nil {
				return err
			}

		default:
			rd.opts.warnf("cif: unknown command %q ignored", string(c))
			rd.lx.SkipToEnd()
		}
	}

	return nil
}

// dispatchD handles `D` `S`/`F`/`D`. stack is passed by pointer since
// `DS` pushes a frame and `DF` pops one.
func (rd *reader) dispatchD(stack *[]*dispatchFrame, f *dispatchFrame) error {
	rd.lx.SkipBlanks()
	c2, err := rd.lx.GetChar()
	if err != nil {
		return rd.fatal(f, err)
	}

	switch c2 {
	case 'S':
		n, err := rd.lx.ReadInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		denom, divider := int32(1), int32(1)
		if !rd.lx.TestSemi() {
			denom, err = rd.lx.ReadInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			divider, err = rd.lx.ReadInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
		}
		if err := rd.lx.ExpectSemi(); err != nil {
			return rd.fatal(f, err)
		}

		id := rd.cellFor(n)
		child := &dispatchFrame{
			id:       id,
			cell:     rd.layout.Cell(id),
			scale:    f.scale * float64(denom) / float64(divider),
			level:    f.level + 1,
			name:     fmt.Sprintf("C%d", n),
			layer:    -2,
			pathMode: -1,
		}
		if len(*stack)+1 > rd.opts.maxDepth() {
			return rd.fatal(f, ErrNestingTooDeep)
		}
		rd.checkScale(child)
		*stack = append(*stack, child)

	case 'F':
		if f.level == 0 {
			return rd.fatal(f, ErrDFCommandOutsideCell)
		}
		rd.lx.SkipToEnd()
		*stack = (*stack)[:len(*stack)-1]

	case 'D':
		if _, err := rd.lx.ReadInteger(); err != nil {
			return rd.fatal(f, err)
		}
		rd.opts.warnf("cif: DD command ignored")
		rd.lx.SkipToEnd()

	default:
		return rd.fatal(f, ErrInvalidDCommand)
	}

	return nil
}

// dispatchC handles `C`: the cell id, the free-order T/M X/M Y/R
// transform list, and the pending `93` array spec (if one preceded it).
func (rd *reader) dispatchC(f *dispatchFrame) error {
	f.insts++

	n, err := rd.lx.ReadInteger()
	if err != nil {
		return rd.fatal(f, err)
	}
	calleeID := rd.cellFor(n)
	rd.edges[f.id] = append(rd.edges[f.id], calleeID)

	trans := IdentityTransform
	for !rd.lx.TestSemi() {
		rd.lx.SkipBlanks()
		ct, err := rd.lx.GetChar()
		if err != nil {
			return rd.fatal(f, err)
		}
		switch ct {
		case 'M':
			rd.lx.SkipBlanks()
			ct2, err := rd.lx.GetChar()
			if err != nil {
				return rd.fatal(f, err)
			}
			switch ct2 {
			case 'X':
				trans = trans.MirrorX()
			case 'Y':
				trans = trans.MirrorY()
			default:
				return rd.fatal(f, ErrInvalidMSpec)
			}
		case 'T':
			x, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			y, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			trans = trans.Translate(float64(x), float64(y), f.scale)
		case 'R':
			x, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			y, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			trans = trans.Rotate(float64(x), float64(y))
		default:
			return rd.fatal(f, ErrInvalidTransformSpec)
		}
	}

	nx, ny := f.pendingNX, f.pendingNY
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	inst := Instance{
		Cell:      calleeID,
		Transform: trans,
		Class:     trans.Classify(),
		NX:        nx,
		NY:        ny,
		DX:        vec.Vec2{X: f.pendingDX * f.scale},
		DY:        vec.Vec2{Y: f.pendingDY * f.scale},
	}
	f.cell.Instances().Insert(inst)
	f.pendingNX, f.pendingNY, f.pendingDX, f.pendingDY = 0, 0, 0, 0

	if err := rd.lx.ExpectSemi(); err != nil {
		return rd.fatal(f, err)
	}
	return nil
}

// dispatchL handles `L <name> ;`.
func (rd *reader) dispatchL(f *dispatchFrame) error {
	f.layerSpecs++
	name := rd.lx.ReadName()
	if name == "" {
		return rd.fatal(f, ErrMissingLayerName)
	}
	f.layer = rd.layers.resolve(name)
	if err := rd.lx.ExpectSemi(); err != nil {
		return rd.fatal(f, err)
	}
	return nil
}

// dispatchShape handles `B`/`P`/`R`/`W`.
func (rd *reader) dispatchShape(f *dispatchFrame, c byte) error {
	f.shapes++

	if f.layer < 0 {
		if f.layer < -1 {
			rd.opts.warnf("cif: %q command ignored since no layer was selected", string(c))
		}
		rd.lx.SkipToEnd()
		return nil
	}

	switch c {
	case 'B':
		w, err := rd.lx.ReadInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		h, err := rd.lx.ReadInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		x, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		y, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		rx, ry := int32(0), int32(0)
		if !rd.lx.TestSemi() {
			rx, err = rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			ry, err = rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
		}
		f.cell.Shapes(f.layer).Insert(buildBox(w, h, x, y, rx, ry, f.scale))

	case 'P':
		var pts []vec.Vec2
		for !rd.lx.TestSemi() {
			rx, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			ry, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			pts = append(pts, vec.Vec2{X: float64(rx), Y: float64(ry)})
		}
		f.cell.Shapes(f.layer).Insert(buildPolygon(pts, f.scale))

	case 'R':
		w, err := rd.lx.ReadInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		x, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		y, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		f.cell.Shapes(f.layer).Insert(buildRoundFlash(w, x, y, f.scale))

	case 'W':
		w, err := rd.lx.ReadInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		var pts []vec.Vec2
		for !rd.lx.TestSemi() {
			rx, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			ry, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			pts = append(pts, vec.Vec2{X: float64(rx), Y: float64(ry)})
		}
		f.cell.Shapes(f.layer).Insert(buildPath(pts, w, f.pathMode, int(rd.opts.wireModeDefault()), f.scale))
	}

	if err := rd.lx.ExpectSemi(); err != nil {
		return rd.fatal(f, err)
	}
	return nil
}

// dispatchDigit handles the digit-prefixed extensions: `93` array spec,
// `94`/`95` labels, `98` path-mode override, the bare `9`+non-digit
// cell-rename, and every other digit-led command (ignored). Every
// branch falls through to a single SkipToEnd at the bottom, so any
// trailing text on the command is discarded uniformly.
func (rd *reader) dispatchDigit(f *dispatchFrame, c byte) error {
	cc, hasNext := rd.lx.PeekChar()

	switch {
	case c == '9' && hasNext && cc == '3':
		rd.lx.GetChar()
		nx, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		dx, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		ny, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		dy, err := rd.lx.ReadSignedInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		f.pendingNX, f.pendingDX = int(nx), float64(dx)
		f.pendingNY, f.pendingDY = int(ny), float64(dy)

	case c == '9' && hasNext && cc == '4':
		rd.lx.GetChar()
		f.shapes++
		if f.layer < 0 {
			if f.layer < -1 {
				rd.opts.warnf("cif: '94' command ignored since no layer was selected")
			}
		} else {
			text, err := rd.lx.ReadString()
			if err != nil {
				return rd.fatal(f, err)
			}
			rx, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			ry, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			h := 0.0
			hasHeight := false
			if !rd.lx.TestSemi() {
				h = rd.lx.ReadDouble()
				hasHeight = true
			}
			layerIdx := f.layer
			if override := rd.lx.ReadName(); override != "" {
				if idx, ok := rd.layers.lookupOverride(override); ok {
					layerIdx = idx
				}
			}
			txt := buildText(text, rx, ry, f.scale)
			if hasHeight {
				txt.Height = int(math.Round(h / rd.opts.dbu()))
				txt.HasHeight = true
			}
			f.cell.Shapes(layerIdx).Insert(txt)
		}

	case c == '9' && hasNext && cc == '5':
		rd.lx.GetChar()
		f.shapes++
		if f.layer < 0 {
			if f.layer < -1 {
				rd.opts.warnf("cif: '95' command ignored since no layer was selected")
			}
		} else {
			text, err := rd.lx.ReadString()
			if err != nil {
				return rd.fatal(f, err)
			}
			// Box-dimension fields: read and discarded; see DESIGN.md's
			// Open Question decision on `95`.
			if _, err := rd.lx.ReadSignedInteger(); err != nil {
				return rd.fatal(f, err)
			}
			if _, err := rd.lx.ReadSignedInteger(); err != nil {
				return rd.fatal(f, err)
			}
			rx, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			ry, err := rd.lx.ReadSignedInteger()
			if err != nil {
				return rd.fatal(f, err)
			}
			f.cell.Shapes(f.layer).Insert(buildText(text, rx, ry, f.scale))
		}

	case c == '9' && hasNext && cc == '8':
		rd.lx.GetChar()
		pm, err := rd.lx.ReadInteger()
		if err != nil {
			return rd.fatal(f, err)
		}
		f.pathMode = int(pm)

	case c == '9' && (!hasNext || !isDigitByte(cc)):
		name, err := rd.lx.ReadString()
		if err != nil {
			return rd.fatal(f, err)
		}
		f.name = rd.layout.UniquifyCellName(name)
		rd.layout.RenameCell(f.id, f.name)

	default:
		// Ignored command: any other digit-led two-character sequence.
	}

	rd.lx.SkipToEnd()
	return nil
}

// checkAcyclic is a sanity check against cell-instance cycles: a plain
// DFS with a recursion-stack set over the instance edges collected
// while dispatching `C` commands (see DESIGN.md for why this isn't
// built on seehuhn.de/go/dag, which solves a different problem). The
// edges come only from this read's `C` commands, and a CIF file can
// express a cycle through them (a cell that calls itself, directly or
// through other cells). Such a file is still read without error; the
// first cycle found is reported through Warnf.
func (rd *reader) checkAcyclic() {
	visited := make(map[CellID]bool)
	onStack := make(map[CellID]bool)

	ids := maps.Keys(rd.edges)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var visit func(id CellID) bool
	visit = func(id CellID) bool {
		if onStack[id] {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		onStack[id] = true
		for _, next := range rd.edges[id] {
			if visit(next) {
				return true
			}
		}
		onStack[id] = false
		return false
	}

	for _, id := range ids {
		if visit(id) {
			rd.opts.warnf("cif: cell instance graph contains a cycle reachable from cell id %d", id)
			return
		}
	}
}
