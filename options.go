package cif

// WireMode selects the default end-cap policy for `W` commands when no
// `98` path-mode override is active.
type WireMode int

const (
	// WireModeSquareDefault reproduces the original reader's default:
	// a square end-cap derived from the wire's own width, without the
	// caller having to say so explicitly.
	WireModeSquareDefault WireMode = 0
	WireModeFlush         WireMode = 1
	WireModeRound         WireMode = 2
)

// Progress is an optional, scoped progress sink the driver reports
// through while reading: Begin is called once before the first command
// is dispatched and End is guaranteed to run on every exit path,
// including an error return. The reader does no logging of its own;
// embedders that want progress feedback or diagnostics wire up Progress
// and/or Warnf themselves.
type Progress interface {
	Begin(label string)
	End()
}

// Options configures a [Read] call. A nil *Options is equivalent to
// &Options{} with every field at its zero value except where noted.
type Options struct {
	// DBU is the database unit, in microns. Zero means 0.001, i.e. CIF's
	// native resolution unit (one hundredth of a micron) maps to ten
	// database units.
	DBU float64

	// WireModeDefault is the fallback end-cap policy for `W` commands;
	// see [WireMode].
	WireModeDefault WireMode

	// LayerMap is consulted by the layer resolver before any of the
	// built-in fallbacks. A nil LayerMap is treated as an always-miss
	// map, so every CIF layer name is resolved purely through the
	// plain-integer/LxDy/create-other-layers rules.
	LayerMap LayerMap

	// DropUnmappedLayers controls what happens when a layer name
	// matches none of the LayerMap, plain-integer, or LxDy rules. The
	// zero value, false, lets every named layer in the source file
	// show up in the resulting layout; true drops the shapes on such a
	// layer silently instead of allocating a fresh one for it.
	DropUnmappedLayers bool

	// MaxDepth caps the nesting depth, the top level counting as one
	// level, so at most MaxDepth-1 DS definitions can be open at once;
	// exceeding it is the fatal ErrNestingTooDeep. Zero means 256.
	MaxDepth int

	// Warnf receives recoverable-condition messages, e.g. an unknown
	// top-level command or a shape command with no layer selected. A
	// nil Warnf discards them.
	Warnf func(format string, args ...any)

	// Progress, if set, is notified around the top-level dispatch.
	Progress Progress
}

func (o *Options) dbu() float64 {
	if o == nil || o.DBU == 0 {
		return 0.001
	}
	return o.DBU
}

func (o *Options) wireModeDefault() WireMode {
	if o == nil {
		return WireModeSquareDefault
	}
	return o.WireModeDefault
}

func (o *Options) layerMap() LayerMap {
	if o == nil {
		return nil
	}
	return o.LayerMap
}

func (o *Options) createOtherLayers() bool {
	if o == nil {
		return true
	}
	return !o.DropUnmappedLayers
}

func (o *Options) maxDepth() int {
	if o == nil || o.MaxDepth == 0 {
		return 256
	}
	return o.MaxDepth
}

func (o *Options) warnf(format string, args ...any) {
	if o == nil || o.Warnf == nil {
		return
	}
	o.Warnf(format, args...)
}

func (o *Options) progress() Progress {
	if o == nil {
		return nil
	}
	return o.Progress
}
