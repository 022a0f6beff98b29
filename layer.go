package cif

import (
	"sort"

	"golang.org/x/exp/maps"
)

// parsePlainInteger recognizes a layer name that is nothing but decimal
// digits, e.g. "12" meaning layer 12, datatype 0.
func parsePlainInteger(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// parseLxDy recognizes the "LxDy" layer-naming convention: an optional
// leading "L", one or more digits (the layer), optionally "D" or "."
// followed by digits (the datatype), optionally a trailing
// "_"-separated tag stored as the layer name. Any leftover, unconsumed
// suffix fails the match.
func parseLxDy(name string) (layer, datatype int, tag string, ok bool) {
	i, n := 0, len(name)
	if i < n && (name[i] == 'L' || name[i] == 'l') {
		i++
	}
	start := i
	for i < n && isDigit(name[i]) {
		i++
	}
	if i == start {
		return 0, 0, "", false
	}
	layer = atoiRange(name[start:i])

	if i < n && (name[i] == 'D' || name[i] == 'd' || name[i] == '.') {
		i++
		dstart := i
		for i < n && isDigit(name[i]) {
			i++
		}
		if i == dstart {
			return 0, 0, "", false
		}
		datatype = atoiRange(name[dstart:i])
	}

	if i < n && name[i] == '_' {
		tag = name[i+1:]
	} else if i < n {
		return 0, 0, "", false
	}
	return layer, datatype, tag, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func atoiRange(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// layerResolver turns CIF layer names into layout layer indices. Each
// `L <name>` is resolved against the caller's LayerMap first (by name,
// then by numeric properties); a miss falls back to the plain-integer
// and LxDy naming conventions, and a name that matches none of those is
// given a freshly allocated layer with placeholder properties, bound to
// concrete (layer, datatype) values only once the whole file has been
// read and every other name competing for the same pair is known.
type layerResolver struct {
	layout    Layout
	layerMap  LayerMap
	createNew bool

	// newLayers holds layer names not resolved via layerMap, mapped to
	// the layout layer index provisionally allocated for them: each
	// gets placeholder properties immediately, and concrete (layer,
	// datatype) values once the file has been fully read.
	newLayers map[string]int
	nextIndex int
}

func newLayerResolver(layout Layout, layerMap LayerMap, createNew bool) *layerResolver {
	next := 0
	if layerMap != nil {
		next = layerMap.NextIndex()
	}
	return &layerResolver{
		layout:    layout,
		layerMap:  layerMap,
		createNew: createNew,
		newLayers: make(map[string]int),
		nextIndex: next,
	}
}

// resolve looks up or allocates a layout layer index for one `L <name>`
// command, in the order: layer-map name lookup, layer-map numeric
// lookup by plain-integer parse, layer-map numeric lookup by LxDy
// parse, a previously allocated fresh layer of the same name, or (when
// the reader is configured to create layers on demand) a brand-new one.
func (r *layerResolver) resolve(name string) int {
	idx, found := r.lookupOverride(name)
	if !found && r.layerMap != nil {
		if n, ok := parsePlainInteger(name); ok {
			idx, found = r.layerMap.LogicalByProperties(LayerProperties{Layer: n, Datatype: 0, HasNumeric: true})
		}
	}
	if !found && r.layerMap != nil {
		if l, d, _, ok := parseLxDy(name); ok {
			idx, found = r.layerMap.LogicalByProperties(LayerProperties{Layer: l, Datatype: d, HasNumeric: true})
		}
	}
	if found {
		if !r.layout.IsValidLayer(idx) {
			r.layout.InsertLayer(idx, r.layerMap.Mapping(idx))
		}
		return idx
	}

	if existing, ok := r.newLayers[name]; ok {
		return existing
	}
	if !r.createNew {
		return -1
	}

	idx = r.nextIndex
	r.nextIndex++
	r.newLayers[name] = idx
	r.layout.InsertLayer(idx, LayerProperties{Name: name})
	return idx
}

// lookupOverride is the plain name-based layer-map lookup used directly
// by resolve's first step and by the `94` label command's optional
// layer-name override, which does not fall back to plain-integer/LxDy
// parsing or layer creation.
func (r *layerResolver) lookupOverride(name string) (int, bool) {
	if r.layerMap == nil {
		return 0, false
	}
	return r.layerMap.Logical(name)
}

// finalize assigns concrete (layer, datatype) properties to every
// fresh layer allocated during the read, in three passes: names that
// parse as plain integers first, then names that parse as LxDy, then
// whatever is left over gets a name-only layer. Each pass skips a
// (layer, datatype) pair already claimed by an earlier pass or by a
// layer the layout started with.
func (r *layerResolver) finalize() {
	if len(r.newLayers) == 0 {
		return
	}

	usedLD := make(map[[2]int]bool)
	for _, props := range r.layout.Layers() {
		if props.HasNumeric {
			usedLD[[2]int{props.Layer, props.Datatype}] = true
		}
	}

	names := maps.Keys(r.newLayers)
	sort.Strings(names)
	assigned := make(map[string]bool, len(names))

	assign := func(name string, props LayerProperties) {
		idx := r.newLayers[name]
		r.layout.SetLayerProperties(idx, props)
		if r.layerMap != nil {
			r.layerMap.Map(props, idx)
		}
		assigned[name] = true
	}

	// Pass 1: names that parse as plain integers -> (N, 0).
	for _, name := range names {
		n, ok := parsePlainInteger(name)
		if !ok {
			continue
		}
		ld := [2]int{n, 0}
		if usedLD[ld] {
			continue
		}
		usedLD[ld] = true
		assign(name, LayerProperties{Layer: n, Datatype: 0, HasNumeric: true})
	}

	// Pass 2: remaining names that parse as LxDy -> (L, D, name=tag).
	for _, name := range names {
		if assigned[name] {
			continue
		}
		l, d, tag, ok := parseLxDy(name)
		if !ok {
			continue
		}
		ld := [2]int{l, d}
		if usedLD[ld] {
			continue
		}
		usedLD[ld] = true
		assign(name, LayerProperties{Layer: l, Datatype: d, HasNumeric: true, Name: tag})
	}

	// Pass 3: everything left over, name only, no collision check.
	for _, name := range names {
		if assigned[name] {
			continue
		}
		assign(name, LayerProperties{Name: name})
	}
}
