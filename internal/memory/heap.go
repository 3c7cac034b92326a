package memory

import (
	"reflect"

	"asteria/internal/value"
)

// RootProvider is implemented by anything the collector must treat as a
// source of live Variables: the evaluator's reference stacks, every live
// executive context's named map, every defer list, and the global
// context's registered globals (§4.6 "Roots").
type RootProvider interface {
	GCRoots(visit func(*Variable))
}

// Tracer is implemented by script closures (to expose their captured
// upvalues) and by OpaqueObjects that embed Variables of their own.
// Everything else the GC needs to see through (arrays, objects, plain
// Callables) is handled structurally by traceValue.
type Tracer interface {
	TraceVariables(visit func(*Variable))
}

// Stats summarizes a completed collection, exposed to scripts through
// std.gc.gc_stats().
type Stats struct {
	NewestCount, MiddleCount, OldestCount int
	LastFreed                             int
	LastPromoted                          int
	MinorCollections, MajorCollections    int
}

// Heap owns every Variable allocated during a script run and is the
// collector described by §4.6: tracing, generational (three generations),
// non-moving, cooperative. Variables are kept in `all` so that Go's own
// GC never reclaims them behind our back — only an explicit Collect call
// unlinks an unreachable Variable, at which point it becomes ordinary
// Go garbage.
type Heap struct {
	all   []*Variable
	roots []RootProvider

	allocSinceMinor int
	minorThreshold  int
	minorCount      int
	majorEvery      int

	stats Stats
}

// NewHeap creates an empty heap. minorThreshold is the allocation count
// that triggers an automatic minor collection; majorEvery is how many
// minor collections occur before a major (full) collection runs instead.
func NewHeap(minorThreshold, majorEvery int) *Heap {
	if minorThreshold <= 0 {
		minorThreshold = 4096
	}
	if majorEvery <= 0 {
		majorEvery = 8
	}
	return &Heap{minorThreshold: minorThreshold, majorEvery: majorEvery}
}

// AddRoot registers a long-lived root provider (a Global Context's
// registered-globals map, typically). Per-call roots (the reference
// stack, the current context chain) are passed directly to Collect
// instead, since they change every invocation.
func (h *Heap) AddRoot(r RootProvider) { h.roots = append(h.roots, r) }

func (h *Heap) register(v *Variable) {
	v.heap = h
	v.index = len(h.all)
	h.all = append(h.all, v)
	h.allocSinceMinor++
	h.stats.NewestCount++
}

// MaybeCollect runs an automatic collection if the allocation heuristic
// has tripped. extraRoots supplies the call-scoped roots (reference
// stacks, live context chains) that AddRoot-registered providers don't
// cover.
func (h *Heap) MaybeCollect(extraRoots ...RootProvider) {
	if h.allocSinceMinor < h.minorThreshold {
		return
	}
	h.allocSinceMinor = 0
	if (h.minorCount+1)%h.majorEvery == 0 {
		h.MajorCollect(extraRoots...)
	} else {
		h.MinorCollect(extraRoots...)
	}
}

// Force runs an immediate major collection, for std.gc.gc_collect() and
// for driver-forced collection (§4.6 "may be forced by the driver").
func (h *Heap) Force(extraRoots ...RootProvider) { h.MajorCollect(extraRoots...) }

func (h *Heap) Stats() Stats { return h.stats }

// MinorCollect scans only the Newest generation. Middle and Oldest
// variables are conservatively treated as additional roots (this port
// carries no inter-generational write barrier / remembered set, so it
// cannot tell whether an old object still points at a young one without
// tracing it — see DESIGN.md's note on this simplification). Newest
// survivors promote to Middle.
func (h *Heap) MinorCollect(extraRoots ...RootProvider) {
	h.collect(Newest, extraRoots)
}

// MajorCollect traces every generation from the explicit roots alone and
// promotes any surviving Middle-generation variable to Oldest.
func (h *Heap) MajorCollect(extraRoots ...RootProvider) {
	h.collect(Oldest, extraRoots)
	h.stats.MajorCollections++
}

// collect implements the tri-color staged/temp algorithm of §4.6. scope
// is the oldest generation subject to collection this pass (Newest for a
// minor collection, Oldest for a major one); generations strictly older
// than scope are pinned as implicit roots instead of being traced for
// reachability.
func (h *Heap) collect(scope Generation, extraRoots []RootProvider) {
	defer func() {
		// "A running collection ... must be exception-safe if a tracer
		// itself throws (it aborts the collection cleanly rather than
		// leaking)": a panicking tracer simply aborts this pass. Nothing
		// has been unlinked yet at any point before the sweep below, so
		// there is nothing to unwind.
		recover()
	}()

	staged := make(map[uintptr]*Variable)
	temp := make(map[uintptr]*Variable)

	enqueue := func(v *Variable) {
		if v == nil {
			return
		}
		id := v.Identity()
		if _, ok := staged[id]; !ok {
			staged[id] = v
		}
	}

	for _, r := range h.roots {
		r.GCRoots(enqueue)
	}
	for _, r := range extraRoots {
		r.GCRoots(enqueue)
	}
	if scope != Newest {
		// Major collection: nothing pinned, everything must prove
		// reachability from the explicit roots above.
	} else {
		for _, v := range h.all {
			if v.gen != Newest {
				enqueue(v)
			}
		}
	}

	seenContainers := make(map[uintptr]bool)
	for {
		progressed := false
		for id, v := range staged {
			if _, done := temp[id]; done {
				continue
			}
			temp[id] = v
			progressed = true
			traceValue(v.Get(), seenContainers, enqueue)
		}
		if !progressed {
			break
		}
	}

	freed, promoted := 0, 0
	kept := h.all[:0]
	for _, v := range h.all {
		id := v.Identity()
		if _, live := temp[id]; !live {
			freed++
			continue
		}
		if scope == Newest {
			if v.gen == Newest {
				v.gen = Middle
				promoted++
			}
		} else {
			if v.gen == Middle {
				v.gen = Oldest
				promoted++
			}
		}
		kept = append(kept, v)
	}
	h.all = kept

	h.stats.LastFreed = freed
	h.stats.LastPromoted = promoted
	h.minorCount++
	h.recount()
}

func (h *Heap) recount() {
	h.stats.NewestCount, h.stats.MiddleCount, h.stats.OldestCount = 0, 0, 0
	for _, v := range h.all {
		switch v.gen {
		case Newest:
			h.stats.NewestCount++
		case Middle:
			h.stats.MiddleCount++
		case Oldest:
			h.stats.OldestCount++
		}
	}
}

// traceValue walks a Value for embedded Variable references: arrays and
// objects recurse into their elements; a function Value consults its
// Callable for a Tracer implementation (captured closure upvalues); an
// opaque Value consults its native object the same way.
func traceValue(v value.Value, seenContainers map[uintptr]bool, visit func(*Variable)) {
	switch v.Kind() {
	case value.Array:
		ad := v.AsArray()
		id := identityOf(ad)
		if seenContainers[id] {
			return
		}
		seenContainers[id] = true
		for _, e := range ad.Elements {
			traceValue(e, seenContainers, visit)
		}
	case value.Object:
		od := v.AsObject()
		id := identityOf(od)
		if seenContainers[id] {
			return
		}
		seenContainers[id] = true
		for _, k := range od.Keys() {
			ev, _ := od.Get(k)
			traceValue(ev, seenContainers, visit)
		}
	case value.Function:
		fd := v.AsFunction()
		id := identityOf(fd)
		if seenContainers[id] {
			return
		}
		seenContainers[id] = true
		if t, ok := fd.Callable.(Tracer); ok {
			t.TraceVariables(visit)
		}
	case value.Opaque:
		oh := v.AsOpaque()
		id := identityOf(oh)
		if seenContainers[id] {
			return
		}
		seenContainers[id] = true
		if t, ok := oh.Native.(Tracer); ok {
			t.TraceVariables(visit)
		}
	}
}

func identityOf(p any) uintptr {
	return reflect.ValueOf(p).Pointer()
}
