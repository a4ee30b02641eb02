// Package system implements the system argument builder and the four
// system variants (ranged, sorted, hierarchy, global) described in
// spec §4.3/§4.4: given a signature and the component pools it
// references, compute the matching entity set and invoke the user
// callable once per matching entity (or once, for global systems).
package system

import (
	"reflect"
	"time"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/entityrange"
)

// Kind distinguishes the four system variants.
type Kind int

const (
	KindRanged Kind = iota
	KindSorted
	KindHierarchy
	KindGlobal
)

func (k Kind) String() string {
	switch k {
	case KindRanged:
		return "ranged"
	case KindSorted:
		return "sorted"
	case KindHierarchy:
		return "hierarchy"
	case KindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Access is the set of component type identities a system's signature
// references, split into reads and writes, used by the scheduler to
// build the dependency DAG (spec §4.4: get_type_hashes, has_component,
// writes_to_component, depends_on).
type Access struct {
	Reads  []reflect.Type
	Writes []reflect.Type
}

// Has reports whether the access set references t at all (read or
// write), matching has_component.
func (a Access) Has(t reflect.Type) bool {
	for _, r := range a.Reads {
		if r == t {
			return true
		}
	}
	for _, w := range a.Writes {
		if w == t {
			return true
		}
	}
	return false
}

// WritesTo reports whether the access set writes t, matching
// writes_to_component.
func (a Access) WritesTo(t reflect.Type) bool {
	for _, w := range a.Writes {
		if w == t {
			return true
		}
	}
	return false
}

// DependsOn reports whether there exists a component hash that both a
// and other touch, with at least one of them writing it — spec §4.4's
// depends_on.
func (a Access) DependsOn(other Access) bool {
	touches := func(acc Access, t reflect.Type) bool { return acc.Has(t) }
	for _, t := range a.Reads {
		if touches(other, t) && (a.WritesTo(t) || other.WritesTo(t)) {
			return true
		}
	}
	for _, t := range a.Writes {
		if touches(other, t) {
			return true
		}
	}
	return false
}

// Runner is the shared contract every system variant implements. The
// scheduler holds Runners, not concrete types, matching §9's "the
// scheduler holds borrows, not owned copies" guidance for re-expressing
// virtual dispatch over system kinds.
type Runner interface {
	Kind() Kind
	Access() Access
	Group() int
	Interval() time.Duration
	ManualUpdate() bool
	NotParallel() bool
	Sequential() bool
	Enabled() bool
	SetEnabled(bool)
	// Rebuild recomputes the entity set / argument vector. It always
	// rebuilds if force is true or any source pool currently reports
	// data_added/data_removed (those flags stay set until the pool's
	// ClearFlags).
	Rebuild(force bool)
	// Invoke calls the user callable over the current entity set.
	Invoke()
	// ShouldRun and MarkRun gate interval<…> systems (spec §4.4); both
	// are no-ops (always-true / bookkeeping-only) when no interval was
	// configured.
	ShouldRun(now time.Time) bool
	MarkRun(now time.Time)
}

// intersectAll returns the intersection of every view in sets, or nil
// if sets is empty.
func intersectAll(sets []entityrange.View) entityrange.View {
	if len(sets) == 0 {
		return nil
	}
	out := sets[0]
	for _, s := range sets[1:] {
		out = entityrange.IntersectRanges(out, s)
	}
	return out
}

// subtractAll removes every filter view from base, in order.
func subtractAll(base entityrange.View, filters []entityrange.View) entityrange.View {
	out := base
	for _, f := range filters {
		out = entityrange.DifferenceRanges(out, f)
	}
	return out
}

// anyChanged reports whether any handle reports a count change since
// its last ClearFlags, the trigger for an automatic rebuild (spec §4.3:
// "reconstruct its entity set whenever any of its source pools reports
// data_added or data_removed").
func anyChanged(handles []component.Handle) bool {
	for _, h := range handles {
		if h.DataAdded() || h.DataRemoved() {
			return true
		}
	}
	return false
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
