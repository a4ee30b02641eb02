package system

import (
	"reflect"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/internal/registry"
)

// classify returns T as a read (if declared Immutable) or a write
// (otherwise). Ranged/Sorted/Hierarchy callables always receive a
// pointer so they *could* mutate; whether the dependency graph treats
// the reference as a read or a write follows the component's declared
// Immutable flag (spec §6: "immutable flag implies const reference").
func classify[T any]() (reads, writes []reflect.Type) {
	t := typeOf[T]()
	if component.FlagsOf[T]().Has(component.Immutable) {
		return []reflect.Type{t}, nil
	}
	return nil, []reflect.Type{t}
}

func mergeAccess(parts ...Access) Access {
	var a Access
	for _, p := range parts {
		a.Reads = append(a.Reads, p.Reads...)
		a.Writes = append(a.Writes, p.Writes...)
	}
	return a
}

func filterViewsOf(filters []component.Handle) []entityrange.View {
	var out []entityrange.View
	for _, f := range filters {
		out = append(out, f.Entities())
	}
	return out
}

func notifyIfMutable[T any](p *component.Pool[T]) {
	if !component.FlagsOf[T]().Has(component.Immutable) {
		p.NotifyModified()
	}
}

func iterateRange(set entityrange.View, fn func(entityrange.ID)) {
	for _, r := range set {
		for id := r.First; ; id++ {
			fn(id)
			if id == r.Last {
				break
			}
		}
	}
}

// Ranged1 is a one-component ranged system: for each entity in its
// entity set, it looks up the component pool's stored value and calls
// fn with a pointer to it (spec §4.3's ranged path).
type Ranged1[A any] struct {
	Base
	poolA   *component.Pool[A]
	filters []component.Handle
	fn      func(entityrange.ID, *A)

	entities entityrange.View
}

// NewRanged1 builds a ranged system over one required component.
func NewRanged1[A any](reg *registry.Registry, fn func(entityrange.ID, *A), opts ...Option) *Ranged1[A] {
	cfg := newConfig(opts)
	pa := registry.Pool[A](reg)
	reads, writes := classify[A]()
	s := &Ranged1[A]{poolA: pa, filters: cfg.filters, fn: fn}
	s.Base = newBase(Access{Reads: reads, Writes: writes}, cfg)
	return s
}

func (s *Ranged1[A]) Kind() Kind       { return KindRanged }
func (s *Ranged1[A]) Sequential() bool { return s.NotParallel() }

func (s *Ranged1[A]) sourcePools() []component.Handle {
	return append([]component.Handle{s.poolA}, s.filters...)
}

func (s *Ranged1[A]) Rebuild(force bool) {
	if !force && !s.shouldRebuild(s.sourcePools()) {
		return
	}
	s.entities = subtractAll(s.poolA.Entities(), filterViewsOf(s.filters))
}

func (s *Ranged1[A]) Invoke() {
	dispatchRange(s.entities, s.Sequential(), func(id entityrange.ID) {
		s.fn(id, s.poolA.FindComponentData(id))
	})
	notifyIfMutable(s.poolA)
}

// Ranged2 is a two-component ranged system.
type Ranged2[A, B any] struct {
	Base
	poolA   *component.Pool[A]
	poolB   *component.Pool[B]
	filters []component.Handle
	fn      func(entityrange.ID, *A, *B)

	entities entityrange.View
}

// NewRanged2 builds a ranged system over two required components.
func NewRanged2[A, B any](reg *registry.Registry, fn func(entityrange.ID, *A, *B), opts ...Option) *Ranged2[A, B] {
	cfg := newConfig(opts)
	pa, pb := registry.Pool[A](reg), registry.Pool[B](reg)
	ra, wa := classify[A]()
	rb, wb := classify[B]()
	s := &Ranged2[A, B]{poolA: pa, poolB: pb, filters: cfg.filters, fn: fn}
	s.Base = newBase(mergeAccess(Access{Reads: ra, Writes: wa}, Access{Reads: rb, Writes: wb}), cfg)
	return s
}

func (s *Ranged2[A, B]) Kind() Kind       { return KindRanged }
func (s *Ranged2[A, B]) Sequential() bool { return s.NotParallel() }

func (s *Ranged2[A, B]) sourcePools() []component.Handle {
	return append([]component.Handle{s.poolA, s.poolB}, s.filters...)
}

func (s *Ranged2[A, B]) Rebuild(force bool) {
	if !force && !s.shouldRebuild(s.sourcePools()) {
		return
	}
	set := intersectAll([]entityrange.View{s.poolA.Entities(), s.poolB.Entities()})
	s.entities = subtractAll(set, filterViewsOf(s.filters))
}

func (s *Ranged2[A, B]) Invoke() {
	dispatchRange(s.entities, s.Sequential(), func(id entityrange.ID) {
		s.fn(id, s.poolA.FindComponentData(id), s.poolB.FindComponentData(id))
	})
	notifyIfMutable(s.poolA)
	notifyIfMutable(s.poolB)
}

// Ranged3 is a three-component ranged system.
type Ranged3[A, B, C any] struct {
	Base
	poolA   *component.Pool[A]
	poolB   *component.Pool[B]
	poolC   *component.Pool[C]
	filters []component.Handle
	fn      func(entityrange.ID, *A, *B, *C)

	entities entityrange.View
}

// NewRanged3 builds a ranged system over three required components.
func NewRanged3[A, B, C any](reg *registry.Registry, fn func(entityrange.ID, *A, *B, *C), opts ...Option) *Ranged3[A, B, C] {
	cfg := newConfig(opts)
	pa, pb, pc := registry.Pool[A](reg), registry.Pool[B](reg), registry.Pool[C](reg)
	ra, wa := classify[A]()
	rb, wb := classify[B]()
	rc, wc := classify[C]()
	s := &Ranged3[A, B, C]{poolA: pa, poolB: pb, poolC: pc, filters: cfg.filters, fn: fn}
	s.Base = newBase(mergeAccess(Access{Reads: ra, Writes: wa}, Access{Reads: rb, Writes: wb}, Access{Reads: rc, Writes: wc}), cfg)
	return s
}

func (s *Ranged3[A, B, C]) Kind() Kind       { return KindRanged }
func (s *Ranged3[A, B, C]) Sequential() bool { return s.NotParallel() }

func (s *Ranged3[A, B, C]) sourcePools() []component.Handle {
	return append([]component.Handle{s.poolA, s.poolB, s.poolC}, s.filters...)
}

func (s *Ranged3[A, B, C]) Rebuild(force bool) {
	if !force && !s.shouldRebuild(s.sourcePools()) {
		return
	}
	set := intersectAll([]entityrange.View{s.poolA.Entities(), s.poolB.Entities(), s.poolC.Entities()})
	s.entities = subtractAll(set, filterViewsOf(s.filters))
}

func (s *Ranged3[A, B, C]) Invoke() {
	dispatchRange(s.entities, s.Sequential(), func(id entityrange.ID) {
		s.fn(id, s.poolA.FindComponentData(id), s.poolB.FindComponentData(id), s.poolC.FindComponentData(id))
	})
	notifyIfMutable(s.poolA)
	notifyIfMutable(s.poolB)
	notifyIfMutable(s.poolC)
}
