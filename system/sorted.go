package system

import (
	"sort"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/internal/registry"
)

// Sorted1 is a one-component sorted system: it unrolls its entity set
// into a vector and sorts it by the comparator applied to the
// component's value, re-sorting whenever the pool reports
// data_modified since the last run (spec §4.3's sorted path).
type Sorted1[A any] struct {
	Base
	poolA   *component.Pool[A]
	filters []component.Handle
	fn      func(entityrange.ID, *A)
	less    func(a, b *A) bool

	entities entityrange.View
	order    []entityrange.ID
	orderSet bool
}

// NewSorted1 builds a sorted system over one required component, with
// less the strict-weak-order comparator over it.
func NewSorted1[A any](reg *registry.Registry, less func(a, b *A) bool, fn func(entityrange.ID, *A), opts ...Option) *Sorted1[A] {
	cfg := newConfig(opts)
	pa := registry.Pool[A](reg)
	reads, writes := classify[A]()
	s := &Sorted1[A]{poolA: pa, filters: cfg.filters, fn: fn, less: less}
	s.Base = newBase(Access{Reads: reads, Writes: writes}, cfg)
	return s
}

func (s *Sorted1[A]) Kind() Kind       { return KindSorted }
func (s *Sorted1[A]) Sequential() bool { return s.NotParallel() }

func (s *Sorted1[A]) sourcePools() []component.Handle {
	return append([]component.Handle{s.poolA}, s.filters...)
}

func (s *Sorted1[A]) Rebuild(force bool) {
	if !force && !s.shouldRebuild(s.sourcePools()) {
		s.resortIfModified()
		return
	}
	s.entities = subtractAll(s.poolA.Entities(), filterViewsOf(s.filters))
	s.rebuildOrder()
}

func (s *Sorted1[A]) resortIfModified() {
	if s.poolA.DataModified() {
		s.rebuildOrder()
	}
}

func (s *Sorted1[A]) rebuildOrder() {
	s.order = s.order[:0]
	for _, r := range s.entities {
		for id := r.First; ; id++ {
			s.order = append(s.order, id)
			if id == r.Last {
				break
			}
		}
	}
	ids := s.order
	sort.SliceStable(ids, func(i, j int) bool {
		return s.less(s.poolA.FindComponentData(ids[i]), s.poolA.FindComponentData(ids[j]))
	})
	s.orderSet = true
}

func (s *Sorted1[A]) Invoke() {
	dispatchIDs(s.order, s.Sequential(), func(id entityrange.ID) {
		s.fn(id, s.poolA.FindComponentData(id))
	})
	notifyIfMutable(s.poolA)
}

// Sorted2 is a two-component sorted system, sorted by the comparator
// applied to the first (key) component.
type Sorted2[A, B any] struct {
	Base
	poolA   *component.Pool[A]
	poolB   *component.Pool[B]
	filters []component.Handle
	fn      func(entityrange.ID, *A, *B)
	less    func(a, b *A) bool

	entities entityrange.View
	order    []entityrange.ID
}

// NewSorted2 builds a sorted system over two required components,
// sorted by less applied to the first component type.
func NewSorted2[A, B any](reg *registry.Registry, less func(a, b *A) bool, fn func(entityrange.ID, *A, *B), opts ...Option) *Sorted2[A, B] {
	cfg := newConfig(opts)
	pa, pb := registry.Pool[A](reg), registry.Pool[B](reg)
	ra, wa := classify[A]()
	rb, wb := classify[B]()
	s := &Sorted2[A, B]{poolA: pa, poolB: pb, filters: cfg.filters, fn: fn, less: less}
	s.Base = newBase(mergeAccess(Access{Reads: ra, Writes: wa}, Access{Reads: rb, Writes: wb}), cfg)
	return s
}

func (s *Sorted2[A, B]) Kind() Kind       { return KindSorted }
func (s *Sorted2[A, B]) Sequential() bool { return s.NotParallel() }

func (s *Sorted2[A, B]) sourcePools() []component.Handle {
	return append([]component.Handle{s.poolA, s.poolB}, s.filters...)
}

func (s *Sorted2[A, B]) Rebuild(force bool) {
	if !force && !s.shouldRebuild(s.sourcePools()) {
		if s.poolA.DataModified() {
			s.rebuildOrder()
		}
		return
	}
	set := intersectAll([]entityrange.View{s.poolA.Entities(), s.poolB.Entities()})
	s.entities = subtractAll(set, filterViewsOf(s.filters))
	s.rebuildOrder()
}

func (s *Sorted2[A, B]) rebuildOrder() {
	s.order = s.order[:0]
	for _, r := range s.entities {
		for id := r.First; ; id++ {
			s.order = append(s.order, id)
			if id == r.Last {
				break
			}
		}
	}
	ids := s.order
	sort.SliceStable(ids, func(i, j int) bool {
		return s.less(s.poolA.FindComponentData(ids[i]), s.poolA.FindComponentData(ids[j]))
	})
}

func (s *Sorted2[A, B]) Invoke() {
	dispatchIDs(s.order, s.Sequential(), func(id entityrange.ID) {
		s.fn(id, s.poolA.FindComponentData(id), s.poolB.FindComponentData(id))
	})
	notifyIfMutable(s.poolA)
	notifyIfMutable(s.poolB)
}
