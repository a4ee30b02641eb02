package system

import (
	"reflect"
	"sort"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/internal/registry"
)

// parentCheck is one sub-component constraint on a hierarchy system's
// parent<…> parameter: "an ordinary sub-type requires the parent to own
// it; a filter sub-type requires the parent to not own it" (spec §4.3).
type parentCheck struct {
	pool     component.Handle
	required bool
}

// ParentOption configures the parent<…> sub-component constraints of a
// hierarchy system.
type ParentOption func(*[]parentCheck)

// ParentHas requires the parent to own a T.
func ParentHas[T any](reg *registry.Registry) ParentOption {
	h := registry.Pool[T](reg)
	return func(checks *[]parentCheck) { *checks = append(*checks, parentCheck{pool: h, required: true}) }
}

// ParentNotHas requires the parent to NOT own a T.
func ParentNotHas[T any](reg *registry.Registry) ParentOption {
	h := registry.Pool[T](reg)
	return func(checks *[]parentCheck) { *checks = append(*checks, parentCheck{pool: h, required: false}) }
}

type hierarchyEntry struct {
	id    entityrange.ID
	root  entityrange.ID
	depth int
}

// Hierarchy1 is a one-component hierarchy system: it classifies each
// matching entity into a tree by following its parent_id chain, and
// invokes fn in (root, depth) order so every parent runs before its
// descendants (spec §4.3's hierarchy path). Iteration is always
// sequential (spec §5: "a child may read what its parent wrote within
// the same run").
type Hierarchy1[A any] struct {
	Base
	poolA     *component.Pool[A]
	poolP     *component.Pool[entityrange.ParentID]
	filters   []component.Handle
	checks    []parentCheck
	fn        func(entityrange.ID, *A, entityrange.ID)

	order []hierarchyEntry
}

// NewHierarchy1 builds a hierarchy system over one data component. fn
// receives the entity id, its component, and its parent's id.
func NewHierarchy1[A any](reg *registry.Registry, fn func(entityrange.ID, *A, entityrange.ID), opts []Option, parentOpts ...ParentOption) *Hierarchy1[A] {
	cfg := newConfig(opts)
	pa := registry.Pool[A](reg)
	pp := registry.Pool[entityrange.ParentID](reg)
	var checks []parentCheck
	for _, po := range parentOpts {
		po(&checks)
	}
	reads, writes := classify[A]()
	s := &Hierarchy1[A]{poolA: pa, poolP: pp, filters: cfg.filters, checks: checks, fn: fn}
	// The parent_id chain is only ever read (fn receives the parent's id
	// by value, never a pointer into the pool), regardless of whether
	// ParentID itself is declared Immutable.
	access := mergeAccess(Access{Reads: reads, Writes: writes}, Access{Reads: []reflect.Type{typeOf[entityrange.ParentID]()}})
	s.Base = newBase(access, cfg)
	return s
}

func (s *Hierarchy1[A]) Kind() Kind       { return KindHierarchy }
func (s *Hierarchy1[A]) Sequential() bool { return true }

func (s *Hierarchy1[A]) sourcePools() []component.Handle {
	pools := append([]component.Handle{s.poolA, s.poolP}, s.filters...)
	for _, c := range s.checks {
		pools = append(pools, c.pool)
	}
	return pools
}

func (s *Hierarchy1[A]) Rebuild(force bool) {
	if !force && !s.shouldRebuild(s.sourcePools()) {
		return
	}
	set := intersectAll([]entityrange.View{s.poolA.Entities(), s.poolP.Entities()})
	set = subtractAll(set, filterViewsOf(s.filters))

	var candidates []entityrange.ID
	for _, r := range set {
		for id := r.First; ; id++ {
			if s.passesParentChecks(id) {
				candidates = append(candidates, id)
			}
			if id == r.Last {
				break
			}
		}
	}

	s.order = s.order[:0]
	for _, id := range candidates {
		root, depth := s.rootAndDepth(id)
		s.order = append(s.order, hierarchyEntry{id: id, root: root, depth: depth})
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		a, b := s.order[i], s.order[j]
		if a.root != b.root {
			return a.root < b.root
		}
		if a.depth != b.depth {
			return a.depth < b.depth
		}
		return a.id < b.id
	})
}

// passesParentChecks applies the parent<X, Y*>-style sub-component
// constraints to id's parent.
func (s *Hierarchy1[A]) passesParentChecks(id entityrange.ID) bool {
	if len(s.checks) == 0 {
		return true
	}
	parent := s.poolP.FindComponentData(id)
	if parent == nil {
		return false
	}
	for _, c := range s.checks {
		has := c.pool.HasEntity(entityrange.Single(parent.Parent))
		if has != c.required {
			return false
		}
	}
	return true
}

// rootAndDepth walks the parent chain, via the full parent_id pool
// (not restricted to this system's entity set), until an entity with no
// parent_id component is reached; that entity is the root.
func (s *Hierarchy1[A]) rootAndDepth(id entityrange.ID) (entityrange.ID, int) {
	depth := 0
	cur := id
	for {
		p := s.poolP.FindComponentData(cur)
		if p == nil {
			return cur, depth
		}
		cur = p.Parent
		depth++
	}
}

func (s *Hierarchy1[A]) Invoke() {
	for _, e := range s.order {
		parent := s.poolP.FindComponentData(e.id)
		var parentID entityrange.ID
		if parent != nil {
			parentID = parent.Parent
		}
		s.fn(e.id, s.poolA.FindComponentData(e.id), parentID)
	}
	notifyIfMutable(s.poolA)
}
