package system

import (
	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/contract"
	"github.com/oriumgames/ecscore/internal/registry"
)

// Global1 is a one-component global system: fn is invoked exactly once
// per run against the pool's single stored instance, with no per-entity
// iteration (spec §4.3's global path). Global systems always run
// sequentially; they have no entity set to parallelize over.
type Global1[A any] struct {
	Base
	poolA *component.Pool[A]
	fn    func(*A)
}

// NewGlobal1 builds a global system over one global component.
func NewGlobal1[A any](reg *registry.Registry, fn func(*A), opts ...Option) *Global1[A] {
	cfg := newConfig(opts)
	pa := registry.Pool[A](reg)
	reads, writes := classify[A]()
	s := &Global1[A]{poolA: pa, fn: fn}
	s.Base = newBase(Access{Reads: reads, Writes: writes}, cfg)
	return s
}

func (s *Global1[A]) Kind() Kind       { return KindGlobal }
func (s *Global1[A]) Sequential() bool { return true }

// Rebuild is a no-op for global systems: there is no entity set to
// recompute, only the single stored instance.
func (s *Global1[A]) Rebuild(force bool) {}

func (s *Global1[A]) Invoke() {
	v := s.poolA.GlobalComponent()
	if v == nil {
		contract.Violate("global_system", "global component %T has no instance", *new(A))
		return
	}
	s.fn(v)
	notifyIfMutable(s.poolA)
}

// Global2 is a two-component global system.
type Global2[A, B any] struct {
	Base
	poolA *component.Pool[A]
	poolB *component.Pool[B]
	fn    func(*A, *B)
}

// NewGlobal2 builds a global system over two global components.
func NewGlobal2[A, B any](reg *registry.Registry, fn func(*A, *B), opts ...Option) *Global2[A, B] {
	cfg := newConfig(opts)
	pa, pb := registry.Pool[A](reg), registry.Pool[B](reg)
	ra, wa := classify[A]()
	rb, wb := classify[B]()
	s := &Global2[A, B]{poolA: pa, poolB: pb, fn: fn}
	s.Base = newBase(mergeAccess(Access{Reads: ra, Writes: wa}, Access{Reads: rb, Writes: wb}), cfg)
	return s
}

func (s *Global2[A, B]) Kind() Kind       { return KindGlobal }
func (s *Global2[A, B]) Sequential() bool { return true }

func (s *Global2[A, B]) Rebuild(force bool) {}

func (s *Global2[A, B]) Invoke() {
	va, vb := s.poolA.GlobalComponent(), s.poolB.GlobalComponent()
	if va == nil || vb == nil {
		contract.Violate("global_system", "a global component has no instance")
		return
	}
	s.fn(va, vb)
	notifyIfMutable(s.poolA)
	notifyIfMutable(s.poolB)
}
