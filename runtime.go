// Package ecscore is an embeddable entity-component-system runtime: a
// host owns one Runtime, registers systems against it, and drives it
// forward by calling Update (or CommitChanges/RunSystems separately)
// once per frame.
package ecscore

import (
	"context"
	"sync"
	"time"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/contract"
	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/internal/registry"
	"github.com/oriumgames/ecscore/internal/scheduler"
	"github.com/oriumgames/ecscore/system"
)

// Runtime owns the pool registry and the system schedule. The zero
// value is not usable; construct one with New.
type Runtime struct {
	reg     *registry.Registry
	sched   *scheduler.Scheduler
	cache   *registry.Cache
	diag    Diagnostics
	workers int
}

type runtimeConfig struct {
	workers int
	diag    Diagnostics
	handler contract.Handler
}

// RuntimeOption configures a Runtime at construction time.
type RuntimeOption func(*runtimeConfig)

// WithWorkerCount bounds how many systems within a schedule batch run
// concurrently. n <= 0 defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(n int) RuntimeOption {
	return func(c *runtimeConfig) { c.workers = n }
}

// WithDiagnostics installs d as the runtime's Diagnostics sink,
// replacing the default NopDiagnostics.
func WithDiagnostics(d Diagnostics) RuntimeOption {
	return func(c *runtimeConfig) { c.diag = d }
}

// WithContractHandler installs h as the process-wide contract-violation
// handler (see package contract) when the Runtime is created. It stays
// installed until contract.SetHandler replaces it.
func WithContractHandler(h contract.Handler) RuntimeOption {
	return func(c *runtimeConfig) { c.handler = h }
}

// New returns a Runtime with an empty registry and no registered
// systems.
func New(opts ...RuntimeOption) *Runtime {
	cfg := runtimeConfig{diag: NopDiagnostics{}}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.handler != nil {
		contract.SetHandler(cfg.handler)
	}
	reg := registry.New()
	return &Runtime{
		reg:     reg,
		sched:   scheduler.NewScheduler(cfg.workers),
		cache:   registry.NewCache(reg),
		diag:    cfg.diag,
		workers: cfg.workers,
	}
}

// Reset drops every pool and every registered system. The Runtime
// itself remains valid and usable afterward.
func (rt *Runtime) Reset() {
	rt.reg.Reset()
	rt.sched = scheduler.NewScheduler(rt.workers)
	rt.cache = registry.NewCache(rt.reg)
}

// CommitChanges merges every pool's enqueued additions and removals
// into pool state. Pools commit concurrently, one goroutine each.
func (rt *Runtime) CommitChanges() {
	start := time.Now()
	rt.diag.CommitStart()

	handles := rt.reg.All()
	var wg sync.WaitGroup
	wg.Add(len(handles))
	for _, h := range handles {
		go func(h component.Handle) {
			defer wg.Done()
			h.Commit()
		}(h)
	}
	wg.Wait()

	rt.diag.CommitEnd(time.Since(start))
}

// RunSystems runs one pass of the automatic schedule: every registered,
// non-manual_update system whose interval has elapsed rebuilds (if its
// source pools changed) and runs, group by group.
func (rt *Runtime) RunSystems(ctx context.Context) {
	rt.sched.RunSystems(ctx, rt.diag)
}

// RunManualSystems invokes every manual_update system directly,
// bypassing the automatic schedule.
func (rt *Runtime) RunManualSystems() {
	rt.sched.RunManual(rt.diag)
}

// Update is the convenience entry point for a host's frame loop:
// commit, then run the automatic schedule once.
func (rt *Runtime) Update(ctx context.Context) {
	rt.CommitChanges()
	rt.RunSystems(ctx)
}

// Build computes the dependency DAG and parallel batches for every
// registered automatic system. It must be called (and re-called,
// whenever systems are added afterward) before RunSystems observes the
// new schedule.
func (rt *Runtime) Build() error {
	return rt.sched.Build()
}

// Registry exposes the Runtime's pool registry, for callers (generated
// code, WithFilter options) that need to resolve a pool directly.
func (rt *Runtime) Registry() *registry.Registry {
	return rt.reg
}

// Cache returns the Runtime's default per-goroutine write buffer. It is
// convenient for single-goroutine hosts; a host driving component
// mutations from multiple goroutines should call NewCache per goroutine
// instead; a Cache must never be shared across goroutines.
func (rt *Runtime) Cache() *registry.Cache {
	return rt.cache
}

// NewCache returns a fresh per-goroutine write buffer bound to the
// Runtime's registry.
func (rt *Runtime) NewCache() *registry.Cache {
	return registry.NewCache(rt.reg)
}

// AddComponent enqueues value as the component for every entity in r.
func AddComponent[T any](rt *Runtime, r entityrange.Range, value T) {
	registry.Writer[T](rt.cache).Add(r, value)
}

// AddComponentSpan enqueues values, one per entity of r in order.
// len(values) must equal r.Count().
func AddComponentSpan[T any](rt *Runtime, r entityrange.Range, values []T) {
	registry.Writer[T](rt.cache).AddSpan(r, values)
}

// AddComponentGenerator enqueues fn to be invoked once per entity of r
// at commit time.
func AddComponentGenerator[T any](rt *Runtime, r entityrange.Range, fn func(entityrange.ID) T) {
	registry.Writer[T](rt.cache).AddGenerator(r, fn)
}

// RemoveComponent enqueues r for removal from T's pool.
func RemoveComponent[T any](rt *Runtime, r entityrange.Range) {
	registry.Writer[T](rt.cache).Remove(r)
}

// GetComponent returns a pointer to id's stored T, or nil if id does
// not currently own one.
func GetComponent[T any](rt *Runtime, id entityrange.ID) *T {
	return registry.Pool[T](rt.reg).FindComponentData(id)
}

// GetComponents returns a contiguous slice covering r, or nil if r is
// not fully owned by a single current range.
func GetComponents[T any](rt *Runtime, r entityrange.Range) []T {
	return registry.Pool[T](rt.reg).GetComponents(r)
}

// GetGlobalComponent returns the single instance of a Global component,
// or nil if none has been added yet.
func GetGlobalComponent[T any](rt *Runtime) *T {
	return registry.Pool[T](rt.reg).GlobalComponent()
}

// HasComponent reports whether r is fully owned by T's pool.
func HasComponent[T any](rt *Runtime, r entityrange.Range) bool {
	return registry.Pool[T](rt.reg).HasEntity(r)
}

// GetComponentCount returns the number of entities currently owning a
// T.
func GetComponentCount[T any](rt *Runtime) int64 {
	return registry.Pool[T](rt.reg).Count()
}

// GetEntityCount is an alias for GetComponentCount kept for symmetry
// with the host-facing vocabulary that names both operations
// separately even though they return the same count here.
func GetEntityCount[T any](rt *Runtime) int64 {
	return GetComponentCount[T](rt)
}

// AddRanged1 builds and registers a one-component ranged system.
func AddRanged1[A any](rt *Runtime, name string, fn func(entityrange.ID, *A), opts ...system.Option) *system.Ranged1[A] {
	s := system.NewRanged1[A](rt.reg, fn, opts...)
	rt.sched.AddSystem(name, s)
	return s
}

// AddRanged2 builds and registers a two-component ranged system.
func AddRanged2[A, B any](rt *Runtime, name string, fn func(entityrange.ID, *A, *B), opts ...system.Option) *system.Ranged2[A, B] {
	s := system.NewRanged2[A, B](rt.reg, fn, opts...)
	rt.sched.AddSystem(name, s)
	return s
}

// AddRanged3 builds and registers a three-component ranged system.
func AddRanged3[A, B, C any](rt *Runtime, name string, fn func(entityrange.ID, *A, *B, *C), opts ...system.Option) *system.Ranged3[A, B, C] {
	s := system.NewRanged3[A, B, C](rt.reg, fn, opts...)
	rt.sched.AddSystem(name, s)
	return s
}

// AddSorted1 builds and registers a one-component sorted system.
func AddSorted1[A any](rt *Runtime, name string, less func(a, b *A) bool, fn func(entityrange.ID, *A), opts ...system.Option) *system.Sorted1[A] {
	s := system.NewSorted1[A](rt.reg, less, fn, opts...)
	rt.sched.AddSystem(name, s)
	return s
}

// AddSorted2 builds and registers a two-component sorted system.
func AddSorted2[A, B any](rt *Runtime, name string, less func(a, b *A) bool, fn func(entityrange.ID, *A, *B), opts ...system.Option) *system.Sorted2[A, B] {
	s := system.NewSorted2[A, B](rt.reg, less, fn, opts...)
	rt.sched.AddSystem(name, s)
	return s
}

// AddHierarchy1 builds and registers a one-component hierarchy system.
func AddHierarchy1[A any](rt *Runtime, name string, fn func(entityrange.ID, *A, entityrange.ID), opts []system.Option, parentOpts ...system.ParentOption) *system.Hierarchy1[A] {
	s := system.NewHierarchy1[A](rt.reg, fn, opts, parentOpts...)
	rt.sched.AddSystem(name, s)
	return s
}

// AddGlobal1 builds and registers a one-component global system.
func AddGlobal1[A any](rt *Runtime, name string, fn func(*A), opts ...system.Option) *system.Global1[A] {
	s := system.NewGlobal1[A](rt.reg, fn, opts...)
	rt.sched.AddSystem(name, s)
	return s
}

// AddGlobal2 builds and registers a two-component global system.
func AddGlobal2[A, B any](rt *Runtime, name string, fn func(*A, *B), opts ...system.Option) *system.Global2[A, B] {
	s := system.NewGlobal2[A, B](rt.reg, fn, opts...)
	rt.sched.AddSystem(name, s)
	return s
}
