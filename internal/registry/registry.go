// Package registry implements the runtime's pool registry: the mapping
// from component type identity to component pool described in spec §2,
// guarded by the reader/writer lock discipline of spec §5 (shared for
// lookup and commit, exclusive for first-time pool creation and reset),
// plus the per-goroutine pool-pointer cache that short-circuits the
// shared lock on hot lookups.
package registry

import (
	"reflect"
	"sync"

	"github.com/oriumgames/ecscore/component"
)

// Registry owns every component pool, keyed by the component's runtime
// type identity. Go has no compile-time type hashing, so reflect.Type
// stands in for the stable per-type identifier the design notes call
// for (§9: "a compile-time-known unique identifier per component type").
type Registry struct {
	mu    sync.RWMutex
	pools map[reflect.Type]component.Handle
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{pools: make(map[reflect.Type]component.Handle)}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Pool returns the pool for T, creating it on first reference with the
// flags T was declared with (component.Declare; undeclared types default
// to no flags).
func Pool[T any](r *Registry) *component.Pool[T] {
	t := typeOf[T]()

	r.mu.RLock()
	h, ok := r.pools[t]
	r.mu.RUnlock()
	if ok {
		return h.(*component.Pool[T])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.pools[t]; ok {
		return h.(*component.Pool[T])
	}
	p := component.New[T](component.FlagsOf[T]())
	r.pools[t] = p
	return p
}

// Lookup returns the already-created pool for T, or nil if none exists
// yet. Unlike Pool it never creates one, so it never needs the
// exclusive branch of the lock.
func Lookup[T any](r *Registry) *component.Pool[T] {
	t := typeOf[T]()
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.pools[t]
	if !ok {
		return nil
	}
	return h.(*component.Pool[T])
}

// All returns every pool currently registered, in no particular order.
// Used by commit_changes (every pool commits in parallel).
func (r *Registry) All() []component.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]component.Handle, 0, len(r.pools))
	for _, h := range r.pools {
		out = append(out, h)
	}
	return out
}

// Reset drops every pool. The registry object itself survives so that
// per-goroutine Cache values that still reference it remain valid,
// matching spec §6's reset() contract.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools = make(map[reflect.Type]component.Handle)
}

// Cache is the explicit per-goroutine handle the design notes ask for
// in place of thread-local storage: "a per-thread vector that can be
// gathered into one" (§9). A goroutine that calls AddComponent/
// RemoveComponent/GetComponent repeatedly should keep one Cache and
// reuse it, rather than re-resolving the type through the registry's
// shared lock on every call.
type Cache struct {
	reg     *Registry
	writers map[reflect.Type]any
}

// NewCache returns a cache bound to reg.
func NewCache(reg *Registry) *Cache {
	return &Cache{reg: reg, writers: make(map[reflect.Type]any)}
}

// Writer returns this goroutine's Writer for T, creating the pool and
// the writer on first use.
func Writer[T any](c *Cache) *component.Writer[T] {
	t := typeOf[T]()
	if w, ok := c.writers[t]; ok {
		return w.(*component.Writer[T])
	}
	p := Pool[T](c.reg)
	w := p.NewWriter()
	c.writers[t] = w
	return w
}
