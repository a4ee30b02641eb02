// Package scheduler builds and runs the dependency-ordered, group-phased
// execution plan for a set of system.Runner values, per spec §4.4/§4.5:
// dependencies are detected automatically from each system's declared
// component Access rather than named Before/After edges, systems are
// phased by ascending group<K> with a full barrier between groups, and
// within a group conflict-free systems run concurrently via a bounded
// worker pool.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/oriumgames/ecscore/system"
)

// Diagnostics reports system execution, matching the AMBIENT STACK's
// pluggable observability seam (the runtime facade passes its own
// Diagnostics here: NopDiagnostics by default, or a zap-backed one
// installed with WithDiagnostics).
type Diagnostics interface {
	SystemStart(name string)
	SystemEnd(name string, err error, duration time.Duration)
}

// node is a registered system together with its scheduling-time state.
type node struct {
	runner system.Runner
	name   string // for diagnostics only; scheduling never depends on it
	order  int    // insertion index, used for deterministic tie-breaks
	bits   accessBits
}

// Scheduler builds a dependency-ordered, group-phased execution plan
// over system.Runner values and runs it with a bounded worker pool.
type Scheduler struct {
	mu      sync.RWMutex
	ti      TypeIndex
	nodes   []*node // manual_update systems excluded
	manual  []*node
	batches [][]*node
	workers int
}

// NewScheduler returns an empty scheduler whose RunSystems worker pool
// is sized to workers goroutines, or runtime.GOMAXPROCS(0) if workers
// is <= 0.
func NewScheduler(workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scheduler{workers: max(workers, 1)}
}

// AddSystem registers r under name (used only for diagnostics). Systems
// with ManualUpdate() true are never added to the automatic schedule;
// the host must invoke them directly (spec §4.4).
func (s *Scheduler) AddSystem(name string, r system.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &node{runner: r, name: name, order: len(s.nodes) + len(s.manual)}
	if r.ManualUpdate() {
		s.manual = append(s.manual, n)
		return
	}
	n.bits = buildAccessBits(&s.ti, r.Access())
	s.nodes = append(s.nodes, n)
	s.batches = nil
}

// Build computes the dependency DAG and parallel batches for every
// registered, non-manual system.
func (s *Scheduler) Build() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Phase by ascending group<K>, preserving insertion order within a
	// group (stable sort), then process one contiguous group-run at a
	// time: group<K> is a full barrier (spec §4.4: "systems in smaller K
	// run before systems in larger K"), so cross-group dependency edges
	// are unnecessary — the phase boundary already enforces the order.
	ordered := append([]*node(nil), s.nodes...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].runner.Group() < ordered[j].runner.Group() })

	var batches [][]*node
	start := 0
	for start < len(ordered) {
		end := start + 1
		for end < len(ordered) && ordered[end].runner.Group() == ordered[start].runner.Group() {
			end++
		}
		group := ordered[start:end]
		outgoing := buildDependencyEdges(group)
		batches = append(batches, computeBatches(group, outgoing)...)
		start = end
	}

	s.batches = batches
	return nil
}

// buildDependencyEdges scans dependencies per component hash: for every
// hash h a system references, it walks its predecessors from nearest to
// farthest, adds an edge to each one that conflicts on h specifically,
// and stops scanning *for that hash* at the first predecessor that
// writes h — each hash independently finds its own predecessors, which
// are not necessarily the ones another of this system's hashes finds.
// That nearest writer's own edges already chain back through every
// earlier access to h, so this transitively orders every true conflict
// without needing a direct edge to every one of them.
func buildDependencyEdges(group []*node) map[*node][]*node {
	outgoing := make(map[*node][]*node, len(group))
	for i, n := range group {
		linked := make(map[*node]bool)
		for _, h := range n.bits.hashes() {
			for j := i - 1; j >= 0; j-- {
				p := group[j]
				if !n.bits.conflictsOn(p.bits, h) {
					continue
				}
				if !linked[p] {
					linked[p] = true
					outgoing[p] = append(outgoing[p], n)
				}
				if p.bits.writes.Has(h) {
					break
				}
			}
		}
	}
	return outgoing
}

// computeBatches groups a dependency-ordered set of nodes into the
// fewest batches such that within a batch no two nodes conflict, using
// Kahn's algorithm leveled by in-degree.
func computeBatches(group []*node, outgoing map[*node][]*node) [][]*node {
	inDegree := make(map[*node]int, len(group))
	for _, n := range group {
		inDegree[n] = 0
	}
	for _, targets := range outgoing {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	var ready []*node
	for _, n := range group {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].order < ready[j].order })

	var batches [][]*node
	remaining := len(group)
	for remaining > 0 && len(ready) > 0 {
		batch := ready
		batches = append(batches, batch)
		remaining -= len(batch)

		var next []*node
		for _, n := range batch {
			for _, t := range outgoing[n] {
				inDegree[t]--
				if inDegree[t] == 0 {
					next = append(next, t)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i].order < next[j].order })
		ready = next
	}
	return batches
}

// RunSystems runs one pass of the built schedule: rebuild + invoke for
// every system whose interval has elapsed, group-batch by group-batch,
// with conflict-free systems in a batch run concurrently over a bounded
// worker pool.
func (s *Scheduler) RunSystems(ctx context.Context, diag Diagnostics) {
	s.mu.RLock()
	batches := s.batches
	s.mu.RUnlock()

	type job struct {
		n    *node
		done func()
	}
	work := make(chan job)
	workers := s.workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for j := range work {
				s.runNode(j.n, diag)
				j.done()
			}
		}()
	}
	defer func() {
		close(work)
		wg.Wait()
	}()

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return
		}
		var batchWG sync.WaitGroup
		for _, n := range batch {
			if !n.runner.Enabled() || !n.runner.ShouldRun(time.Now()) {
				continue
			}
			batchWG.Add(1)
			work <- job{n: n, done: batchWG.Done}
		}
		batchWG.Wait()
	}
}

// RunManual invokes every manual_update system directly, bypassing the
// automatic schedule entirely (spec §4.4).
func (s *Scheduler) RunManual(diag Diagnostics) {
	s.mu.RLock()
	manual := s.manual
	s.mu.RUnlock()
	for _, n := range manual {
		if !n.runner.Enabled() || !n.runner.ShouldRun(time.Now()) {
			continue
		}
		s.runNode(n, diag)
	}
}

func (s *Scheduler) runNode(n *node, diag Diagnostics) {
	if diag != nil {
		diag.SystemStart(n.name)
	}
	start := time.Now()
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		n.runner.Rebuild(false)
		n.runner.Invoke()
	}()
	n.runner.MarkRun(time.Now())
	if diag != nil {
		diag.SystemEnd(n.name, runErr, time.Since(start))
	}
}
