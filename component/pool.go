// Package component implements the per-type component pool: the store
// that maps contiguous entity ranges to component values, absorbs
// deferred add/remove requests from many goroutines, and compacts those
// requests into a sorted, non-overlapping range index on commit.
package component

import (
	"sort"
	"sync"

	"github.com/oriumgames/ecscore/contract"
	"github.com/oriumgames/ecscore/entityrange"
)

// Handle is the type-erased view of a Pool used by the registry,
// scheduler and system argument builders, none of which know the
// concrete component type T.
type Handle interface {
	// Commit merges all enqueued mutations into pool state.
	Commit()
	// Entities returns the pool's current entity set in canonical form.
	Entities() entityrange.View
	// HasEntity reports whether range is fully owned by the pool.
	HasEntity(r entityrange.Range) bool
	// Count returns the number of entities currently owning a T.
	Count() int64
	// Flags returns the component's static flags.
	Flags() Flags
	// DataAdded, DataRemoved, DataModified report the change flags set
	// by any commit (added/removed) or by NotifyModified (modified)
	// since the last ClearFlags; Commit never clears them.
	DataAdded() bool
	DataRemoved() bool
	DataModified() bool
	// ClearFlags resets the change-tracking bits.
	ClearFlags()
	// NotifyModified sets the data_modified flag; called by a system
	// after it invoked the callable with a mutable, non-filter
	// reference to this pool's component type.
	NotifyModified()
}

type addKind int

const (
	addValue addKind = iota
	addSpan
	addGenerator
)

type addEntry[T any] struct {
	kind   addKind
	rng    entityrange.Range
	value  T
	span   []T
	gen    func(entityrange.ID) T
}

// Writer is the append-only handle a single goroutine uses to enqueue
// mutations against a Pool without taking any lock. The design notes
// call for "a per-thread append-only buffer... and a single-consumer
// gather at commit time"; Writer is that buffer, made explicit since Go
// has no goroutine-local storage to hide it behind. Callers obtain one
// Writer per goroutine (typically cached alongside the registry lookup,
// see package registry) and must not share a Writer across goroutines.
type Writer[T any] struct {
	pool    *Pool[T]
	adds    []addEntry[T]
	removes []entityrange.Range
}

// Add enqueues value as the component for every entity in r.
func (w *Writer[T]) Add(r entityrange.Range, value T) {
	w.adds = append(w.adds, addEntry[T]{kind: addValue, rng: r, value: value})
}

// AddSpan enqueues values, one per entity of r in order. len(values)
// must equal r.Count().
func (w *Writer[T]) AddSpan(r entityrange.Range, values []T) {
	if int64(len(values)) != r.Count() {
		contract.Violate("add_component_span", "range [%d,%d] has %d entities but %d values were given", r.First, r.Last, r.Count(), len(values))
		return
	}
	cp := make([]T, len(values))
	copy(cp, values)
	w.adds = append(w.adds, addEntry[T]{kind: addSpan, rng: r, span: cp})
}

// AddGenerator enqueues fn to be invoked once per entity of r at commit.
func (w *Writer[T]) AddGenerator(r entityrange.Range, fn func(entityrange.ID) T) {
	w.adds = append(w.adds, addEntry[T]{kind: addGenerator, rng: r, gen: fn})
}

// Remove enqueues r for removal.
func (w *Writer[T]) Remove(r entityrange.Range) {
	w.removes = append(w.removes, r)
}

// segment is a contiguous run of entities together with (for bound
// components) the data values for that run, used as the common currency
// while merging removals and additions into the pool's range index.
type segment[T any] struct {
	rng  entityrange.Range
	data []T
}

// Pool is the per-type component store described in spec §4.2.
type Pool[T any] struct {
	flags Flags

	writersMu sync.Mutex
	writers   []*Writer[T]

	ranges []entityrange.Range
	data   []T // unused (len 0) for Tag pools

	globalValue T
	globalSet   bool

	dataAdded, dataRemoved, dataModified bool

	tagSentinel T
}

// New creates an empty pool with the given static flags.
func New[T any](flags Flags) *Pool[T] {
	return &Pool[T]{flags: flags}
}

// NewWriter returns a fresh per-goroutine enqueue handle for the pool.
func (p *Pool[T]) NewWriter() *Writer[T] {
	w := &Writer[T]{pool: p}
	p.writersMu.Lock()
	p.writers = append(p.writers, w)
	p.writersMu.Unlock()
	return w
}

func (p *Pool[T]) Flags() Flags { return p.flags }

func (p *Pool[T]) DataAdded() bool    { return p.dataAdded }
func (p *Pool[T]) DataRemoved() bool  { return p.dataRemoved }
func (p *Pool[T]) DataModified() bool { return p.dataModified }

func (p *Pool[T]) ClearFlags() {
	p.dataAdded = false
	p.dataRemoved = false
	p.dataModified = false
}

func (p *Pool[T]) NotifyModified() {
	p.dataModified = true
}

// Entities returns the pool's current entity set.
func (p *Pool[T]) Entities() entityrange.View {
	if p.flags.Has(Global) {
		if p.globalSet {
			return entityrange.View{entityrange.All}
		}
		return nil
	}
	return p.ranges
}

// HasEntity reports whether r is fully contained in the pool's current
// entity set.
func (p *Pool[T]) HasEntity(r entityrange.Range) bool {
	if p.flags.Has(Global) {
		return p.globalSet
	}
	for _, own := range p.ranges {
		if own.ContainsRange(r) {
			return true
		}
	}
	return false
}

// Count returns the number of entities currently owning a T.
func (p *Pool[T]) Count() int64 {
	if p.flags.Has(Global) {
		if p.globalSet {
			return 1
		}
		return 0
	}
	var n int64
	for _, r := range p.ranges {
		n += r.Count()
	}
	return n
}

// FindComponentData returns a pointer to the stored value for id, or
// nil if id does not own a T.
func (p *Pool[T]) FindComponentData(id entityrange.ID) *T {
	if p.flags.Has(Global) {
		if p.globalSet {
			return &p.globalValue
		}
		return nil
	}
	idx, r, ok := p.locate(id)
	if !ok {
		return nil
	}
	if p.flags.Has(Tag) {
		return &p.tagSentinel
	}
	off := p.dataOffset(idx)
	return &p.data[off+int(r.Offset(id))]
}

// GetComponents returns a contiguous slice of the stored values covering
// r, or nil if r is not fully owned by a single current range.
func (p *Pool[T]) GetComponents(r entityrange.Range) []T {
	if p.flags.Has(Global) || p.flags.Has(Tag) {
		return nil
	}
	idx, own, ok := p.locate(r.First)
	if !ok || !own.ContainsRange(r) {
		return nil
	}
	off := p.dataOffset(idx)
	start := off + int(own.Offset(r.First))
	return p.data[start : start+int(r.Count())]
}

// GlobalComponent returns the single instance of a Global pool, or nil
// if none has been added yet.
func (p *Pool[T]) GlobalComponent() *T {
	if !p.globalSet {
		return nil
	}
	return &p.globalValue
}

// locate finds the range owning id, if any, and its index within
// p.ranges.
func (p *Pool[T]) locate(id entityrange.ID) (int, entityrange.Range, bool) {
	i := sort.Search(len(p.ranges), func(i int) bool { return p.ranges[i].Last >= id })
	if i < len(p.ranges) && p.ranges[i].Contains(id) {
		return i, p.ranges[i], true
	}
	return -1, entityrange.Range{}, false
}

// dataOffset returns the offset into p.data at which the range at
// p.ranges[idx] begins.
func (p *Pool[T]) dataOffset(idx int) int {
	off := 0
	for i := 0; i < idx; i++ {
		off += int(p.ranges[i].Count())
	}
	return off
}

// Commit merges all enqueued removals and additions into pool state,
// in that order (removals first, then additions), per spec §4.2.
func (p *Pool[T]) Commit() {
	adds, removes := p.gather()

	if p.flags.Has(Global) {
		p.commitGlobal(adds, removes)
		return
	}

	if p.flags.Has(Transient) {
		if len(p.ranges) > 0 {
			p.dataRemoved = true
		}
		p.ranges = nil
		p.data = nil
	} else if len(removes) > 0 {
		p.applyRemoves(removes)
		p.dataRemoved = true
	}

	if len(adds) > 0 {
		p.applyAdds(adds)
		p.dataAdded = true
	}
}

func (p *Pool[T]) gather() ([]addEntry[T], []entityrange.Range) {
	p.writersMu.Lock()
	writers := p.writers
	p.writersMu.Unlock()

	var adds []addEntry[T]
	var removes []entityrange.Range
	for _, w := range writers {
		adds = append(adds, w.adds...)
		removes = append(removes, w.removes...)
		w.adds = nil
		w.removes = nil
	}
	return adds, removes
}

func (p *Pool[T]) commitGlobal(adds []addEntry[T], removes []entityrange.Range) {
	if len(removes) > 0 {
		p.globalSet = false
		p.globalValue = *new(T)
		p.dataRemoved = true
	}
	if len(adds) == 0 {
		return
	}
	if len(adds) > 1 {
		contract.Violate("commit_changes", "global component received %d concurrent additions in one commit", len(adds))
		return
	}
	switch e := adds[0]; e.kind {
	case addValue:
		p.globalValue = e.value
	case addSpan:
		if len(e.span) != 1 {
			contract.Violate("commit_changes", "global component span must have exactly one value, got %d", len(e.span))
			return
		}
		p.globalValue = e.span[0]
	case addGenerator:
		p.globalValue = e.gen(e.rng.First)
	}
	p.globalSet = true
	p.dataAdded = true
}

// applyRemoves removes every range in removes from p.ranges/p.data,
// compacting bound data so each surviving range's data stays contiguous.
func (p *Pool[T]) applyRemoves(removes []entityrange.Range) {
	sort.Slice(removes, func(i, j int) bool { return removes[i].First < removes[j].First })
	for i := 1; i < len(removes); i++ {
		if removes[i].Equals(removes[i-1]) {
			contract.Violate("remove_component", "duplicate removal of range [%d,%d]", removes[i].First, removes[i].Last)
			return
		}
	}

	bound := !p.flags.Has(Tag)

	var segs []segment[T]
	remIdx := 0
	dataOff := 0
	for _, r := range p.ranges {
		count := int(r.Count())
		var rdata []T
		if bound {
			rdata = p.data[dataOff : dataOff+count]
		}
		dataOff += count

		cur := r
		curData := rdata
		alive := true

		for remIdx < len(removes) && removes[remIdx].First <= cur.Last {
			rem := removes[remIdx]
			if !cur.ContainsRange(rem) {
				contract.Violate("remove_component", "removed range [%d,%d] is not a subset of an owned range", rem.First, rem.Last)
				return
			}
			remIdx++

			if rem.Equals(cur) {
				alive = false
				break
			}
			left, right := entityrange.Remove(cur, rem)
			if right == nil {
				// prefix or suffix trim: left is the sole residue.
				if bound {
					if left.First > cur.First {
						// prefix removed: residue is the tail
						curData = curData[left.First-cur.First:]
					} else {
						// suffix removed: residue is the head
						curData = curData[:left.Count()]
					}
				}
				cur = left
				continue
			}
			// split in the middle: emit the left residue now, it can
			// never be touched by a later (strictly greater) removal.
			if bound {
				leftData := curData[:left.Count()]
				segs = appendSegment(segs, segment[T]{rng: left, data: leftData})
				curData = curData[left.Count()+rem.Count():]
			} else {
				segs = appendSegment(segs, segment[T]{rng: left})
			}
			cur = *right
		}

		if alive {
			segs = appendSegment(segs, segment[T]{rng: cur, data: curData})
		}
	}

	p.ranges, p.data = flatten(segs, bound)
}

// applyAdds merges the gathered additions into p.ranges/p.data.
func (p *Pool[T]) applyAdds(adds []addEntry[T]) {
	sort.Slice(adds, func(i, j int) bool { return adds[i].rng.First < adds[j].rng.First })
	for i := 1; i < len(adds); i++ {
		if adds[i].rng.Overlaps(adds[i-1].rng) {
			contract.Violate("add_component", "entities in range [%d,%d] already have a pending or queued addition", adds[i].rng.First, adds[i].rng.Last)
			return
		}
	}
	for _, a := range adds {
		for _, own := range p.ranges {
			if own.Overlaps(a.rng) {
				contract.Violate("add_component", "entities in range [%d,%d] already own this component", a.rng.First, a.rng.Last)
				return
			}
		}
	}

	bound := !p.flags.Has(Tag)

	var segs []segment[T]
	ai, oi := 0, 0
	dataOff := 0
	for ai < len(adds) || oi < len(p.ranges) {
		switch {
		case oi >= len(p.ranges) || (ai < len(adds) && adds[ai].rng.First < p.ranges[oi].First):
			a := adds[ai]
			segs = appendSegment(segs, segment[T]{rng: a.rng, data: materialize(a, bound)})
			ai++
		default:
			r := p.ranges[oi]
			count := int(r.Count())
			var rdata []T
			if bound {
				rdata = p.data[dataOff : dataOff+count]
			}
			dataOff += count
			segs = appendSegment(segs, segment[T]{rng: r, data: rdata})
			oi++
		}
	}

	p.ranges, p.data = flatten(segs, bound)
}

func materialize[T any](a addEntry[T], bound bool) []T {
	if !bound {
		return nil
	}
	n := int(a.rng.Count())
	out := make([]T, n)
	switch a.kind {
	case addValue:
		for i := range out {
			out[i] = a.value
		}
	case addSpan:
		copy(out, a.span)
	case addGenerator:
		for i := 0; i < n; i++ {
			out[i] = a.gen(a.rng.First + entityrange.ID(i))
		}
	}
	return out
}

// appendSegment appends seg to segs, merging it into the trailing
// segment when the two ranges are adjacent (their data, built by this
// same in-order construction, is already physically contiguous).
func appendSegment[T any](segs []segment[T], seg segment[T]) []segment[T] {
	if n := len(segs); n > 0 {
		prev := segs[n-1]
		if int64(prev.rng.Last)+1 == int64(seg.rng.First) {
			// Always copy into a fresh slice: prev.data may alias a
			// slice of the pool's existing data array, and appending
			// in place could silently overwrite the next range's
			// still-unread values.
			merged := make([]T, 0, len(prev.data)+len(seg.data))
			merged = append(merged, prev.data...)
			merged = append(merged, seg.data...)
			segs[n-1] = segment[T]{
				rng:  entityrange.Range{First: prev.rng.First, Last: seg.rng.Last},
				data: merged,
			}
			return segs
		}
	}
	return append(segs, seg)
}

func flatten[T any](segs []segment[T], bound bool) ([]entityrange.Range, []T) {
	ranges := make([]entityrange.Range, len(segs))
	var data []T
	for i, s := range segs {
		ranges[i] = s.rng
		if bound {
			data = append(data, s.data...)
		}
	}
	return ranges, data
}
