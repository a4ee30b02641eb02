package scheduler

import (
	"sort"

	"github.com/oriumgames/ecscore/system"
)

// accessBits is a system's Access reduced to a pair of bitsets over the
// scheduler's shared TypeIndex, so conflict checks are BitSet algebra
// rather than repeated slice scans over reflect.Type.
type accessBits struct {
	reads, writes *BitSet
}

func buildAccessBits(ti *TypeIndex, a system.Access) accessBits {
	reads := NewBitSet(0)
	writes := NewBitSet(0)
	for _, t := range a.Reads {
		reads.Set(ti.indexOf(t))
	}
	for _, t := range a.Writes {
		writes.Set(ti.indexOf(t))
	}
	return accessBits{reads: reads, writes: writes}
}

// hashes returns the distinct component hashes (TypeIndex slots) a
// touches, read or write, in ascending order.
func (a accessBits) hashes() []int {
	seen := make(map[int]bool)
	var out []int
	add := func(idx int) bool {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
		return true
	}
	a.reads.ForEach(add)
	a.writes.ForEach(add)
	sort.Ints(out)
	return out
}

// conflictsOn reports whether a and b cannot run concurrently *because
// of hash h specifically*: true if a writes h and b touches h at all,
// or a reads h and b writes h. Read/read on the same hash never
// conflicts.
func (a accessBits) conflictsOn(b accessBits, h int) bool {
	if a.writes.Has(h) && (b.writes.Has(h) || b.reads.Has(h)) {
		return true
	}
	if a.reads.Has(h) && b.writes.Has(h) {
		return true
	}
	return false
}
