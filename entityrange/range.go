// Package entityrange implements the entity identifier type and the closed
// range of entities, together with the set algebra (intersect, difference)
// used by pools and systems to describe which entities they own.
package entityrange

import (
	"math"

	"github.com/pkg/errors"
)

// ID is an entity identifier chosen by the host. The full int32 domain is
// valid, including negative values; there is no allocation or recycling.
type ID int32

// MinID and MaxID bound the entity identifier domain.
const (
	MinID ID = math.MinInt32
	MaxID ID = math.MaxInt32
)

// Range is the closed interval [First, Last] of entity identifiers.
type Range struct {
	First ID
	Last  ID
}

// New builds a range, panicking via a contract error if first > last.
func New(first, last ID) Range {
	if first > last {
		panic(errors.Errorf("entityrange: invalid range [%d, %d]: first > last", first, last))
	}
	return Range{First: first, Last: last}
}

// Single returns the one-entity range [id, id].
func Single(id ID) Range {
	return Range{First: id, Last: id}
}

// All is the sentinel range representing every entity, used to advertise
// the entity set of a global pool that holds its instance.
var All = Range{First: MinID, Last: MaxID}

// Count returns the number of entities in the range.
//
// Entity ids span the full int32 domain, so Last-First can overflow a
// 32-bit difference (e.g. [MinID, MaxID]); the count is computed in
// 64-bit to avoid that wraparound.
func (r Range) Count() int64 {
	return int64(r.Last) - int64(r.First) + 1
}

// Contains reports whether id falls within the range.
func (r Range) Contains(id ID) bool {
	return id >= r.First && id <= r.Last
}

// ContainsRange reports whether other is fully contained within r.
func (r Range) ContainsRange(other Range) bool {
	return other.First >= r.First && other.Last <= r.Last
}

// Offset returns the zero-based offset of id within the range. The
// caller must ensure Contains(id) holds.
func (r Range) Offset(id ID) int64 {
	if !r.Contains(id) {
		panic(errors.Errorf("entityrange: %d not contained in [%d, %d]", id, r.First, r.Last))
	}
	return int64(id) - int64(r.First)
}

// Equals reports whether the two ranges describe the same interval.
func (r Range) Equals(other Range) bool {
	return r.First == other.First && r.Last == other.Last
}

// Overlaps reports whether the two ranges share at least one entity.
func (r Range) Overlaps(other Range) bool {
	return r.First <= other.Last && other.First <= r.Last
}

// Adjacent reports whether r and other can be merged into one range,
// i.e. r immediately precedes other or vice versa.
func (r Range) Adjacent(other Range) bool {
	return canMerge(r, other) || canMerge(other, r)
}

func canMerge(a, b Range) bool {
	return int64(a.Last)+1 == int64(b.First)
}

// Merge combines two adjacent ranges into one. Panics if they are not
// adjacent.
func Merge(a, b Range) Range {
	if canMerge(a, b) {
		return Range{First: a.First, Last: b.Last}
	}
	if canMerge(b, a) {
		return Range{First: b.First, Last: a.Last}
	}
	panic(errors.Errorf("entityrange: cannot merge non-adjacent ranges [%d,%d] and [%d,%d]", a.First, a.Last, b.First, b.Last))
}

// Intersect returns the overlap of two ranges. Panics if they do not
// overlap.
func Intersect(a, b Range) Range {
	if !a.Overlaps(b) {
		panic(errors.Errorf("entityrange: cannot intersect disjoint ranges [%d,%d] and [%d,%d]", a.First, a.Last, b.First, b.Last))
	}
	first := a.First
	if b.First > first {
		first = b.First
	}
	last := a.Last
	if b.Last < last {
		last = b.Last
	}
	return Range{First: first, Last: last}
}

// Remove splits range away from other, which must be fully contained in
// range but not equal to it. Returns one residue range, and a second one
// if the removal split range in the middle.
func Remove(r, other Range) (Range, *Range) {
	if !r.ContainsRange(other) {
		panic(errors.Errorf("entityrange: [%d,%d] does not contain [%d,%d]", r.First, r.Last, other.First, other.Last))
	}
	if r.Equals(other) {
		panic(errors.New("entityrange: cannot remove a range equal to itself, caller should erase it"))
	}

	if other.First == r.First {
		return Range{First: other.Last + 1, Last: r.Last}, nil
	}
	if other.Last == r.Last {
		return Range{First: r.First, Last: other.First - 1}, nil
	}
	left := Range{First: r.First, Last: other.First - 1}
	right := Range{First: other.Last + 1, Last: r.Last}
	return left, &right
}

// Less orders ranges by their first entity, for sorting a slice of
// disjoint ranges.
func Less(a, b Range) bool {
	return a.First < b.First
}

// View is a read-only, sorted, disjoint, minimally-merged vector of
// ranges — the canonical form produced and consumed by the pools and by
// Intersect/Difference below.
type View = []Range

// IntersectRanges returns the ranges covering exactly the entities
// present in both a and b, preserving sort order, in canonical
// (sorted, disjoint, merged) form. Runs in O(|a|+|b|).
func IntersectRanges(a, b View) View {
	var out View
	if len(a) == 0 || len(b) == 0 {
		return out
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ra, rb := a[i], b[j]
		if ra.Overlaps(rb) {
			out = appendMerged(out, Intersect(ra, rb))
		}
		switch {
		case ra.Last < rb.Last:
			i++
		case rb.Last < ra.Last:
			j++
		default:
			i++
			j++
		}
	}
	return out
}

// DifferenceRanges returns the ranges covering entities present in a but
// not in b, in canonical form. Runs in O(|a|+|b|): j never regresses
// across iterations of the outer loop, and the inner loop over b only
// ever advances it.
func DifferenceRanges(a, b View) View {
	if len(a) == 0 {
		return nil
	}
	if len(b) == 0 {
		out := make(View, len(a))
		copy(out, a)
		return out
	}

	var out View
	j := 0
	for i := 0; i < len(a); i++ {
		cur := a[i]
		live := true

		// Skip b ranges that end before cur begins; they can never
		// matter again since a's ranges only move forward.
		for j < len(b) && b[j].Last < cur.First {
			j++
		}

		k := j
		for live && k < len(b) && b[k].First <= cur.Last {
			bk := b[k]

			if bk.First <= cur.First {
				// bk removes a prefix of cur (or all of it).
				if bk.Last >= cur.Last {
					live = false
					break
				}
				cur = Range{First: bk.Last + 1, Last: cur.Last}
				k++
				continue
			}

			// bk starts strictly inside cur: emit the residue before it.
			out = appendMerged(out, Range{First: cur.First, Last: bk.First - 1})
			if bk.Last >= cur.Last {
				live = false
				break
			}
			cur = Range{First: bk.Last + 1, Last: cur.Last}
			k++
		}

		if live {
			out = appendMerged(out, cur)
		}
		// Leave k pointing at a b-range that might still overlap the
		// next a-range (one whose tail extends past cur.Last).
		j = k
	}

	return out
}

// appendMerged appends r to out, merging it with the trailing range if
// adjacent, keeping the canonical minimally-merged form.
func appendMerged(out View, r Range) View {
	if n := len(out); n > 0 && canMerge(out[n-1], r) {
		out[n-1] = Range{First: out[n-1].First, Last: r.Last}
		return out
	}
	return append(out, r)
}
