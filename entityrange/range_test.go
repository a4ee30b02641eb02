package entityrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeBasics(t *testing.T) {
	r := New(10, 19)
	assert.Equal(t, int64(10), r.Count())
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(19))
	assert.False(t, r.Contains(20))
	assert.True(t, r.ContainsRange(New(12, 15)))
	assert.False(t, r.ContainsRange(New(12, 25)))
}

func TestRangeSingle(t *testing.T) {
	r := Single(5)
	assert.Equal(t, int64(1), r.Count())
	assert.Equal(t, New(5, 5), r)
}

func TestRangeBoundaryMaxInt(t *testing.T) {
	r := New(MaxID-1, MaxID)
	assert.Equal(t, int64(2), r.Count())
	var seen []ID
	for id := r.First; ; id++ {
		seen = append(seen, id)
		if id == r.Last {
			break
		}
	}
	assert.Equal(t, []ID{MaxID - 1, MaxID}, seen)
}

func TestRangeOverlapsAdjacent(t *testing.T) {
	a := New(0, 9)
	b := New(10, 19)
	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Adjacent(b))
	assert.Equal(t, New(0, 19), Merge(a, b))

	c := New(5, 15)
	assert.True(t, a.Overlaps(c))
	assert.Equal(t, New(5, 9), Intersect(a, c))
}

func TestRangeRemove(t *testing.T) {
	r := New(0, 9)

	left, right := Remove(r, New(0, 2))
	assert.Equal(t, New(3, 9), left)
	assert.Nil(t, right)

	left, right = Remove(r, New(7, 9))
	assert.Equal(t, New(0, 6), left)
	assert.Nil(t, right)

	left, right = Remove(r, New(3, 5))
	assert.Equal(t, New(0, 2), left)
	require.NotNil(t, right)
	assert.Equal(t, New(6, 9), *right)
}

func TestIntersectRanges(t *testing.T) {
	a := View{New(0, 9), New(20, 29)}
	b := View{New(5, 24)}
	got := IntersectRanges(a, b)
	assert.Equal(t, View{New(5, 9), New(20, 24)}, got)
}

func TestIntersectRangesDisjoint(t *testing.T) {
	a := View{New(0, 9)}
	b := View{New(10, 19)}
	assert.Empty(t, IntersectRanges(a, b))
}

func TestDifferenceRanges(t *testing.T) {
	cases := []struct {
		name string
		a, b View
		want View
	}{
		{
			name: "remove middle",
			a:    View{New(0, 9)},
			b:    View{New(3, 5)},
			want: View{New(0, 2), New(6, 9)},
		},
		{
			name: "remove prefix",
			a:    View{New(0, 9)},
			b:    View{New(0, 3)},
			want: View{New(4, 9)},
		},
		{
			name: "remove suffix",
			a:    View{New(0, 9)},
			b:    View{New(7, 9)},
			want: View{New(0, 6)},
		},
		{
			name: "remove all",
			a:    View{New(0, 9)},
			b:    View{New(0, 9)},
			want: nil,
		},
		{
			name: "remove superset",
			a:    View{New(3, 6)},
			b:    View{New(0, 9)},
			want: nil,
		},
		{
			name: "disjoint no-op",
			a:    View{New(0, 9)},
			b:    View{New(20, 29)},
			want: View{New(0, 9)},
		},
		{
			name: "multi-range spanning removal",
			a:    View{New(0, 9), New(20, 29)},
			b:    View{New(5, 24)},
			want: View{New(0, 4), New(25, 29)},
		},
		{
			name: "empty b",
			a:    View{New(0, 9)},
			b:    nil,
			want: View{New(0, 9)},
		},
		{
			name: "empty a",
			a:    nil,
			b:    View{New(0, 9)},
			want: nil,
		},
		{
			name: "already empty no-op on empty pool",
			a:    nil,
			b:    nil,
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DifferenceRanges(tc.a, tc.b)
			if tc.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestDifferenceRangesMatchesBruteForce(t *testing.T) {
	// Build a's and b's as overlapping sets of small ranges and check
	// against a brute-force membership test over the covered domain.
	a := View{New(0, 4), New(10, 14), New(20, 29)}
	b := View{New(2, 11), New(13, 13), New(25, 100)}

	got := DifferenceRanges(a, b)

	inA := func(id ID) bool {
		for _, r := range a {
			if r.Contains(id) {
				return true
			}
		}
		return false
	}
	inB := func(id ID) bool {
		for _, r := range b {
			if r.Contains(id) {
				return true
			}
		}
		return false
	}
	inGot := func(id ID) bool {
		for _, r := range got {
			if r.Contains(id) {
				return true
			}
		}
		return false
	}

	for id := ID(0); id <= 100; id++ {
		want := inA(id) && !inB(id)
		assert.Equal(t, want, inGot(id), "entity %d", id)
	}

	// canonical: sorted, disjoint, minimally merged
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Last, got[i].First-1, "adjacent ranges should have been merged")
	}
}
