package system

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/internal/registry"
)

type priority struct{ rank int }

func TestSortedOrdersByComparatorAndIsStable(t *testing.T) {
	reg := registry.New()
	cache := registry.NewCache(reg)

	w := registry.Writer[priority](cache)
	w.Add(entityrange.Single(0), priority{rank: 5})
	w.Add(entityrange.Single(1), priority{rank: 1})
	w.Add(entityrange.Single(2), priority{rank: 1})
	w.Add(entityrange.Single(3), priority{rank: 3})
	for _, h := range reg.All() {
		h.Commit()
	}

	var order []entityrange.ID
	sys := NewSorted1[priority](reg, func(a, b *priority) bool { return a.rank < b.rank }, func(id entityrange.ID, p *priority) {
		order = append(order, id)
	}, NotParallel())
	sys.Rebuild(false)
	sys.Invoke()

	assert.Equal(t, []entityrange.ID{1, 2, 3, 0}, order)
}

func TestSortedResortsAfterDataModified(t *testing.T) {
	reg := registry.New()
	cache := registry.NewCache(reg)
	w := registry.Writer[priority](cache)
	w.Add(entityrange.Single(0), priority{rank: 1})
	w.Add(entityrange.Single(1), priority{rank: 2})
	for _, h := range reg.All() {
		h.Commit()
	}

	var order []entityrange.ID
	pool := registry.Pool[priority](reg)
	sys := NewSorted1[priority](reg, func(a, b *priority) bool { return a.rank < b.rank }, func(id entityrange.ID, p *priority) {
		order = append(order, id)
		if id == 1 {
			p.rank = 0 // entity 1 now sorts first
		}
	}, NotParallel())

	sys.Rebuild(false)
	sys.Invoke()
	assert.Equal(t, []entityrange.ID{0, 1}, order)

	pool.NotifyModified()
	order = nil
	sys.Rebuild(false)
	sys.Invoke()
	assert.Equal(t, []entityrange.ID{1, 0}, order)
}
