package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/internal/registry"
	"github.com/oriumgames/ecscore/system"
)

type counter struct{ n int }
type label struct{ name string }
type tally struct{ n int }
type compA struct{ n int }
type compB struct{ n int }
type compC struct{ n int }

func TestBuildBatchesIndependentSystemsTogether(t *testing.T) {
	reg := registry.New()
	cache := registry.NewCache(reg)
	registry.Writer[counter](cache).Add(entityrange.Single(0), counter{})
	registry.Writer[label](cache).Add(entityrange.Single(0), label{})
	for _, h := range reg.All() {
		h.Commit()
	}

	s := NewScheduler(0)
	s.AddSystem("counters", system.NewRanged1[counter](reg, func(id entityrange.ID, c *counter) {}))
	s.AddSystem("labels", system.NewRanged1[label](reg, func(id entityrange.ID, l *label) {}))

	require.NoError(t, s.Build())
	require.Len(t, s.batches, 1)
	assert.Len(t, s.batches[0], 2)
}

func TestBuildSerializesConflictingSystems(t *testing.T) {
	reg := registry.New()
	cache := registry.NewCache(reg)
	registry.Writer[counter](cache).Add(entityrange.Single(0), counter{})
	for _, h := range reg.All() {
		h.Commit()
	}

	s := NewScheduler(0)
	s.AddSystem("writer", system.NewRanged1[counter](reg, func(id entityrange.ID, c *counter) { c.n++ }))
	s.AddSystem("reader", system.NewRanged1[counter](reg, func(id entityrange.ID, c *counter) {}))

	require.NoError(t, s.Build())
	require.Len(t, s.batches, 2)
	assert.Len(t, s.batches[0], 1)
	assert.Len(t, s.batches[1], 1)
}

// TestBuildChainsDependencyEdgesPerHash is the counter-example from
// review: S0 writes C; S1 writes {C,A}; S2 writes B; S3 writes {A,B}.
// A dependency scan over combined access bitsets finds only one
// conflicting predecessor per system (S3's nearest conflict is S2, on
// B) and never notices that S1 also writes A, letting S1 and S3 land in
// the same concurrent batch despite both writing A. Scanning per hash
// must find both S2 (hash B) and S1 (hash A) as S3's predecessors, so
// S3 is serialized into its own batch after both.
func TestBuildChainsDependencyEdgesPerHash(t *testing.T) {
	reg := registry.New()
	cache := registry.NewCache(reg)
	registry.Writer[compA](cache).Add(entityrange.Single(0), compA{})
	registry.Writer[compB](cache).Add(entityrange.Single(0), compB{})
	registry.Writer[compC](cache).Add(entityrange.Single(0), compC{})
	for _, h := range reg.All() {
		h.Commit()
	}

	s := NewScheduler(0)
	s0 := system.NewRanged1[compC](reg, func(id entityrange.ID, c *compC) {})
	s1 := system.NewRanged2[compC, compA](reg, func(id entityrange.ID, c *compC, a *compA) {})
	s2 := system.NewRanged1[compB](reg, func(id entityrange.ID, b *compB) {})
	s3 := system.NewRanged2[compA, compB](reg, func(id entityrange.ID, a *compA, b *compB) {})
	s.AddSystem("s0", s0)
	s.AddSystem("s1", s1)
	s.AddSystem("s2", s2)
	s.AddSystem("s3", s3)

	require.NoError(t, s.Build())
	require.Len(t, s.batches, 3, "S3 conflicts with both S1 (hash A) and S2 (hash B) and must be serialized after both")

	names := func(batch []*node) []string {
		out := make([]string, len(batch))
		for i, n := range batch {
			out[i] = n.name
		}
		return out
	}
	assert.ElementsMatch(t, []string{"s0", "s2"}, names(s.batches[0]))
	assert.Equal(t, []string{"s1"}, names(s.batches[1]))
	assert.Equal(t, []string{"s3"}, names(s.batches[2]))
}

func TestBuildRejectsManualSystemsFromAutomaticSchedule(t *testing.T) {
	reg := registry.New()
	s := NewScheduler(0)
	s.AddSystem("manual", system.NewGlobal1[counter](reg, func(c *counter) {}, system.Manual()))

	require.NoError(t, s.Build())
	assert.Empty(t, s.batches)
	assert.Len(t, s.manual, 1)
}

// TestRunSystemsOrdersConflictingSystemsDeterministically is spec.md §8
// scenario 5: two systems that conflict over the same component must
// always run in the same relative order (insertion order), never
// interleaved, across many runs.
func TestRunSystemsOrdersConflictingSystemsDeterministically(t *testing.T) {
	component.Declare[tally](component.Global)
	reg := registry.New()
	cache := registry.NewCache(reg)
	registry.Writer[tally](cache).Add(entityrange.Single(0), tally{})
	for _, h := range reg.All() {
		h.Commit()
	}

	var reads []int
	writer := system.NewGlobal1[tally](reg, func(c *tally) { c.n++ })
	reader := system.NewGlobal1[tally](reg, func(c *tally) { reads = append(reads, c.n) })

	s := NewScheduler(0)
	s.AddSystem("writer", writer)
	s.AddSystem("reader", reader)
	require.NoError(t, s.Build())

	for i := 0; i < 500; i++ {
		s.RunSystems(context.Background(), nil)
	}

	require.Len(t, reads, 500)
	for i, v := range reads {
		assert.Equal(t, i+1, v, "run %d: reader must observe the writer's increment from the same pass", i)
	}
}
