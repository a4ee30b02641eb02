package ecscore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/system"
)

type position struct{ x, y int }

func TestUpdateCommitsThenRunsRegisteredSystems(t *testing.T) {
	rt := New()
	AddComponent[position](rt, entityrange.Single(0), position{x: 1, y: 1})

	AddRanged1[position](rt, "move", func(id entityrange.ID, p *position) { p.x++ })
	require.NoError(t, rt.Build())

	rt.Update(context.Background())

	got := GetComponent[position](rt, 0)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.x)
}

func TestResetDropsComponentsAndSystems(t *testing.T) {
	rt := New()
	AddComponent[position](rt, entityrange.Single(0), position{x: 1})
	rt.CommitChanges()
	require.Equal(t, int64(1), GetComponentCount[position](rt))

	rt.Reset()

	assert.Equal(t, int64(0), GetComponentCount[position](rt))
	assert.Nil(t, GetComponent[position](rt, 0))

	// The Runtime itself stays usable: a fresh add + commit works again.
	AddComponent[position](rt, entityrange.Single(0), position{x: 9})
	rt.CommitChanges()
	got := GetComponent[position](rt, 0)
	require.NotNil(t, got)
	assert.Equal(t, 9, got.x)
}

func TestRunManualSystemsBypassesAutomaticSchedule(t *testing.T) {
	rt := New()
	AddComponent[position](rt, entityrange.Single(0), position{x: 1})
	rt.CommitChanges()

	var autoRuns, manualRuns int
	AddRanged1[position](rt, "auto", func(id entityrange.ID, p *position) { autoRuns++ })
	AddRanged1[position](rt, "manual", func(id entityrange.ID, p *position) { manualRuns++ }, system.Manual())
	require.NoError(t, rt.Build())

	rt.RunSystems(context.Background())
	assert.Equal(t, 1, autoRuns)
	assert.Equal(t, 0, manualRuns)

	rt.RunManualSystems()
	assert.Equal(t, 1, autoRuns)
	assert.Equal(t, 1, manualRuns)
}

func TestHasComponentAndGetComponentsReflectCommittedRanges(t *testing.T) {
	rt := New()
	r := entityrange.New(0, 2)
	AddComponentSpan[position](rt, r, []position{{x: 0}, {x: 1}, {x: 2}})
	rt.CommitChanges()

	assert.True(t, HasComponent[position](rt, r))
	vals := GetComponents[position](rt, r)
	require.Len(t, vals, 3)
	assert.Equal(t, 2, vals[2].x)
	assert.Equal(t, int64(3), GetEntityCount[position](rt))
}
