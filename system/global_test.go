package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/contract"
	"github.com/oriumgames/ecscore/entityrange"
	"github.com/oriumgames/ecscore/internal/registry"
)

type clock struct{ ticks int }

func init() {
	component.Declare[clock](component.Global)
}

func TestGlobalInvokesOnceOverSingleInstance(t *testing.T) {
	reg := registry.New()
	cache := registry.NewCache(reg)
	registry.Writer[clock](cache).Add(entityrange.Single(0), clock{ticks: 0})
	for _, h := range reg.All() {
		h.Commit()
	}

	calls := 0
	sys := NewGlobal1[clock](reg, func(c *clock) {
		calls++
		c.ticks++
	})
	sys.Rebuild(false)
	sys.Invoke()
	sys.Invoke()

	assert.Equal(t, 2, calls)
	got := registry.Pool[clock](reg).GlobalComponent()
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ticks)
}

func TestGlobalViolatesWhenUnset(t *testing.T) {
	var violations []contract.Violation
	contract.SetHandler(func(v contract.Violation) { violations = append(violations, v) })
	t.Cleanup(func() { contract.SetHandler(nil) })

	reg := registry.New()
	sys := NewGlobal1[clock](reg, func(c *clock) {
		t.Fatal("fn must not be invoked when the global has no instance")
	})
	sys.Rebuild(false)
	sys.Invoke()

	require.Len(t, violations, 1)
	assert.Equal(t, "global_system", violations[0].Op)
}
