package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPackageEmitsOneConstructorCallPerSystem(t *testing.T) {
	every := 16 * time.Millisecond
	pkg := &Package{
		Name: "movement",
		Dir:  "movement",
		SysSpecs: []*System{
			{
				FuncName: "Move", SystemName: "Move", Kind: KindRanged,
				Reads: []string{"Velocity"}, Writes: []string{"Position"},
				Group: 1, Every: &every,
			},
			{
				FuncName: "Tick", SystemName: "Tick", Kind: KindGlobal,
				Writes: []string{"Clock"},
			},
			{
				FuncName: "Inherit", SystemName: "Inherit", Kind: KindHierarchy,
				Writes: []string{"Position"},
			},
			{
				FuncName: "DrawOrder", SystemName: "DrawOrder", Kind: KindSorted,
				Writes: []string{"Position"}, SortBy: "byX",
				Filters: []string{"Hidden"},
			},
		},
	}

	src, err := renderPackage(pkg)
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, "package movement")
	assert.Contains(t, out, "func RegisterSystems(rt *ecscore.Runtime) {")
	assert.Contains(t, out, `ecscore.AddRanged2[Velocity, Position](rt, "Move", Move, system.WithGroup(1), system.WithInterval(16000000*time.Nanosecond))`)
	assert.Contains(t, out, `ecscore.AddGlobal1[Clock](rt, "Tick", Tick)`)
	assert.Contains(t, out, `ecscore.AddHierarchy1[Position](rt, "Inherit", Inherit, []system.Option{})`)
	assert.Contains(t, out, `ecscore.AddSorted1[Position](rt, "DrawOrder", byX, DrawOrder, system.WithFilter[Hidden](rt.Registry()))`)
}

func TestRenderPackageOrdersSystemsByFuncName(t *testing.T) {
	pkg := &Package{
		Name: "fixture",
		Dir:  "fixture",
		SysSpecs: []*System{
			{FuncName: "Zeta", SystemName: "Zeta", Kind: KindRanged, Writes: []string{"A"}},
			{FuncName: "Alpha", SystemName: "Alpha", Kind: KindRanged, Writes: []string{"A"}},
		},
	}
	src, err := renderPackage(pkg)
	require.NoError(t, err)
	out := string(src)

	alphaIdx := indexOf(out, "Alpha")
	zetaIdx := indexOf(out, "Zeta")
	require.NotEqual(t, -1, alphaIdx)
	require.NotEqual(t, -1, zetaIdx)
	assert.Less(t, alphaIdx, zetaIdx)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestRenderOptionsOmitsEmptyOptionList(t *testing.T) {
	assert.Equal(t, "", renderOptions(&System{}))
	assert.Equal(t, ", system.Manual()", renderOptions(&System{Manual: true}))
}

func TestGenEmitterCheckFailsWhenGenFileMissingOrStale(t *testing.T) {
	dir := t.TempDir()
	pkg := &Package{
		Name: "movement",
		Dir:  dir,
		SysSpecs: []*System{
			{FuncName: "Move", SystemName: "Move", Kind: KindRanged, Writes: []string{"Position"}},
		},
	}
	ctx := &Context{Options: Options{Check: true}, Packages: []*Package{pkg}, Logger: func(string, ...any) {}}

	err := GenEmitter{}.Run(ctx)
	require.Error(t, err, "ecscore_gen.go does not exist yet")

	ctx.Options = Options{Write: true}
	require.NoError(t, GenEmitter{}.Run(ctx))

	ctx.Options = Options{Check: true}
	require.NoError(t, GenEmitter{}.Run(ctx), "freshly written file must match what check renders")

	pkg.SysSpecs = append(pkg.SysSpecs, &System{FuncName: "Cleanup", SystemName: "Cleanup", Kind: KindRanged, Writes: []string{"Position"}})
	require.Error(t, GenEmitter{}.Run(ctx), "adding a system without regenerating must fail check")
}
