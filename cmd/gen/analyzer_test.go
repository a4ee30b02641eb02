package main

import (
	"go/parser"
	"go/token"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsIntoRanged(t *testing.T) {
	sys := &System{}
	err := parseOptionsInto(`Reads={Velocity} Writes={Position} Group=1 Every=16ms NotParallel`, sys)
	require.NoError(t, err)
	assert.Equal(t, []string{"Velocity"}, sys.Reads)
	assert.Equal(t, []string{"Position"}, sys.Writes)
	assert.Equal(t, 1, sys.Group)
	require.NotNil(t, sys.Every)
	assert.Equal(t, 16*time.Millisecond, *sys.Every)
	assert.True(t, sys.NotParallel)
}

func TestParseOptionsIntoGlobalsSetsKindGlobal(t *testing.T) {
	sys := &System{}
	err := parseOptionsInto(`Globals={Clock}`, sys)
	require.NoError(t, err)
	assert.Equal(t, KindGlobal, sys.Kind)
	assert.Equal(t, []string{"Clock"}, sys.Writes)
}

func TestParseOptionsIntoUnknownKeyErrors(t *testing.T) {
	err := parseOptionsInto(`Bogus=1`, &System{})
	assert.Error(t, err)
}

const analyzerFixture = `package fixture

//ecs:system Reads={Velocity} Writes={Position} Group=2
func Move(id int) {}

//ecs:system Globals={Clock}
func Tick() {}

//ecs:system Writes={Position} Parent=true
func Inherit(id int) {}

//ecs:system Writes={Position} SortBy=byX
func DrawOrder(id int) {}

func notAnnotated() {}
`

func parseFixture(t *testing.T) *Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "fixture.go", analyzerFixture, parser.ParseComments)
	require.NoError(t, err)

	pkg := &Package{Dir: "fixture", Name: "fixture", FileSet: fset}
	pkg.Files = []*GoFile{{Path: "fixture.go", Ast: f}}
	return pkg
}

func TestSystemTagAnalyzerDiscoversEverySystemKind(t *testing.T) {
	pkg := parseFixture(t)
	ctx := &Context{Packages: []*Package{pkg}, Logger: func(string, ...any) {}}

	require.NoError(t, SystemTagAnalyzer{}.Run(ctx))
	require.Len(t, pkg.SysSpecs, 4)

	byName := map[string]*System{}
	for _, s := range pkg.SysSpecs {
		byName[s.FuncName] = s
	}

	move := byName["Move"]
	require.NotNil(t, move)
	assert.Equal(t, KindRanged, move.Kind)
	assert.Equal(t, 2, move.Group)

	tick := byName["Tick"]
	require.NotNil(t, tick)
	assert.Equal(t, KindGlobal, tick.Kind)

	inherit := byName["Inherit"]
	require.NotNil(t, inherit)
	assert.Equal(t, KindHierarchy, inherit.Kind)

	order := byName["DrawOrder"]
	require.NotNil(t, order)
	assert.Equal(t, KindSorted, order.Kind)
	assert.Equal(t, "byX", order.SortBy)
}

func TestSystemTagAnalyzerRejectsGlobalsCombinedWithParent(t *testing.T) {
	fset := token.NewFileSet()
	src := `package fixture

//ecs:system Globals={Clock} Parent=true
func Bad(id int) {}
`
	f, err := parser.ParseFile(fset, "bad.go", src, parser.ParseComments)
	require.NoError(t, err)
	pkg := &Package{Dir: "fixture", Name: "fixture", Files: []*GoFile{{Path: "bad.go", Ast: f}}}
	ctx := &Context{Packages: []*Package{pkg}, Logger: func(string, ...any) {}}

	err = SystemTagAnalyzer{}.Run(ctx)
	assert.Error(t, err)
}

func TestSystemTagAnalyzerRequiresAtLeastOneComponent(t *testing.T) {
	fset := token.NewFileSet()
	src := `package fixture

//ecs:system Group=1
func Bad(id int) {}
`
	f, err := parser.ParseFile(fset, "bad.go", src, parser.ParseComments)
	require.NoError(t, err)
	pkg := &Package{Dir: "fixture", Name: "fixture", Files: []*GoFile{{Path: "bad.go", Ast: f}}}
	ctx := &Context{Packages: []*Package{pkg}, Logger: func(string, ...any) {}}

	err = SystemTagAnalyzer{}.Run(ctx)
	assert.Error(t, err)
}
