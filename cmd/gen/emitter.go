package main

// GenEmitter writes one ecscore_gen.go per package containing a
// RegisterSystems(rt *ecscore.Runtime) function that wires every
// //ecs:system-annotated function in that package into the runtime.

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type GenEmitter struct{}

func (GenEmitter) Name() string { return "GenEmitter" }

func (GenEmitter) Run(ctx *Context) error {
	var stale []string
	for _, pkg := range ctx.Packages {
		if len(pkg.SysSpecs) == 0 {
			continue
		}
		src, err := renderPackage(pkg)
		if err != nil {
			return fmt.Errorf("render %s: %w", pkg.Dir, err)
		}
		formatted, err := format.Source(src)
		if err != nil {
			return fmt.Errorf("gofmt %s: %w", pkg.Dir, err)
		}

		out := filepath.Join(pkg.Dir, "ecscore_gen.go")

		if ctx.Options.Check {
			existing, err := os.ReadFile(out)
			if err != nil || !bytes.Equal(existing, formatted) {
				stale = append(stale, out)
			}
			continue
		}

		if !ctx.Options.Write {
			os.Stdout.Write(formatted)
			continue
		}
		if err := os.WriteFile(out, formatted, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		ctx.Logger("wrote %s (%d systems)", out, len(pkg.SysSpecs))
	}
	if len(stale) > 0 {
		return fmt.Errorf("ecscore_gen.go out of date, run `go run ./cmd/gen -write`: %s", strings.Join(stale, ", "))
	}
	return nil
}

func renderPackage(pkg *Package) ([]byte, error) {
	systems := append([]*System(nil), pkg.SysSpecs...)
	sort.Slice(systems, func(i, j int) bool { return systems[i].FuncName < systems[j].FuncName })

	var needsTime bool
	for _, s := range systems {
		if s.Every != nil {
			needsTime = true
			break
		}
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by ecs gen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg.Name)
	b.WriteString("import (\n")
	if needsTime {
		b.WriteString("\t\"time\"\n\n")
	}
	b.WriteString("\t\"github.com/oriumgames/ecscore\"\n\t\"github.com/oriumgames/ecscore/system\"\n)\n\n")
	fmt.Fprintf(&b, "// RegisterSystems wires every ecs:system-annotated function in this\n// package into rt.\nfunc RegisterSystems(rt *ecscore.Runtime) {\n")
	for _, s := range systems {
		if err := renderSystem(&b, s); err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(&b, "}\n")
	return b.Bytes(), nil
}

func renderSystem(b *bytes.Buffer, s *System) error {
	opts := renderOptions(s)
	types := s.componentTypes()
	typeList := strings.Join(types, ", ")

	switch s.Kind {
	case KindGlobal:
		fn := fmt.Sprintf("ecscore.AddGlobal%d", len(types))
		fmt.Fprintf(b, "\t%s[%s](rt, %q, %s%s)\n", fn, typeList, s.SystemName, s.FuncName, opts)
	case KindHierarchy:
		fmt.Fprintf(b, "\tecscore.AddHierarchy1[%s](rt, %q, %s, []system.Option{%s})\n", typeList, s.SystemName, s.FuncName, strings.TrimPrefix(opts, ", "))
	case KindSorted:
		fn := fmt.Sprintf("ecscore.AddSorted%d", len(types))
		fmt.Fprintf(b, "\t%s[%s](rt, %q, %s, %s%s)\n", fn, typeList, s.SystemName, s.SortBy, s.FuncName, opts)
	default:
		fn := fmt.Sprintf("ecscore.AddRanged%d", len(types))
		fmt.Fprintf(b, "\t%s[%s](rt, %q, %s%s)\n", fn, typeList, s.SystemName, s.FuncName, opts)
	}
	return nil
}

// renderOptions renders ", system.WithGroup(1), system.Manual()" etc,
// ready to splice directly after the callable argument.
func renderOptions(s *System) string {
	var parts []string
	if s.Group != 0 {
		parts = append(parts, fmt.Sprintf("system.WithGroup(%d)", s.Group))
	}
	if s.Every != nil {
		parts = append(parts, fmt.Sprintf("system.WithInterval(%s)", durationLiteral(*s.Every)))
	}
	if s.Manual {
		parts = append(parts, "system.Manual()")
	}
	if s.NotParallel {
		parts = append(parts, "system.NotParallel()")
	}
	for _, f := range sortUnique(s.Filters) {
		parts = append(parts, fmt.Sprintf("system.WithFilter[%s](rt.Registry())", f))
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}
