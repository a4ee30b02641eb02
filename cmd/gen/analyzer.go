package main

// SystemTagAnalyzer finds //ecs:system ... annotations on doc comments
// and creates System model entries from them.

import (
	"fmt"
	"go/ast"
	"regexp"
	"strings"
	"time"
)

// BuiltinAnalyzers exposes the default analyzers used by the generator.
var BuiltinAnalyzers = []Analyzer{
	SystemTagAnalyzer{},
}

type SystemTagAnalyzer struct{}

func (SystemTagAnalyzer) Name() string { return "SystemTagAnalyzer" }

var ecsTagRe = regexp.MustCompile(`^\s*ecs:system\s*(.*)$`)

func (SystemTagAnalyzer) Run(ctx *Context) error {
	for _, pkg := range ctx.Packages {
		for _, gf := range pkg.Files {
			if gf.Ast == nil {
				continue
			}
			for _, decl := range gf.Ast.Decls {
				fd, ok := decl.(*ast.FuncDecl)
				if !ok || fd.Name == nil || fd.Type == nil || fd.Doc == nil {
					continue
				}
				var tagLine string
				for _, c := range fd.Doc.List {
					txt := strings.TrimPrefix(c.Text, "//")
					txt = strings.TrimPrefix(txt, "/*")
					txt = strings.TrimSuffix(txt, "*/")
					txt = strings.TrimSpace(txt)
					if strings.HasPrefix(txt, "ecs:system") {
						tagLine = txt
						break
					}
				}
				if tagLine == "" {
					continue
				}

				m := ecsTagRe.FindStringSubmatch(tagLine)
				if m == nil {
					return fmt.Errorf("invalid ecs:system tag near %s: %q", gf.Path, tagLine)
				}

				sys := &System{
					PkgDir:     pkg.Dir,
					PkgName:    pkg.Name,
					FilePath:   gf.Path,
					FuncName:   fd.Name.Name,
					SystemName: fd.Name.Name,
				}
				if err := parseOptionsInto(m[1], sys); err != nil {
					return fmt.Errorf("parse options for %s: %w", sys.FuncName, err)
				}

				switch {
				case sys.Kind == KindGlobal && (sys.Parent || sys.SortBy != ""):
					return fmt.Errorf("system %s: Globals cannot be combined with Parent or SortBy", sys.FuncName)
				case sys.Kind == KindGlobal:
					// set by a Globals= option above
				case sys.Parent:
					sys.Kind = KindHierarchy
				case sys.SortBy != "":
					sys.Kind = KindSorted
				default:
					sys.Kind = KindRanged
				}
				if len(sys.componentTypes()) == 0 {
					return fmt.Errorf("system %s: at least one of Reads/Writes is required", sys.FuncName)
				}
				seen := map[string]bool{}
				for _, ct := range sys.componentTypes() {
					if seen[ct] {
						return fmt.Errorf("system %s: component type %s is listed more than once", sys.FuncName, ct)
					}
					seen[ct] = true
				}

				pkg.addSystem(sys)
			}
		}
	}
	return nil
}

func parseOptionsInto(opts string, out *System) error {
	opts = strings.TrimSpace(opts)
	if opts == "" {
		return nil
	}
	toks := splitTopLevel(opts)
	for _, tok := range toks {
		kv := strings.SplitN(tok, "=", 2)
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if len(kv) != 2 {
			// Boolean options may be written bare ("NotParallel"), meaning true.
			switch key {
			case "parent", "manual", "notparallel":
				kv = append(kv, "")
			default:
				return fmt.Errorf("option without '=': %q", tok)
			}
		}
		val := strings.TrimSpace(kv[1])
		switch key {
		case "reads":
			items, err := parseStringArray(val)
			if err != nil {
				return fmt.Errorf("Reads=%q: %w", val, err)
			}
			out.Reads = items
		case "writes":
			items, err := parseStringArray(val)
			if err != nil {
				return fmt.Errorf("Writes=%q: %w", val, err)
			}
			out.Writes = items
		case "filters":
			items, err := parseStringArray(val)
			if err != nil {
				return fmt.Errorf("Filters=%q: %w", val, err)
			}
			out.Filters = items
		case "globals":
			items, err := parseStringArray(val)
			if err != nil {
				return fmt.Errorf("Globals=%q: %w", val, err)
			}
			out.Writes = items
			out.Kind = KindGlobal
		case "parent":
			b, err := parseBool(val)
			if err != nil {
				return fmt.Errorf("Parent=%q: %w", val, err)
			}
			out.Parent = b
		case "sortby":
			out.SortBy = trimQuotes(val)
		case "group":
			n, err := parseInt(val)
			if err != nil {
				return fmt.Errorf("Group=%q: %w", val, err)
			}
			out.Group = n
		case "every":
			d, err := time.ParseDuration(val)
			if err != nil {
				return fmt.Errorf("Every=%q: %w", val, err)
			}
			out.Every = &d
		case "manual":
			b, err := parseBool(val)
			if err != nil {
				return fmt.Errorf("Manual=%q: %w", val, err)
			}
			out.Manual = b
		case "notparallel":
			b, err := parseBool(val)
			if err != nil {
				return fmt.Errorf("NotParallel=%q: %w", val, err)
			}
			out.NotParallel = b
		case "name":
			out.SystemName = trimQuotes(val)
		default:
			return fmt.Errorf("unknown option %q", key)
		}
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(trimQuotes(s)) {
	case "", "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("not a bool: %q", s)
	}
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(trimQuotes(s), "%d", &n)
	return n, err
}
