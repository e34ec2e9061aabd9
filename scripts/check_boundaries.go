package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule constrains the imports of one layer of a bounded-context service.
// Allowed entries are suffixes of the service prefix, except those starting
// with "vitrine/", which are absolute.
type layerRule struct {
	allowed         []string
	allowThirdParty bool
	forbidInternal  bool
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed:        []string{"/domain"},
		forbidInternal: true,
	},
	"ports": {
		allowed:        []string{"/domain", "/ports", "vitrine/contracts"},
		forbidInternal: true,
	},
	"application": {
		allowed:        []string{"/application", "/domain", "/ports", "vitrine/contracts"},
		forbidInternal: true,
	},
	"transport": {
		allowed:         []string{"/transport"},
		allowThirdParty: true,
		forbidInternal:  true,
	},
}

// platformConsumers may import bounded contexts; every other platform package
// stays context-agnostic.
var platformConsumers = map[string]bool{
	"internal/platform/httpserver": true,
}

func main() {
	violations := collectViolations("contexts")
	violations = append(violations, collectPlatformViolations("internal/platform")...)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	walkSources(root, func(path string, normalized string) {
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return
		}

		modulePrefix := fmt.Sprintf("vitrine/contexts/%s/%s", parts[1], parts[2])
		layer := strings.TrimSuffix(parts[3], ".go")
		imports, err := parseImports(path)
		if err != nil {
			violations = append(violations, violation{File: normalized, Line: 1, Rule: "file must parse"})
			return
		}
		for _, imp := range imports {
			violations = append(violations, checkServiceImport(normalized, imp, layer, modulePrefix)...)
		}
	})

	return violations
}

func collectPlatformViolations(root string) []violation {
	var violations []violation

	walkSources(root, func(path string, normalized string) {
		pkg := filepath.ToSlash(filepath.Dir(normalized))
		for consumer := range platformConsumers {
			if pkg == consumer || strings.HasPrefix(pkg, consumer+"/") {
				return
			}
		}
		imports, err := parseImports(path)
		if err != nil {
			violations = append(violations, violation{File: normalized, Line: 1, Rule: "file must parse"})
			return
		}
		for _, imp := range imports {
			if strings.HasPrefix(imp.path, "vitrine/contexts/") {
				violations = append(violations, violation{
					File:   normalized,
					Line:   imp.line,
					Import: imp.path,
					Rule:   "platform packages must not import bounded contexts",
				})
			}
		}
	})

	return violations
}

func walkSources(root string, visit func(path string, normalized string)) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		visit(path, filepath.ToSlash(path))
		return nil
	})
}

type importRef struct {
	path string
	line int
}

func parseImports(path string) ([]importRef, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}
	out := make([]importRef, 0, len(file.Imports))
	for _, imp := range file.Imports {
		out = append(out, importRef{
			path: strings.Trim(imp.Path.Value, "\""),
			line: fset.Position(imp.Pos()).Line,
		})
	}
	return out, nil
}

func checkServiceImport(file string, imp importRef, layer string, modulePrefix string) []violation {
	var violations []violation
	add := func(rule string) {
		violations = append(violations, violation{File: file, Line: imp.line, Import: imp.path, Rule: rule})
	}

	if strings.HasPrefix(imp.path, "vitrine/contexts/") && !hasPrefix(imp.path, modulePrefix) {
		add("cross-module imports are forbidden")
	}

	rule, ok := layerRules[layer]
	if !ok {
		// adapters and the module root are free to reach platform code.
		return violations
	}

	if strings.Contains(imp.path, "/adapters/") {
		add(layer + " must not import adapters")
	}
	if rule.forbidInternal && strings.HasPrefix(imp.path, "vitrine/internal/") {
		add(layer + " must not import runtime infrastructure")
	}

	switch {
	case isStdlib(imp.path):
	case !strings.HasPrefix(imp.path, "vitrine/") && rule.allowThirdParty:
	case isAllowed(imp.path, resolveAllowed(rule.allowed, modulePrefix)):
	default:
		add(layer + " import is outside explicit allowlist")
	}

	return violations
}

func resolveAllowed(allowed []string, modulePrefix string) []string {
	out := make([]string, 0, len(allowed))
	for _, item := range allowed {
		if strings.HasPrefix(item, "vitrine/") {
			out = append(out, item)
			continue
		}
		out = append(out, modulePrefix+item)
	}
	return out
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if strings.HasPrefix(importPath, "vitrine/") {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
