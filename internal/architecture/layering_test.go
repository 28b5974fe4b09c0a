// Where: cli/internal/architecture/layering_test.go
// What: Layer dependency guard tests for internal packages.
// Why: Prevent regressions across domain/usecase/handlers/infra/command boundaries.
package architecture

import (
	"go/parser"
	"sort"
	"strings"
	"testing"
)

// forbiddenLayers lists, per source layer, the layers it must not import.
var forbiddenLayers = map[string][]string{
	"domain":   {"usecase", "handlers", "infra", "command"},
	"usecase":  {"handlers", "infra", "command"},
	"handlers": {"usecase", "infra", "command"},
	"infra":    {"usecase", "command"},
}

func TestLayeringRules(t *testing.T) {
	t.Parallel()

	violations := []string{}
	scanSources(t, resolveInternalRoot(t), parser.ImportsOnly, func(src sourceFile) {
		sourceLayer := topLayer(src.rel)
		for _, importPath := range importPaths(src.file) {
			importLayer := topLayerFromImport(importPath)
			if importLayer == "" {
				continue
			}
			if violatesRule(sourceLayer, importLayer) {
				violations = append(violations, src.rel+" -> "+importPath)
			}
		}
	})

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("layering rule violations:\n%s", strings.Join(violations, "\n"))
	}
}

func TestViolatesRule(t *testing.T) {
	cases := []struct {
		source, target string
		want           bool
	}{
		{"domain", "domain", false},
		{"domain", "infra", true},
		{"usecase", "domain", false},
		{"usecase", "handlers", true},
		{"handlers", "domain", false},
		{"handlers", "infra", true},
		{"infra", "handlers", false},
		{"infra", "usecase", true},
		{"command", "infra", false},
		{"meta", "command", false},
	}
	for _, tc := range cases {
		if got := violatesRule(tc.source, tc.target); got != tc.want {
			t.Fatalf("violatesRule(%s, %s) = %v, want %v", tc.source, tc.target, got, tc.want)
		}
	}
}

func topLayer(relPath string) string {
	layer, _, _ := strings.Cut(relPath, "/")
	return strings.TrimSpace(layer)
}

func topLayerFromImport(importPath string) string {
	rest, ok := strings.CutPrefix(importPath, internalImportPrefix)
	if !ok {
		return ""
	}
	return topLayer(rest)
}

func violatesRule(sourceLayer, importLayer string) bool {
	for _, forbidden := range forbiddenLayers[sourceLayer] {
		if forbidden == importLayer {
			return true
		}
	}
	return false
}
