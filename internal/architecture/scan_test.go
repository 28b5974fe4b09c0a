// Where: cli/internal/architecture/scan_test.go
// What: Shared source walker for architecture tests.
// Why: Every guard inspects the same non-test Go files under internal/ and cmd/.
package architecture

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	modulePath           = "github.com/poruru/webviz-stack"
	internalImportPrefix = modulePath + "/internal/"
)

type sourceFile struct {
	// rel is the slash-separated path relative to the scanned root.
	rel  string
	file *ast.File
	fset *token.FileSet
}

func resolveModuleRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func resolveInternalRoot(t *testing.T) string {
	t.Helper()
	return filepath.Join(resolveModuleRoot(t), "internal")
}

// scanSources parses every non-test Go file below root.
func scanSources(t *testing.T, root string, mode parser.Mode, visit func(sourceFile)) {
	t.Helper()
	fset := token.NewFileSet()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		file, err := parser.ParseFile(fset, path, nil, mode)
		if err != nil {
			return err
		}
		visit(sourceFile{rel: filepath.ToSlash(rel), file: file, fset: fset})
		return nil
	})
	if err != nil {
		t.Fatalf("scan %s: %v", root, err)
	}
}

func importPaths(file *ast.File) []string {
	paths := make([]string, 0, len(file.Imports))
	for _, imp := range file.Imports {
		paths = append(paths, strings.Trim(imp.Path.Value, "\""))
	}
	return paths
}
