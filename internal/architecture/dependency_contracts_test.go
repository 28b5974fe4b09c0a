// Where: cli/internal/architecture/dependency_contracts_test.go
// What: Contract checks for anti-pattern dependency usage across internal layers.
// Why: Keep SDK clients behind infra adapters and printing out of library layers.
package architecture

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"sort"
	"strconv"
	"strings"
	"testing"
)

type dependencyContract struct {
	forbiddenImports      map[string]struct{}
	forbiddenCalls        map[string]map[string]struct{}
	forbiddenTypeLiterals map[string]map[string]struct{}
}

var noPrint = map[string]map[string]struct{}{
	"fmt": {
		"Print":   {},
		"Printf":  {},
		"Println": {},
	},
}

var dependencyContracts = map[string]dependencyContract{
	"domain": {
		forbiddenImports: map[string]struct{}{
			"github.com/aws/aws-sdk-go-v2/service/s3":       {},
			"github.com/aws/aws-sdk-go-v2/service/dynamodb": {},
			"github.com/aws/aws-sdk-go-v2/service/lambda":   {},
			"github.com/docker/docker/client":               {},
			"go.uber.org/zap":                               {},
		},
		forbiddenCalls: noPrint,
	},
	"usecase": {
		forbiddenImports: map[string]struct{}{
			"github.com/aws/aws-sdk-go-v2/service/s3":       {},
			"github.com/aws/aws-sdk-go-v2/service/dynamodb": {},
			"github.com/aws/aws-sdk-go-v2/service/lambda":   {},
			"github.com/docker/docker/client":               {},
		},
		forbiddenCalls: noPrint,
	},
	"handlers": {
		forbiddenImports: map[string]struct{}{
			"github.com/aws/aws-sdk-go-v2/service/s3":       {},
			"github.com/aws/aws-sdk-go-v2/service/dynamodb": {},
			"github.com/aws/aws-sdk-go-v2/service/lambda":   {},
		},
		forbiddenCalls: noPrint,
	},
	"command": {
		forbiddenImports: map[string]struct{}{
			"github.com/aws/aws-sdk-go-v2/service/s3":       {},
			"github.com/aws/aws-sdk-go-v2/service/dynamodb": {},
			"github.com/aws/aws-sdk-go-v2/service/lambda":   {},
			"github.com/docker/docker/client":               {},
		},
		forbiddenTypeLiterals: map[string]map[string]struct{}{
			internalImportPrefix + "infra/cfn": {
				"Template": {},
			},
		},
	},
	"infra/cfn": {
		forbiddenCalls: noPrint,
	},
	"infra/local": {
		forbiddenCalls: noPrint,
	},
}

func TestDependencyContracts(t *testing.T) {
	t.Parallel()

	violations := []string{}
	scanSources(t, resolveInternalRoot(t), parser.ParseComments, func(src sourceFile) {
		contract, ok := dependencyContractForPackage(path.Dir(src.rel))
		if !ok {
			return
		}
		aliases := resolveImportAliases(src.file)
		violations = append(violations, detectDependencyContractViolations(src.fset, src.rel, src.file, aliases, contract)...)
	})
	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("dependency contract violations:\n%s", strings.Join(violations, "\n"))
	}
}

func dependencyContractForPackage(sourcePkg string) (dependencyContract, bool) {
	pkg := strings.TrimSpace(sourcePkg)
	for prefix, contract := range dependencyContracts {
		if pkg != "" && (pkg == prefix || strings.HasPrefix(pkg, prefix+"/")) {
			return contract, true
		}
	}
	return dependencyContract{}, false
}

// resolveImportAliases maps the local name of each import to its path.
// Blank and dot imports cannot be referenced by selector and are skipped.
func resolveImportAliases(file *ast.File) map[string]string {
	aliases := map[string]string{}
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		switch {
		case importPath == "":
		case imp.Name == nil:
			aliases[path.Base(importPath)] = importPath
		case imp.Name.Name != "_" && imp.Name.Name != ".":
			aliases[imp.Name.Name] = importPath
		}
	}
	return aliases
}

func detectDependencyContractViolations(
	fset *token.FileSet,
	relPath string,
	file *ast.File,
	importAliases map[string]string,
	contract dependencyContract,
) []string {
	report := func(pos token.Pos, what string) string {
		return relPath + ":" + strconv.Itoa(fset.Position(pos).Line) + " -> " + what
	}

	violations := []string{}
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		if _, banned := contract.forbiddenImports[importPath]; banned {
			violations = append(violations, report(imp.Pos(), "import "+importPath))
		}
	}
	ast.Inspect(file, func(node ast.Node) bool {
		var (
			expr      ast.Expr
			forbidden map[string]map[string]struct{}
			kind      string
		)
		switch n := node.(type) {
		case *ast.CallExpr:
			expr, forbidden, kind = n.Fun, contract.forbiddenCalls, "call"
		case *ast.CompositeLit:
			expr, forbidden, kind = n.Type, contract.forbiddenTypeLiterals, "literal"
		default:
			return true
		}
		if qualified, ok := forbiddenSelector(expr, importAliases, forbidden); ok {
			violations = append(violations, report(node.Pos(), kind+" "+qualified))
		}
		return true
	})
	return violations
}

// forbiddenSelector reports pkg.Symbol when expr selects a symbol listed in
// forbidden for the package the selector's identifier was imported as.
func forbiddenSelector(expr ast.Expr, importAliases map[string]string, forbidden map[string]map[string]struct{}) (string, bool) {
	selector, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	ident, ok := selector.X.(*ast.Ident)
	if !ok {
		return "", false
	}
	importPath, ok := importAliases[ident.Name]
	if !ok {
		return "", false
	}
	if _, banned := forbidden[importPath][selector.Sel.Name]; !banned {
		return "", false
	}
	return importPath + "." + selector.Sel.Name, true
}

func TestForbiddenSelector(t *testing.T) {
	aliases := map[string]string{"fmt": "fmt", "dc": "github.com/docker/docker/client"}
	call := &ast.SelectorExpr{X: ast.NewIdent("fmt"), Sel: ast.NewIdent("Println")}
	if got, ok := forbiddenSelector(call, aliases, noPrint); !ok || got != "fmt.Println" {
		t.Fatalf("expected fmt.Println to be forbidden, got %q %v", got, ok)
	}
	allowed := &ast.SelectorExpr{X: ast.NewIdent("fmt"), Sel: ast.NewIdent("Errorf")}
	if _, ok := forbiddenSelector(allowed, aliases, noPrint); ok {
		t.Fatalf("fmt.Errorf must be allowed")
	}
	local := &ast.SelectorExpr{X: ast.NewIdent("u"), Sel: ast.NewIdent("Println")}
	if _, ok := forbiddenSelector(local, aliases, noPrint); ok {
		t.Fatalf("method calls on local values must be allowed")
	}
}
