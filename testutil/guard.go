// Package testutil holds import guards shared by the architecture tests. The
// slider engine and its domain types must stay free of storage drivers, cloud
// SDKs and the infra packages that wrap them.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// ModulePath is the import path prefix of this repository.
const ModulePath = "timeslider"

// driverPrefixes name third-party modules that only infra packages may use.
var driverPrefixes = []string{
	"modernc.org/sqlite",
	"github.com/jackc/pgx",
	"github.com/aws/aws-sdk-go-v2",
}

// InternalImportForbidden matches any path under an internal/ tree.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/") || strings.HasPrefix(path, "internal/")
}

// InfraImportForbidden matches the infra packages wrapping storage backends.
func InfraImportForbidden(path string) bool {
	return path == ModulePath+"/internal/infra" || strings.HasPrefix(path, ModulePath+"/internal/infra/")
}

// DriverImportForbidden matches database drivers and cloud SDKs, including
// their subpackages.
func DriverImportForbidden(path string) bool {
	for _, p := range driverPrefixes {
		if underModule(path, p) {
			return true
		}
	}
	return false
}

// MetricsImportForbidden matches the Prometheus client.
func MetricsImportForbidden(path string) bool {
	return underModule(path, "github.com/prometheus/client_golang")
}

func underModule(path, module string) bool {
	return path == module || strings.HasPrefix(path, module+"/")
}

// AnyOf combines predicates.
func AnyOf(preds ...func(string) bool) func(string) bool {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// AssertNoDirectImports parses the non-test Go files directly in dir and
// fails t when one imports a path matched by forbidden.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(string) bool, reason string) {
	t.Helper()
	viols, err := directImports(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	report(t, "direct import", reason, viols)
}

// AssertNoTransitiveDependency lists the dependencies of pattern with
// `go list -deps` and fails t when one is matched by forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(string) bool, reason string) {
	t.Helper()
	out, err := listDeps(pattern)
	if err != nil {
		t.Fatalf("go list -deps %s: %v\n%s", pattern, err, out)
	}
	var viols []string
	for _, line := range strings.Split(string(out), "\n") {
		if dep := strings.TrimSpace(line); dep != "" && forbidden(dep) {
			viols = append(viols, dep)
		}
	}
	report(t, "transitive dependency", reason, viols)
}

var listDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

func directImports(dir string, forbidden func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, err
			}
			if forbidden(path) {
				viols = append(viols, path+" ("+name+")")
			}
		}
	}
	sort.Strings(viols)
	return viols, nil
}

type fataler interface {
	Fatalf(format string, args ...any)
}

func report(t fataler, kind, reason string, viols []string) {
	if len(viols) == 0 {
		return
	}
	t.Fatalf("forbidden %s (%s):\n%s", kind, reason, strings.Join(viols, "\n"))
}
