package instrument

import (
	"fmt"
	"go/token"
	"path"
	"strings"

	"golang.org/x/mod/module"
)

// DefaultRuntimeImport is the logging runtime injected code calls into
const DefaultRuntimeImport = "github.com/toyz/autolog/pkg/autolog"

// RuntimeBinding names the package the injected statements call. Any package
// exposing New, WithPattern, Now, the Level constants and a Logger with Log,
// Leave and LeaveTimed can serve.
type RuntimeBinding struct {
	ImportPath string
	Name       string // package name used as the qualifier
}

// DefaultRuntimeBinding returns the binding for the bundled runtime
func DefaultRuntimeBinding() RuntimeBinding {
	return RuntimeBinding{ImportPath: DefaultRuntimeImport, Name: "autolog"}
}

// NewRuntimeBinding builds a binding from an import path. An empty name is
// derived from the path.
func NewRuntimeBinding(importPath, name string) (RuntimeBinding, error) {
	if importPath == "" {
		return DefaultRuntimeBinding(), nil
	}
	if err := module.CheckImportPath(importPath); err != nil {
		return RuntimeBinding{}, fmt.Errorf("runtime import %q: %w", importPath, err)
	}
	if name == "" {
		name = importName(importPath)
	}
	if !token.IsIdentifier(name) || name == "_" {
		return RuntimeBinding{}, fmt.Errorf("runtime package name %q is not a valid identifier", name)
	}
	return RuntimeBinding{ImportPath: importPath, Name: name}, nil
}

// importName guesses the package name of an import path: the last element,
// skipping a major version suffix and dropping a go- prefix
func importName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) {
		base = path.Base(path.Dir(importPath))
	}
	base = strings.TrimPrefix(base, "go-")
	base = strings.TrimSuffix(base, ".go")
	base = strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, base)
	return base
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
