package instrument

import (
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/dave/dst"

	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/utils"
)

// packageScope returns the package-level identifiers of the package in dir.
// Every non-test file counts whatever its build constraints, since an
// identifier declared for one platform still collides on that platform.
func packageScope(dir, pkgName string) (map[string]bool, error) {
	names, err := utils.NewFileProcessor().GoFilesInDir(dir)
	if err != nil {
		return nil, autologerrors.WrapFileSystemError("read", dir, err)
	}

	scope := make(map[string]bool)
	fset := token.NewFileSet()
	for _, name := range names {
		file, err := parser.ParseFile(fset, name, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, autologerrors.WrapParseError(name, err)
		}
		if pkgName != "" && file.Name.Name != pkgName {
			continue
		}
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					scope[d.Name.Name] = true
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						scope[s.Name.Name] = true
					case *ast.ValueSpec:
						for _, n := range s.Names {
							scope[n.Name] = true
						}
					}
				}
			}
		}
	}
	return scope, nil
}

// shadowingName returns the first name in refs that fn declares where it
// would hide the package-level meaning the injected statements rely on. The
// receiver, parameters and results shadow any of them. The start variable is
// also defined at the top of the body, so a second top-level definition of
// it conflicts too.
func shadowingName(fn *dst.FuncDecl, refs []string, startVar string) (string, bool) {
	wanted := make(map[string]bool, len(refs))
	for _, name := range refs {
		wanted[name] = true
	}

	for _, list := range []*dst.FieldList{fn.Recv, fn.Type.Params, fn.Type.Results} {
		if list == nil {
			continue
		}
		for _, field := range list.List {
			for _, name := range field.Names {
				if wanted[name.Name] {
					return name.Name, true
				}
			}
		}
	}

	if startVar == "" || fn.Body == nil {
		return "", false
	}
	for _, stmt := range fn.Body.List {
		switch s := stmt.(type) {
		case *dst.AssignStmt:
			if s.Tok != token.DEFINE {
				continue
			}
			for _, lhs := range s.Lhs {
				if id, ok := lhs.(*dst.Ident); ok && id.Name == startVar {
					return startVar, true
				}
			}
		case *dst.DeclStmt:
			gen, ok := s.Decl.(*dst.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gen.Specs {
				if vs, ok := spec.(*dst.ValueSpec); ok {
					for _, name := range vs.Names {
						if name.Name == startVar {
							return startVar, true
						}
					}
				}
			}
		}
	}
	return "", false
}
