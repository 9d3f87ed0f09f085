package parser

import (
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/scanner"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/toyz/autolog/internal/annotations"
	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/plan"
	"github.com/toyz/autolog/internal/utils"
)

var _ TypeParser = (*Parser)(nil)

// Parser extracts CompiledType metadata from package directories
type Parser struct {
	fileSet    *token.FileSet
	annotation *annotations.ParticipleParser
	files      *utils.FileProcessor
	modules    *utils.GoModParser
}

// NewParser creates a new type parser
func NewParser() *Parser {
	return &Parser{
		fileSet:    token.NewFileSet(),
		annotation: annotations.NewParticipleParser(annotations.DefaultRegistry()),
		files:      utils.NewFileProcessor(),
		modules:    utils.NewGoModParser(),
	}
}

// FileSet returns the file set positions are reported against
func (p *Parser) FileSet() *token.FileSet {
	return p.fileSet
}

// ParseSource parses source code from a string for testing purposes
func (p *Parser) ParseSource(filename, source string) ([]*models.CompiledType, error) {
	file, err := parser.ParseFile(p.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, syntaxError(filename, err)
	}

	return p.collect(filepath.Dir(filename), "", []*ast.File{file}, nil)
}

// ParseDirectory parses the non-test Go files of one package directory.
// Types come from the files the host build would compile. Files excluded by
// build constraints still contribute methods, so a method written for another
// platform is instrumented along with the rest of its type.
func (p *Parser) ParseDirectory(path string) ([]*models.CompiledType, error) {
	names, err := p.files.GoFilesInDir(path)
	if err != nil {
		return nil, autologerrors.WrapFileSystemError("read", path, err)
	}

	var files, constrained []*ast.File
	packageName := ""
	for _, name := range names {
		file, err := parser.ParseFile(p.fileSet, name, nil, parser.ParseComments)
		if err != nil {
			return nil, syntaxError(name, err)
		}

		if ok, err := build.Default.MatchFile(path, filepath.Base(name)); err == nil && !ok {
			constrained = append(constrained, file)
			continue
		}

		if packageName == "" {
			packageName = file.Name.Name
		} else if file.Name.Name != packageName {
			return nil, autologerrors.Newf(autologerrors.ValidationErrorCode,
				"multiple packages found in directory %s: %s and %s", path, packageName, file.Name.Name)
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return nil, nil
	}

	// constrained files of another package are tools such as //go:build ignore programs
	others := constrained[:0]
	for _, file := range constrained {
		if file.Name.Name == packageName {
			others = append(others, file)
		}
	}

	importPath, err := p.modules.ImportPath(path)
	if err != nil {
		return nil, autologerrors.WrapFileSystemError("resolve import path for", path, err)
	}

	return p.collect(path, importPath, files, others)
}

// collect runs the three passes over a parsed package: types and their
// annotations, then methods, then existing logger variables. constrained
// files only contribute methods and logger variables.
func (p *Parser) collect(dir, importPath string, files, constrained []*ast.File) ([]*models.CompiledType, error) {
	var types []*models.CompiledType
	byName := make(map[string]*models.CompiledType)
	errs := autologerrors.NewMultipleErrors()

	// First pass: declared types and their annotations
	for _, file := range files {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec := spec.(*ast.TypeSpec)
				pos := p.fileSet.Position(typeSpec.Name.Pos())

				ct := &models.CompiledType{
					Key:        models.NewTypeKey(importPath, typeSpec.Name.Name),
					Name:       typeSpec.Name.Name,
					Package:    file.Name.Name,
					ImportPath: importPath,
					Dir:        dir,
					File:       pos.Filename,
					Line:       pos.Line,
				}

				logSpec, err := p.extractSpec(typeDoc(genDecl, typeSpec))
				if err != nil {
					errs.Add(err)
				}
				ct.Spec = logSpec

				types = append(types, ct)
				byName[ct.Name] = ct
			}
		}
	}

	// A type redeclared per platform has a logger only where the host
	// declaration lives, so methods next to the other declarations stay
	// untouched.
	redeclared := make(map[string]bool)
	for _, file := range constrained {
		for _, name := range typeNames(file) {
			redeclared[name] = true
		}
	}

	// Second pass: methods, which may live in any file of the package
	addMethods := func(file *ast.File, constrainedFile bool) {
		for _, decl := range file.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || funcDecl.Recv == nil || len(funcDecl.Recv.List) == 0 {
				continue
			}
			ct, ok := byName[ReceiverTypeName(funcDecl.Recv.List[0].Type)]
			if !ok || (constrainedFile && redeclared[ct.Name]) {
				continue
			}
			pos := p.fileSet.Position(funcDecl.Pos())
			ct.Methods = append(ct.Methods, models.Method{
				Name:    funcDecl.Name.Name,
				File:    pos.Filename,
				Line:    pos.Line,
				HasBody: funcDecl.Body != nil,
			})
		}
	}
	for _, file := range files {
		addMethods(file, false)
	}
	for _, file := range constrained {
		addMethods(file, true)
	}

	// Third pass: logger variables from an earlier run
	for _, file := range append(append([]*ast.File{}, files...), constrained...) {
		for _, name := range packageVarNames(file) {
			if !strings.HasPrefix(name, plan.LoggerVarPrefix) {
				continue
			}
			if ct, ok := byName[strings.TrimPrefix(name, plan.LoggerVarPrefix)]; ok {
				ct.Instrumented = true
			}
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return types, nil
}

// extractSpec finds the autolog annotation in a doc comment. A nil spec
// means the type is not annotated.
func (p *Parser) extractSpec(doc *ast.CommentGroup) (*models.LogSpec, error) {
	if doc == nil {
		return nil, nil
	}

	var found *models.LogSpec
	for _, comment := range doc.List {
		if !annotations.IsAnnotation(comment.Text) {
			continue
		}

		pos := p.fileSet.Position(comment.Slash)
		location := annotations.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}

		if found != nil {
			return nil, autologerrors.NewSyntaxError("duplicate autolog annotation", comment.Text).
				WithLocation(autologerrors.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column})
		}

		parsed, err := p.annotation.ParseAnnotation(comment.Text, location)
		if err != nil {
			return nil, err
		}
		spec, err := annotations.ToLogSpec(parsed)
		if err != nil {
			return nil, err
		}
		found = &spec
	}
	return found, nil
}

// typeDoc returns the doc comment that belongs to a single type spec. The
// declaration comment only counts for ungrouped declarations.
func typeDoc(genDecl *ast.GenDecl, typeSpec *ast.TypeSpec) *ast.CommentGroup {
	if typeSpec.Doc != nil {
		return typeSpec.Doc
	}
	if !genDecl.Lparen.IsValid() {
		return genDecl.Doc
	}
	return nil
}

// ReceiverTypeName returns the base type name of a method receiver,
// unwrapping pointers, parentheses and type parameters
func ReceiverTypeName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.Ident:
			return e.Name
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		default:
			return ""
		}
	}
}

func typeNames(file *ast.File) []string {
	var names []string
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			names = append(names, spec.(*ast.TypeSpec).Name.Name)
		}
	}
	return names
}

func packageVarNames(file *ast.File) []string {
	var names []string
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.VAR {
			continue
		}
		for _, spec := range genDecl.Specs {
			for _, name := range spec.(*ast.ValueSpec).Names {
				names = append(names, name.Name)
			}
		}
	}
	return names
}

// syntaxError converts a go/parser failure into a located SyntaxError
func syntaxError(filename string, err error) error {
	wrapped := autologerrors.WrapParseError(filename, err)
	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		first := list[0]
		wrapped.WithLocation(autologerrors.SourceLocation{
			File:   first.Pos.Filename,
			Line:   first.Pos.Line,
			Column: first.Pos.Column,
		})
	}
	return wrapped
}

// ExtractSpecs collects the specs of annotated types
func ExtractSpecs(types []*models.CompiledType) models.SpecSet {
	specs := make(models.SpecSet)
	for _, t := range types {
		if t.Spec != nil {
			specs[t.Key] = *t.Spec
		}
	}
	return specs
}

// FindType returns the type with the given name, for callers that know only
// the simple name
func FindType(types []*models.CompiledType, name string) (*models.CompiledType, error) {
	for _, t := range types {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("type %s not found", name)
}
