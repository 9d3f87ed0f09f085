// Package instrument rewrites package sources so that every method of an
// annotated type logs on entry and, through defer, on exit.
package instrument

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"sort"
	"strconv"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/dstutil"
	"golang.org/x/tools/imports"

	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/plan"
	"github.com/toyz/autolog/internal/utils"
)

// SkipReason explains why an annotated type was left alone
type SkipReason string

const (
	SkipAlreadyInstrumented SkipReason = "already instrumented"
)

// InstrumentedType reports the rewrite of one type
type InstrumentedType struct {
	Key     models.TypeKey
	Name    string
	File    string
	Methods []string // methods that received statements
	Skipped []string // excluded or bodyless methods
}

// SkippedType is a type with a spec that was not rewritten
type SkippedType struct {
	Key    models.TypeKey
	Name   string
	Reason SkipReason
}

// Result summarizes one package
type Result struct {
	Dir     string
	Types   []InstrumentedType
	Skipped []SkippedType
	Files   []string // files written, or that would be written in dry-run mode
}

// MethodCount returns the number of instrumented methods
func (r *Result) MethodCount() int {
	n := 0
	for _, t := range r.Types {
		n += len(t.Methods)
	}
	return n
}

// Instrumenter rewrites package directories in place
type Instrumenter struct {
	runtime RuntimeBinding
	dryRun  bool
}

// Option configures an Instrumenter
type Option func(*Instrumenter)

// WithRuntime sets the runtime package injected code calls
func WithRuntime(rb RuntimeBinding) Option {
	return func(i *Instrumenter) { i.runtime = rb }
}

// WithDryRun computes rewrites without writing files
func WithDryRun(dryRun bool) Option {
	return func(i *Instrumenter) { i.dryRun = dryRun }
}

// New creates an Instrumenter bound to the default runtime
func New(opts ...Option) *Instrumenter {
	i := &Instrumenter{runtime: DefaultRuntimeBinding()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Runtime returns the configured runtime binding
func (i *Instrumenter) Runtime() RuntimeBinding {
	return i.runtime
}

// filePlans is the work for one source file
type filePlans struct {
	declares []*plan.TypePlan         // plans whose logger variable goes in this file
	methods  map[string]*plan.TypePlan // receiver type name -> plan
}

// Package instruments the types of one package directory that have a spec
// in specs. Every file is rewritten in memory before any is written back, so
// a failure in planning or rewriting leaves the package untouched.
func (i *Instrumenter) Package(dir string, types []*models.CompiledType, specs models.SpecSet) (*Result, error) {
	result := &Result{Dir: dir}
	if len(types) == 0 {
		return result, nil
	}
	scope, err := packageScope(dir, types[0].Package)
	if err != nil {
		return nil, err
	}
	work := make(map[string]*filePlans)
	get := func(file string) *filePlans {
		fp, ok := work[file]
		if !ok {
			fp = &filePlans{methods: make(map[string]*plan.TypePlan)}
			work[file] = fp
		}
		return fp
	}

	for _, ct := range types {
		spec, ok := specs.Lookup(ct)
		if !ok {
			continue
		}
		if ct.Instrumented {
			result.Skipped = append(result.Skipped, SkippedType{Key: ct.Key, Name: ct.Name, Reason: SkipAlreadyInstrumented})
			continue
		}

		tp := plan.Build(ct, spec)
		if err := tp.Validate(); err != nil {
			return nil, autologerrors.NewInstrumentationError("plan", ct.Name, err).
				WithLocation(autologerrors.SourceLocation{File: ct.File, Line: ct.Line})
		}
		if scope[tp.LoggerVar] {
			planErr := autologerrors.NewInstrumentationError("plan", ct.Name,
				fmt.Errorf("package already declares %s", tp.LoggerVar)).
				WithLocation(autologerrors.SourceLocation{File: ct.File, Line: ct.Line})
			planErr.WithSuggestions(fmt.Sprintf("Rename the identifier %s", tp.LoggerVar))
			return nil, planErr
		}

		get(ct.File).declares = append(get(ct.File).declares, tp)
		for _, m := range ct.Methods {
			if _, planned := tp.Method(m.Name); planned {
				get(m.File).methods[ct.Name] = tp
			}
		}

		it := InstrumentedType{Key: ct.Key, Name: ct.Name, File: ct.File, Skipped: tp.Skipped}
		for _, mp := range tp.Methods {
			it.Methods = append(it.Methods, mp.Method)
		}
		result.Types = append(result.Types, it)
	}

	files := make([]string, 0, len(work))
	for file := range work {
		files = append(files, file)
	}
	sort.Strings(files)

	type output struct {
		file string
		data []byte
		mode os.FileMode
	}
	var outputs []output

	for _, file := range files {
		src, mode, err := utils.ReadSource(file)
		if err != nil {
			return nil, autologerrors.WrapFileSystemError("read", file, err)
		}
		rewritten, err := i.rewrite(file, src, work[file], scope)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(src, rewritten) {
			outputs = append(outputs, output{file: file, data: rewritten, mode: mode})
		}
	}

	for _, out := range outputs {
		if !i.dryRun {
			if err := utils.OverwriteFile(out.file, out.data, out.mode); err != nil {
				return result, autologerrors.WrapFileSystemError("write", out.file, err)
			}
		}
		result.Files = append(result.Files, out.file)
	}

	return result, nil
}

// rewrite applies the plans for one file to its source and returns the
// formatted result
func (i *Instrumenter) rewrite(filename string, src []byte, fp *filePlans, scope map[string]bool) ([]byte, error) {
	if len(fp.declares) == 0 && len(fp.methods) == 0 {
		return src, nil
	}

	file, err := decorator.ParseFile(token.NewFileSet(), filename, src, parser.ParseComments)
	if err != nil {
		return nil, autologerrors.WrapParseError(filename, err)
	}

	qualifier, err := i.ensureImport(file, scope)
	if err != nil {
		return nil, autologerrors.NewInstrumentationError("import runtime into", filename, err)
	}
	low := lowering{qualifier: qualifier}

	declared := make(map[string]*plan.TypePlan, len(fp.declares))
	for _, tp := range fp.declares {
		declared[tp.TypeName] = tp
	}

	inserted := 0
	var shadowErr error
	dstutil.Apply(file, func(c *dstutil.Cursor) bool {
		switch node := c.Node().(type) {
		case *dst.File:
			return true
		case *dst.GenDecl:
			if node.Tok != token.TYPE {
				return false
			}
			// InsertAfter places each node directly after the type
			// declaration, so walk backwards to keep source order
			for idx := len(node.Specs) - 1; idx >= 0; idx-- {
				if tp, ok := declared[node.Specs[idx].(*dst.TypeSpec).Name.Name]; ok {
					c.InsertAfter(low.loggerDecl(tp))
					inserted++
				}
			}
			return false
		case *dst.FuncDecl:
			if node.Recv == nil || len(node.Recv.List) == 0 || node.Body == nil {
				return false
			}
			tp, ok := fp.methods[receiverTypeName(node.Recv.List[0].Type)]
			if !ok {
				return false
			}
			mp, planned := tp.Method(node.Name.Name)
			if !planned {
				return false
			}
			if name, shadows := shadowingName(node, tp.References(qualifier), tp.StartVar); shadows && shadowErr == nil {
				instErr := autologerrors.NewInstrumentationError("rewrite", tp.TypeName,
					fmt.Errorf("method %s declares %s, which the injected statements refer to", node.Name.Name, name))
				instErr.WithSuggestions(fmt.Sprintf("Rename %s in %s", name, node.Name.Name), "Or exclude the method with -Exclude")
				shadowErr = instErr
				return false
			}
			prepend(node.Body, low.statements(tp, mp))
			return false
		default:
			return false
		}
	}, nil)

	if shadowErr != nil {
		return nil, shadowErr
	}
	if inserted != len(fp.declares) {
		return nil, autologerrors.NewInstrumentationError("declare logger for", fp.declares[0].TypeName,
			fmt.Errorf("type declaration not found in %s", filename))
	}

	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, file); err != nil {
		return nil, autologerrors.NewInstrumentationError("print", filename, err)
	}

	formatted, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, autologerrors.NewInstrumentationError("format", filename, err)
	}
	return formatted, nil
}

// prepend inserts stmts at the top of a body, leaving a blank line before
// the original statements
func prepend(body *dst.BlockStmt, stmts []dst.Stmt) {
	if len(stmts) == 0 {
		return
	}
	if len(body.List) > 0 {
		stmts[len(stmts)-1].Decorations().After = dst.EmptyLine
	}
	body.List = append(stmts, body.List...)
}

// ensureImport makes sure the runtime package is imported and returns the
// qualifier to reference it by. A new import must not collide with another
// import of the file or with a package-level identifier.
func (i *Instrumenter) ensureImport(file *dst.File, scope map[string]bool) (string, error) {
	want := strconv.Quote(i.runtime.ImportPath)

	var importDecl *dst.GenDecl
	for _, decl := range file.Decls {
		gen, ok := decl.(*dst.GenDecl)
		if !ok || gen.Tok != token.IMPORT {
			continue
		}
		if importDecl == nil {
			importDecl = gen
		}
		for _, spec := range gen.Specs {
			is := spec.(*dst.ImportSpec)
			if is.Path.Value != want {
				continue
			}
			if is.Name == nil {
				return i.runtime.Name, nil
			}
			if is.Name.Name != "_" && is.Name.Name != "." {
				return is.Name.Name, nil
			}
		}
	}

	for _, decl := range file.Decls {
		gen, ok := decl.(*dst.GenDecl)
		if !ok || gen.Tok != token.IMPORT {
			continue
		}
		for _, spec := range gen.Specs {
			is := spec.(*dst.ImportSpec)
			if importedName(is) == i.runtime.Name {
				return "", fmt.Errorf("package name %s is already taken by import %s", i.runtime.Name, is.Path.Value)
			}
		}
	}
	if scope[i.runtime.Name] {
		return "", fmt.Errorf("package name %s is already declared in package %s", i.runtime.Name, file.Name.Name)
	}

	spec := &dst.ImportSpec{Path: &dst.BasicLit{Kind: token.STRING, Value: want}}
	if importName(i.runtime.ImportPath) != i.runtime.Name {
		spec.Name = dst.NewIdent(i.runtime.Name)
	}
	spec.Decs.Before = dst.NewLine
	spec.Decs.After = dst.NewLine

	if importDecl == nil {
		importDecl = &dst.GenDecl{Tok: token.IMPORT}
		importDecl.Decs.Before = dst.EmptyLine
		importDecl.Decs.After = dst.EmptyLine
		file.Decls = append([]dst.Decl{importDecl}, file.Decls...)
	}
	importDecl.Specs = append(importDecl.Specs, spec)
	if len(importDecl.Specs) > 1 {
		importDecl.Lparen = true
		importDecl.Rparen = true
	}
	return i.runtime.Name, nil
}

func importedName(is *dst.ImportSpec) string {
	if is.Name != nil {
		return is.Name.Name
	}
	p, err := strconv.Unquote(is.Path.Value)
	if err != nil {
		return ""
	}
	return importName(p)
}

// receiverTypeName mirrors the parser's receiver unwrapping on dst nodes
func receiverTypeName(expr dst.Expr) string {
	for {
		switch e := expr.(type) {
		case *dst.Ident:
			return e.Name
		case *dst.StarExpr:
			expr = e.X
		case *dst.ParenExpr:
			expr = e.X
		case *dst.IndexExpr:
			expr = e.X
		case *dst.IndexListExpr:
			expr = e.X
		default:
			return ""
		}
	}
}
