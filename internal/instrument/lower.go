package instrument

import (
	"go/token"
	"strconv"

	"github.com/dave/dst"

	"github.com/toyz/autolog/internal/plan"
)

// MarkerComment precedes every generated logger variable
const MarkerComment = "// autolog:instrumented"

// lowering turns plan data into fresh dst nodes. Every call returns new
// nodes since dst forbids sharing a node between two parents.
type lowering struct {
	qualifier string
}

func (l lowering) pkgSel(name string) *dst.SelectorExpr {
	return &dst.SelectorExpr{X: dst.NewIdent(l.qualifier), Sel: dst.NewIdent(name)}
}

func stringLit(s string) *dst.BasicLit {
	return &dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
}

// loggerDecl builds the package-level logger variable for a type plan
func (l lowering) loggerDecl(p *plan.TypePlan) *dst.GenDecl {
	args := []dst.Expr{stringLit(p.Constructor.Name)}
	if p.Constructor.Pattern != "" {
		args = append(args, &dst.CallExpr{
			Fun:  l.pkgSel("WithPattern"),
			Args: []dst.Expr{stringLit(p.Constructor.Pattern)},
		})
	}

	decl := &dst.GenDecl{
		Tok: token.VAR,
		Specs: []dst.Spec{
			&dst.ValueSpec{
				Names:  []*dst.Ident{dst.NewIdent(p.LoggerVar)},
				Values: []dst.Expr{&dst.CallExpr{Fun: l.pkgSel("New"), Args: args}},
			},
		},
	}
	decl.Decs.Before = dst.EmptyLine
	decl.Decs.Start.Append(MarkerComment)
	decl.Decs.After = dst.EmptyLine
	return decl
}

// statements lowers the statements of one method plan
func (l lowering) statements(tp *plan.TypePlan, mp *plan.MethodPlan) []dst.Stmt {
	stmts := make([]dst.Stmt, 0, len(mp.Statements))
	for _, s := range mp.Statements {
		switch s.Kind {
		case plan.CaptureStart:
			stmts = append(stmts, &dst.AssignStmt{
				Lhs: []dst.Expr{dst.NewIdent(tp.StartVar)},
				Tok: token.DEFINE,
				Rhs: []dst.Expr{&dst.CallExpr{Fun: l.pkgSel("Now")}},
			})
		case plan.LogEnter:
			stmts = append(stmts, &dst.ExprStmt{X: l.loggerCall(tp.LoggerVar, "Log", s)})
		case plan.DeferExit:
			stmts = append(stmts, &dst.DeferStmt{Call: l.loggerCall(tp.LoggerVar, "Leave", s)})
		case plan.DeferExitTimed:
			call := l.loggerCall(tp.LoggerVar, "LeaveTimed", s)
			call.Args = append(call.Args, dst.NewIdent(tp.StartVar))
			stmts = append(stmts, &dst.DeferStmt{Call: call})
		}
	}

	for _, stmt := range stmts {
		stmt.Decorations().Before = dst.NewLine
		stmt.Decorations().After = dst.NewLine
	}
	return stmts
}

func (l lowering) loggerCall(loggerVar, method string, s plan.Statement) *dst.CallExpr {
	return &dst.CallExpr{
		Fun: &dst.SelectorExpr{X: dst.NewIdent(loggerVar), Sel: dst.NewIdent(method)},
		Args: []dst.Expr{
			l.pkgSel(s.Level.RuntimeConst()),
			stringLit(s.Message),
		},
	}
}
