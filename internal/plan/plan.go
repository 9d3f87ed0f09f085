// Package plan turns a type and its LogSpec into the statements the
// instrumenter injects. Plans are plain data so they can be validated
// before any source file is touched.
package plan

import (
	"fmt"

	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/utils"
)

const (
	// LoggerVarPrefix prefixes the per-type logger variable
	LoggerVarPrefix = "autolog"
	// StartVar holds the entry time when timing is enabled
	StartVar = "autologStart"
)

// StatementKind identifies one injected statement
type StatementKind int

const (
	// CaptureStart is <start var> := autolog.Now()
	CaptureStart StatementKind = iota
	// LogEnter is logger.Log(level, before)
	LogEnter
	// DeferExit is defer logger.Leave(level, after)
	DeferExit
	// DeferExitTimed is defer logger.LeaveTimed(level, after, <start var>)
	DeferExitTimed
)

func (k StatementKind) String() string {
	switch k {
	case CaptureStart:
		return "capture-start"
	case LogEnter:
		return "log-enter"
	case DeferExit:
		return "defer-exit"
	case DeferExitTimed:
		return "defer-exit-timed"
	default:
		return "unknown"
	}
}

// Statement is one injected statement. Message is the resolved template and
// is only ever emitted as a quoted string literal.
type Statement struct {
	Kind    StatementKind
	Level   models.Level
	Message string
}

// MethodPlan lists the statements prepended to one method body
type MethodPlan struct {
	Method     string
	Statements []Statement
}

// Constructor describes the logger variable initializer:
// autolog.New(Name[, autolog.WithPattern(Pattern)])
type Constructor struct {
	Name    string
	Pattern string // empty when the default pattern applies
}

// TypePlan is everything injected for one type
type TypePlan struct {
	TypeName    string
	LoggerVar   string
	StartVar    string // local holding the entry time, empty without timing
	Constructor Constructor
	Methods     []MethodPlan
	Skipped     []string // excluded, blank or bodyless methods
}

// LoggerVarName returns the logger variable name for a type
func LoggerVarName(typeName string) string {
	return LoggerVarPrefix + typeName
}

// StartVarName returns the timing local for a logger variable. A type named
// Start would otherwise have its logger shadowed by the local.
func StartVarName(loggerVar string) string {
	if loggerVar == StartVar {
		return StartVar + "Time"
	}
	return StartVar
}

// Build plans the instrumentation of ct with spec. Methods are planned in
// source order.
func Build(ct *models.CompiledType, spec models.LogSpec) *TypePlan {
	p := &TypePlan{
		TypeName:  ct.Name,
		LoggerVar: LoggerVarName(ct.Name),
		Constructor: Constructor{
			Name: ct.Name,
		},
	}
	if spec.Pattern != "" && spec.Pattern != models.DefaultPattern {
		p.Constructor.Pattern = spec.Pattern
	}
	if spec.Timing {
		p.StartVar = StartVarName(p.LoggerVar)
	}

	for _, m := range ct.Methods {
		if m.Name == "_" || !m.HasBody || spec.Excludes(m.Name) {
			p.Skipped = append(p.Skipped, m.Name)
			continue
		}
		// a method declared once per build constraint shares one plan
		if _, planned := p.Method(m.Name); planned {
			continue
		}

		mp := MethodPlan{Method: m.Name}
		if spec.Timing {
			mp.Statements = append(mp.Statements, Statement{Kind: CaptureStart})
		}
		mp.Statements = append(mp.Statements, Statement{
			Kind:    LogEnter,
			Level:   spec.Level,
			Message: spec.BeforeMessage(ct.Name, m.Name),
		})
		exit := Statement{
			Kind:    DeferExit,
			Level:   spec.Level,
			Message: spec.AfterMessage(ct.Name, m.Name),
		}
		if spec.Timing {
			exit.Kind = DeferExitTimed
		}
		mp.Statements = append(mp.Statements, exit)

		p.Methods = append(p.Methods, mp)
	}

	return p
}

// Method returns the plan for a method by name
func (p *TypePlan) Method(name string) (*MethodPlan, bool) {
	for i := range p.Methods {
		if p.Methods[i].Method == name {
			return &p.Methods[i], true
		}
	}
	return nil, false
}

// References returns the identifiers injected code refers to inside method
// bodies, given the qualifier the runtime package is imported under. A
// receiver or parameter with one of these names would shadow it.
func (p *TypePlan) References(qualifier string) []string {
	names := []string{qualifier, p.LoggerVar}
	if p.StartVar != "" {
		names = append(names, p.StartVar)
	}
	return names
}

var (
	validTypeName  = utils.NewValidatorChain(utils.IsValidGoIdentifier("type name"), utils.NotIn("type name", "_"))
	validLoggerVar = utils.NewValidatorChain(utils.IsValidGoIdentifier("logger variable"))
	validMethod    = utils.NewValidatorChain(utils.IsValidGoIdentifier("method name"), utils.NotIn("method name", "_"))
	validKind      = utils.IsOneOf("statement kind", CaptureStart, LogEnter, DeferExit, DeferExitTimed)
	validLevel     = utils.Custom("level", "a known level", models.Level.Valid)
)

// Validate checks identifiers, levels and messages before lowering
func (p *TypePlan) Validate() error {
	if err := validTypeName.Validate(p.TypeName); err != nil {
		return err
	}
	if err := validLoggerVar.Validate(p.LoggerVar); err != nil {
		return err
	}
	if p.StartVar != "" {
		err := utils.NewValidatorChain(
			utils.IsValidGoIdentifier("start variable"),
			utils.NotIn("start variable", p.LoggerVar),
		).Validate(p.StartVar)
		if err != nil {
			return err
		}
	}
	if err := utils.IsText("pattern")(p.Constructor.Pattern); err != nil {
		return err
	}

	seen := make(map[string]bool, len(p.Methods))
	for _, m := range p.Methods {
		if err := validMethod.Validate(m.Method); err != nil {
			return err
		}
		if seen[m.Method] {
			return fmt.Errorf("method %s planned twice", m.Method)
		}
		seen[m.Method] = true

		for _, s := range m.Statements {
			if err := validKind(s.Kind); err != nil {
				return fmt.Errorf("method %s: %w", m.Method, err)
			}
			if s.Kind == CaptureStart {
				if p.StartVar == "" {
					return fmt.Errorf("method %s: timing statement without a start variable", m.Method)
				}
				continue
			}
			if err := validLevel(s.Level); err != nil {
				return fmt.Errorf("method %s: %w", m.Method, err)
			}
			if err := utils.IsText("message for " + m.Method)(s.Message); err != nil {
				return err
			}
		}
	}
	return nil
}

// MethodCount returns the number of methods that receive statements
func (p *TypePlan) MethodCount() int {
	return len(p.Methods)
}
