package annotations

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ParticipleParser parses annotation comments with alecthomas/participle
// and checks them against the schema registry
type ParticipleParser struct {
	parser   *participle.Parser[Annotation]
	registry AnnotationRegistry
}

// Annotation is the grammar root: //autolog::<type> followed by parameters
type Annotation struct {
	Pos    lexer.Position
	Head   string       `parser:"Comment @Bare"`
	Params []*Parameter `parser:"@@*"`
}

// Parameter is a -Name flag with an optional =value
type Parameter struct {
	Pos   lexer.Position
	Name  string `parser:"@Flag"`
	Value *Value `parser:"( Equals @@ )?"`
}

// Value is either a Go quoted string or a bare word
type Value struct {
	Pos    lexer.Position
	Quoted *string `parser:"  @String"`
	Bare   *string `parser:"| @Bare"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Comment", Pattern: `//`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Flag", Pattern: `-[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Bare", Pattern: `[^\s"=]+`},
})

// NewParticipleParser creates a new parser using participle
func NewParticipleParser(registry AnnotationRegistry) *ParticipleParser {
	parser := participle.MustBuild[Annotation](
		participle.Lexer(annotationLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)

	return &ParticipleParser{
		parser:   parser,
		registry: registry,
	}
}

// ParseAnnotation parses a single annotation comment. location is where the
// comment starts in the source file.
func (p *ParticipleParser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	text := strings.TrimSpace(comment)
	if _, ok := annotationBody(text); !ok {
		return nil, NewSyntaxErrorWithContext("annotation must start with '"+Prefix+"'", location, text)
	}

	ast, err := p.parser.ParseString(location.File, text)
	if err != nil {
		return nil, p.syntaxError(err, text, location)
	}

	typeName := strings.TrimPrefix(ast.Head, marker)
	annotationType, err := p.parseAnnotationType(typeName)
	if err != nil {
		return nil, &SchemaError{
			Msg:  err.Error(),
			Loc:  location,
			Hint: "The only annotation is //autolog::log",
		}
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]interface{}),
		Location:   location,
		Raw:        text,
	}

	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return nil, &SchemaError{Msg: err.Error(), Loc: location}
	}

	var errs []AnnotationError
	for _, param := range ast.Params {
		loc := offset(location, param.Pos)
		if err := p.applyParameter(parsed, schema, param, loc); err != nil {
			errs = append(errs, err)
		}
	}

	for name, spec := range schema.Parameters {
		if spec.Required && !parsed.HasParameter(name) {
			errs = append(errs, &ValidationError{
				Parameter: name,
				Expected:  fmt.Sprintf("required parameter of type %s", spec.Type),
				Actual:    "missing",
				Loc:       location,
				Hint:      fmt.Sprintf("Add -%s=<value> to the annotation", name),
			})
		}
	}

	switch len(errs) {
	case 0:
		return parsed, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, &MultipleAnnotationErrors{Errors: errs}
	}
}

func (p *ParticipleParser) applyParameter(parsed *ParsedAnnotation, schema AnnotationSchema, param *Parameter, loc SourceLocation) AnnotationError {
	given := strings.TrimPrefix(param.Name, "-")
	name, ok := schema.CanonicalParameter(given)
	if !ok {
		return &SchemaError{
			Msg:  fmt.Sprintf("unknown parameter '%s' for annotation type %s", given, schema.Type),
			Loc:  loc,
			Hint: "Known parameters: " + strings.Join(parameterNames(schema), ", "),
		}
	}
	if parsed.HasParameter(name) {
		return NewSyntaxErrorWithContext(fmt.Sprintf("duplicate parameter '%s'", name), loc, parsed.Raw)
	}

	raw, present, err := rawValue(param.Value)
	if err != nil {
		return NewSyntaxErrorWithContext(err.Error(), offset(loc, param.Value.Pos), parsed.Raw)
	}

	spec := schema.Parameters[name]
	value, err := convertValue(spec, raw, present)
	if err != nil {
		return &ValidationError{
			Parameter: name,
			Expected:  spec.Type.String(),
			Actual:    strconv.Quote(raw),
			Loc:       loc,
			Hint:      err.Error(),
		}
	}

	if spec.Validator != nil {
		if err := spec.Validator(value); err != nil {
			return &ValidationError{
				Parameter: name,
				Expected:  "valid value",
				Actual:    fmt.Sprintf("%v", value),
				Loc:       loc,
				Hint:      strings.TrimSpace(err.Error() + ". " + generateValidationSuggestion(name)),
			}
		}
	}

	parsed.Parameters[name] = value
	return nil
}

// rawValue extracts the text of a parameter value, unquoting Go strings
func rawValue(v *Value) (string, bool, error) {
	switch {
	case v == nil:
		return "", false, nil
	case v.Quoted != nil:
		s, err := strconv.Unquote(*v.Quoted)
		if err != nil {
			return "", true, fmt.Errorf("invalid quoted value %s", *v.Quoted)
		}
		return s, true, nil
	case v.Bare != nil:
		return *v.Bare, true, nil
	default:
		return "", false, nil
	}
}

// syntaxError converts a participle error into a SyntaxError positioned in
// the source file
func (p *ParticipleParser) syntaxError(err error, text string, location SourceLocation) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		msg := perr.Message()
		if strings.Count(text, `"`)%2 == 1 {
			msg = "unterminated quoted value"
		}
		return NewSyntaxErrorWithContext(msg, offset(location, perr.Position()), text)
	}
	return NewSyntaxErrorWithContext(err.Error(), location, text)
}

// parseAnnotationType converts string to AnnotationType
func (p *ParticipleParser) parseAnnotationType(typeStr string) (AnnotationType, error) {
	annotationType, err := ParseAnnotationType(typeStr)
	if err != nil {
		return LogAnnotation, err
	}

	if !p.registry.IsRegistered(annotationType) {
		return LogAnnotation, fmt.Errorf("annotation type '%s' is not registered in schema registry", typeStr)
	}

	return annotationType, nil
}

// offset moves a comment-relative lexer position into file coordinates
func offset(base SourceLocation, pos lexer.Position) SourceLocation {
	loc := base
	if pos.Line > 1 {
		loc.Line += pos.Line - 1
		loc.Column = pos.Column
		return loc
	}
	if loc.Column == 0 {
		loc.Column = 1
	}
	if pos.Column > 0 {
		loc.Column += pos.Column - 1
	}
	return loc
}

func parameterNames(schema AnnotationSchema) []string {
	names := make([]string, 0, len(schema.Parameters))
	for name := range schema.Parameters {
		names = append(names, "-"+name)
	}
	sort.Strings(names)
	return names
}
