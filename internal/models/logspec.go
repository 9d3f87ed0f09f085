package models

import (
	"fmt"
	"sort"
	"strings"
)

// Placeholders substituted in message templates
const (
	ClassPlaceholder  = "%CLASS"
	MethodPlaceholder = "%METHOD"
)

// Default templates applied when an annotation leaves them out
const (
	DefaultBeforeTemplate = ClassPlaceholder + "->" + MethodPlaceholder + " - ENTER"
	DefaultAfterTemplate  = ClassPlaceholder + "->" + MethodPlaceholder + " - LEAVE"
	DefaultPattern        = "%d{yyyy-MM-dd HH:mm:ss} [%t] %-5level - %msg%n"
)

// Level is the closed set of levels an annotation may request
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelFatal
	LevelDebug
	LevelTrace
)

// Levels lists every level in declaration order
var Levels = []Level{LevelInfo, LevelWarn, LevelError, LevelFatal, LevelDebug, LevelTrace}

// String returns the level name as written in annotations
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "unknown"
	}
}

// Valid reports whether l is one of the declared levels
func (l Level) Valid() bool {
	return l >= LevelInfo && l <= LevelTrace
}

// RuntimeConst returns the name of the matching constant in the runtime package
func (l Level) RuntimeConst() string {
	switch l {
	case LevelWarn:
		return "LevelWarn"
	case LevelError:
		return "LevelError"
	case LevelFatal:
		return "LevelFatal"
	case LevelDebug:
		return "LevelDebug"
	case LevelTrace:
		return "LevelTrace"
	default:
		return "LevelInfo"
	}
}

// ParseLevel converts a level name, case-insensitively
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, l := range Levels {
		if l.String() == name {
			return l, nil
		}
	}
	names := make([]string, len(Levels))
	for i, l := range Levels {
		names[i] = l.String()
	}
	return LevelInfo, fmt.Errorf("must be one of: %s, got '%s'", strings.Join(names, ", "), s)
}

// LogSpec is the logging configuration attached to one type
type LogSpec struct {
	Level   Level    // level used for both entry and exit calls
	Before  string   // entry message template
	After   string   // exit message template
	Pattern string   // output layout handed to the runtime logger
	Exclude []string // method names that are left alone
	Timing  bool     // append elapsed time to the exit message
}

// DefaultLogSpec returns the spec for a bare //autolog::log annotation
func DefaultLogSpec() LogSpec {
	return LogSpec{
		Level:   LevelInfo,
		Before:  DefaultBeforeTemplate,
		After:   DefaultAfterTemplate,
		Pattern: DefaultPattern,
	}
}

// Excludes reports whether method is on the exclusion list. Matching is by
// exact name.
func (s LogSpec) Excludes(method string) bool {
	for _, name := range s.Exclude {
		if name == method {
			return true
		}
	}
	return false
}

// BeforeMessage resolves the entry template for a method
func (s LogSpec) BeforeMessage(typeName, method string) string {
	return Resolve(s.Before, typeName, method)
}

// AfterMessage resolves the exit template for a method
func (s LogSpec) AfterMessage(typeName, method string) string {
	return Resolve(s.After, typeName, method)
}

// Normalized returns a copy with a sorted, de-duplicated exclusion list
func (s LogSpec) Normalized() LogSpec {
	if len(s.Exclude) == 0 {
		s.Exclude = nil
		return s
	}
	seen := make(map[string]bool, len(s.Exclude))
	out := make([]string, 0, len(s.Exclude))
	for _, name := range s.Exclude {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	s.Exclude = out
	return s
}

// Resolve replaces every placeholder occurrence in template. Text outside
// the placeholders is kept as is.
func Resolve(template, typeName, method string) string {
	return strings.NewReplacer(
		ClassPlaceholder, typeName,
		MethodPlaceholder, method,
	).Replace(template)
}
