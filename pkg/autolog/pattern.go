package autolog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segDate
	segGoroutine
	segLevel
	segLogger
	segMessage
)

type segment struct {
	kind  segmentKind
	text  string // literal text or date layout
	width int    // negative pads right, positive pads left
}

// Pattern is a compiled output layout.
//
// Supported conversions:
//
//	%d, %d{yyyy-MM-dd HH:mm:ss.SSS}  timestamp, Java-style date tokens
//	%t                               goroutine id
//	%level, %p                       level name
//	%c, %logger                      logger (type) name
//	%msg, %m                         message
//	%n                               newline
//	%%                               literal percent
//
// A width such as %-5level pads the field to five columns.
type Pattern struct {
	source   string
	segments []segment
}

const defaultDateLayout = "yyyy-MM-dd HH:mm:ss"

// CompilePattern parses a layout string
func CompilePattern(pattern string) (*Pattern, error) {
	p := &Pattern{source: pattern}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			p.segments = append(p.segments, segment{kind: segLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if i+1 >= len(pattern) {
			return nil, fmt.Errorf("pattern %q: dangling %%", pattern)
		}
		if pattern[i+1] == '%' {
			lit.WriteByte('%')
			i++
			continue
		}

		j := i + 1
		width := 0
		if j < len(pattern) && (pattern[j] == '-' || isDigit(pattern[j])) {
			start := j
			if pattern[j] == '-' {
				j++
			}
			for j < len(pattern) && isDigit(pattern[j]) {
				j++
			}
			w, err := strconv.Atoi(pattern[start:j])
			if err != nil {
				return nil, fmt.Errorf("pattern %q: bad width at offset %d", pattern, i)
			}
			width = w
		}

		nameStart := j
		for j < len(pattern) && isLetter(pattern[j]) {
			j++
		}
		name := pattern[nameStart:j]

		seg := segment{width: width}
		switch name {
		case "d":
			seg.kind = segDate
			seg.text = defaultDateLayout
			if j < len(pattern) && pattern[j] == '{' {
				end := strings.IndexByte(pattern[j:], '}')
				if end < 0 {
					return nil, fmt.Errorf("pattern %q: unterminated date layout", pattern)
				}
				seg.text = pattern[j+1 : j+end]
				j += end + 1
			}
		case "t":
			seg.kind = segGoroutine
		case "level", "p":
			seg.kind = segLevel
		case "c", "logger":
			seg.kind = segLogger
		case "msg", "m":
			seg.kind = segMessage
		case "n":
			lit.WriteByte('\n')
			i = j - 1
			continue
		default:
			return nil, fmt.Errorf("pattern %q: unknown conversion %%%s", pattern, name)
		}

		flush()
		p.segments = append(p.segments, seg)
		i = j - 1
	}
	flush()
	return p, nil
}

// String returns the source layout
func (p *Pattern) String() string {
	return p.source
}

// Format renders r
func (p *Pattern) Format(r Record) string {
	var b strings.Builder
	for _, seg := range p.segments {
		var field string
		switch seg.kind {
		case segLiteral:
			b.WriteString(seg.text)
			continue
		case segDate:
			field = formatDate(r.Time, seg.text)
		case segGoroutine:
			field = strconv.FormatUint(r.Goroutine, 10)
		case segLevel:
			field = r.Level.String()
		case segLogger:
			field = r.Logger
		case segMessage:
			field = r.Message
		}
		b.WriteString(pad(field, seg.width))
	}
	return b.String()
}

func pad(s string, width int) string {
	switch {
	case width < 0 && len(s) < -width:
		return s + strings.Repeat(" ", -width-len(s))
	case width > 0 && len(s) < width:
		return strings.Repeat(" ", width-len(s)) + s
	default:
		return s
	}
}

// formatDate renders t using Java SimpleDateFormat-style tokens
func formatDate(t time.Time, layout string) string {
	var b strings.Builder
	for i := 0; i < len(layout); {
		c := layout[i]
		n := 1
		for i+n < len(layout) && layout[i+n] == c {
			n++
		}
		switch {
		case c == 'y' && n >= 4:
			fmt.Fprintf(&b, "%04d", t.Year())
		case c == 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case c == 'M':
			fmt.Fprintf(&b, "%0*d", n, int(t.Month()))
		case c == 'd':
			fmt.Fprintf(&b, "%0*d", n, t.Day())
		case c == 'H':
			fmt.Fprintf(&b, "%0*d", n, t.Hour())
		case c == 'm':
			fmt.Fprintf(&b, "%0*d", n, t.Minute())
		case c == 's':
			fmt.Fprintf(&b, "%0*d", n, t.Second())
		case c == 'S':
			fmt.Fprintf(&b, "%03d", t.Nanosecond()/int(time.Millisecond))
		default:
			b.WriteString(layout[i : i+n])
		}
		i += n
	}
	return b.String()
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
