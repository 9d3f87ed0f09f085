package autolog

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
)

// TextSink writes each record to w using the record's pattern, falling
// back to the sink's own pattern and then DefaultPattern.
type TextSink struct {
	mu       sync.Mutex
	w        io.Writer
	fallback string
	compiled map[string]*Pattern
}

// NewTextSink creates a TextSink writing to w
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{
		w:        w,
		fallback: DefaultPattern,
		compiled: make(map[string]*Pattern),
	}
}

// SetPattern changes the layout used for records that carry none
func (s *TextSink) SetPattern(pattern string) error {
	if _, err := CompilePattern(pattern); err != nil {
		return err
	}
	s.mu.Lock()
	s.fallback = pattern
	s.mu.Unlock()
	return nil
}

// Write implements Sink
func (s *TextSink) Write(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout := r.Pattern
	if layout == "" {
		layout = s.fallback
	}
	p, ok := s.compiled[layout]
	if !ok {
		var err error
		p, err = CompilePattern(layout)
		if err != nil {
			// an unusable layout still has to produce a line
			p, _ = CompilePattern(DefaultPattern)
		}
		s.compiled[layout] = p
	}
	_, _ = io.WriteString(s.w, p.Format(r))
}

// SlogSink forwards records to a slog.Logger. TRACE and FATAL use levels
// outside slog's named range.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by logger
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Write implements Sink
func (s *SlogSink) Write(r Record) {
	s.logger.LogAttrs(context.Background(), r.Level.SlogLevel(), r.Message,
		slog.String("logger", r.Logger),
		slog.Uint64("goroutine", r.Goroutine),
	)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID reads the current goroutine id from the stack header
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
