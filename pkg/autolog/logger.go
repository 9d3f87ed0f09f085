// Package autolog is the runtime half of the autolog instrumenter.
//
// Instrumented packages declare one Logger per annotated type and call it
// at method entry and exit:
//
//	var autologOrderService = autolog.New("OrderService")
//
//	func (s *OrderService) PlaceOrder() error {
//		autologOrderService.Log(autolog.LevelInfo, "OrderService->PlaceOrder - ENTER")
//		defer autologOrderService.Leave(autolog.LevelInfo, "OrderService->PlaceOrder - LEAVE")
//		...
//	}
//
// Where the records end up is decided at runtime with SetSink. The default
// sink writes pattern-formatted lines to stderr.
package autolog

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPattern is the layout used when an annotation does not set one
const DefaultPattern = "%d{yyyy-MM-dd HH:mm:ss} [%t] %-5level - %msg%n"

// Record is a single log event handed to a Sink
type Record struct {
	Time      time.Time
	Level     Level
	Logger    string // simple name of the instrumented type
	Message   string
	Pattern   string // layout requested by the logger, may be empty
	Goroutine uint64
}

// Sink receives every record emitted by instrumented code
type Sink interface {
	Write(r Record)
}

// SinkFunc adapts a plain function to the Sink interface
type SinkFunc func(r Record)

// Write calls f(r)
func (f SinkFunc) Write(r Record) { f(r) }

var (
	sinkMu   sync.RWMutex
	sink     Sink = NewTextSink(os.Stderr)
	minLevel atomic.Int64
)

func init() {
	minLevel.Store(int64(LevelTrace))
}

// SetSink replaces the process-wide sink and returns the previous one.
// A nil sink discards all records.
func SetSink(s Sink) Sink {
	if s == nil {
		s = SinkFunc(func(Record) {})
	}
	sinkMu.Lock()
	defer sinkMu.Unlock()
	prev := sink
	sink = s
	return prev
}

// CurrentSink returns the sink records are currently written to
func CurrentSink() Sink {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	return sink
}

// SetMinLevel drops records below level
func SetMinLevel(level Level) {
	minLevel.Store(int64(level))
}

// Enabled reports whether a record at level would be written
func Enabled(level Level) bool {
	return int64(level) >= minLevel.Load()
}

// Logger is bound to the simple name of one instrumented type
type Logger struct {
	name    string
	pattern string
}

// Option configures a Logger
type Option func(*Logger)

// WithPattern sets the output layout carried on each record
func WithPattern(pattern string) Option {
	return func(l *Logger) {
		l.pattern = pattern
	}
}

// New creates a logger for the named type
func New(name string, opts ...Option) *Logger {
	l := &Logger{name: name}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the type name the logger is bound to
func (l *Logger) Name() string {
	return l.name
}

// Log writes msg at level
func (l *Logger) Log(level Level, msg string) {
	if !Enabled(level) {
		return
	}
	CurrentSink().Write(Record{
		Time:      time.Now(),
		Level:     level,
		Logger:    l.name,
		Message:   msg,
		Pattern:   l.pattern,
		Goroutine: goroutineID(),
	})
}

// Leave writes the exit message. It is meant to be deferred.
func (l *Logger) Leave(level Level, msg string) {
	l.Log(level, msg)
}

// LeaveTimed writes the exit message followed by the seconds elapsed since
// start, rounded down to whole milliseconds. It is meant to be deferred.
func (l *Logger) LeaveTimed(level Level, msg string, start time.Time) {
	if !Enabled(level) {
		return
	}
	l.Log(level, msg+ElapsedSuffix(time.Since(start)))
}

// Now captures the start timestamp for LeaveTimed
func Now() time.Time {
	return time.Now()
}

// ElapsedSuffix formats d the way LeaveTimed appends it: ", time taken: 1.25s"
func ElapsedSuffix(d time.Duration) string {
	seconds := float64(d.Milliseconds()) / 1000.0
	return ", time taken: " + strconv.FormatFloat(seconds, 'f', 3, 64) + "s"
}
