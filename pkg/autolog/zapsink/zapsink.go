// Package zapsink routes autolog records into a zap logger.
package zapsink

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toyz/autolog/pkg/autolog"
)

// Sink writes autolog records to a zap.Logger
type Sink struct {
	logger *zap.Logger
}

// New creates a Sink. Each record is tagged with the instrumented type's
// name as the zap logger name.
func New(logger *zap.Logger) *Sink {
	return &Sink{logger: logger}
}

// Level maps an autolog level to zap. FATAL maps to zap's ErrorLevel
// plus a "fatal" field, since zap's FatalLevel exits the process.
func Level(l autolog.Level) zapcore.Level {
	switch l {
	case autolog.LevelTrace, autolog.LevelDebug:
		return zapcore.DebugLevel
	case autolog.LevelWarn:
		return zapcore.WarnLevel
	case autolog.LevelError, autolog.LevelFatal:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Write implements autolog.Sink
func (s *Sink) Write(r autolog.Record) {
	lvl := Level(r.Level)
	ce := s.logger.Named(r.Logger).Check(lvl, r.Message)
	if ce == nil {
		return
	}
	ce.Time = r.Time
	fields := []zap.Field{
		zap.String("level_name", r.Level.String()),
		zap.Uint64("goroutine", r.Goroutine),
	}
	if r.Level == autolog.LevelFatal {
		fields = append(fields, zap.Bool("fatal", true))
	}
	ce.Write(fields...)
}
