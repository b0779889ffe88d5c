
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	s *zap.SugaredLogger
}

// New returns a production (JSON) logger at the given level ("debug", "info", "warn", "error").
func New(level string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	return build(cfg)
}

// NewDevelopment returns a console logger for interactive use.
func NewDevelopment(level string) *Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	return build(cfg)
}

// Nop discards everything.
func Nop() *Logger { return &Logger{s: zap.NewNop().Sugar()} }

func build(cfg zap.Config) *Logger {
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{s: z.Sugar()}
}

func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// With returns a child logger carrying the key/value pairs on every line.
func (l *Logger) With(kv ...any) *Logger { return &Logger{s: l.s.With(kv...)} }

func (l *Logger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

func (l *Logger) Sync() { _ = l.s.Sync() }
