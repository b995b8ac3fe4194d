package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global logger instance.
	global         atomic.Pointer[zap.SugaredLogger]
	disableLogger  atomic.Bool
	defaultLevel   = zap.NewAtomicLevelAt(zap.InfoLevel)
	generationArgs = []any{"@gen", "1"}
)

func init() {
	SetLogger(newSugaredLogger(defaultLevel))
}

// SetLogger sets to global logger a new *zap.SugaredLogger.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	global.Store(l)
}

// GetLogger returns current global logger.
func GetLogger() *zap.SugaredLogger {
	return global.Load()
}

// SetLevel changes the level of the default logger.
// It has no effect on a logger installed with SetLogger.
func SetLevel(level zapcore.Level) {
	defaultLevel.SetLevel(level)
}

// DisableLogger turn off all logs, globally.
func DisableLogger() {
	disableLogger.Store(true)
}

// EnableLogger turns logging back on after DisableLogger.
func EnableLogger() {
	disableLogger.Store(false)
}

// LoggerIsDisable reports whether DisableLogger was called.
func LoggerIsDisable() bool {
	return disableLogger.Load()
}

func newSugaredLogger(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = defaultLevel
	}
	return zap.New(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zapcore.EncoderConfig{
				TimeKey:        "ts",
				LevelKey:       "level",
				NameKey:        "logger",
				CallerKey:      "caller",
				MessageKey:     "message",
				StacktraceKey:  "stacktrace",
				LineEnding:     zapcore.DefaultLineEnding,
				EncodeLevel:    capitalLevelEncoder,
				EncodeTime:     zapcore.ISO8601TimeEncoder,
				EncodeDuration: zapcore.SecondsDurationEncoder,
				EncodeCaller:   zapcore.ShortCallerEncoder,
			}),
			zapcore.AddSync(os.Stdout),
			level,
		),
		options...,
	).Sugar().With(generationArgs...)
}

func capitalLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var level string
	switch l {
	case zapcore.ErrorLevel:
		level = "ERR"
	case zapcore.WarnLevel:
		level = "WARNING"
	default:
		level = l.CapitalString()
	}
	enc.AppendString(level)
}

func active() (*zap.SugaredLogger, bool) {
	if disableLogger.Load() {
		return nil, false
	}
	return GetLogger(), true
}

// Debugf ...
func Debugf(format string, args ...any) {
	if log, ok := active(); ok {
		log.Debugf(format, args...)
	}
}

// Infof ...
func Infof(format string, args ...any) {
	if log, ok := active(); ok {
		log.Infof(format, args...)
	}
}

// Warnf ...
func Warnf(format string, args ...any) {
	if log, ok := active(); ok {
		log.Warnf(format, args...)
	}
}

// Errorf ...
func Errorf(format string, args ...any) {
	if log, ok := active(); ok {
		log.Errorf(format, args...)
	}
}

// Errorw logs a message with structured key-value context.
func Errorw(msg string, keysAndValues ...any) {
	if log, ok := active(); ok {
		log.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a message with structured key-value context.
func Warnw(msg string, keysAndValues ...any) {
	if log, ok := active(); ok {
		log.Warnw(msg, keysAndValues...)
	}
}
