package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RaidenIV/dj-database/internal/platform/timeutil"
)

// Options tunes the process-wide logger. Set them with Configure before the
// first call to Logger.
type Options struct {
	// Level is a zap level name ("debug", "info", "warn", "error").
	Level string
	// ProjectID enables Cloud Trace correlation fields when non-empty.
	ProjectID string
}

var (
	loggerOnce  sync.Once
	baseLogger  *zap.Logger
	sugarLogger *zap.SugaredLogger
	loggerErr   error

	optsMu sync.RWMutex
	opts   Options
)

// Configure stores logger options. Calls after the logger was built only
// affect the trace project.
func Configure(o Options) {
	optsMu.Lock()
	defer optsMu.Unlock()
	opts = o
}

func currentOptions() Options {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts
}

func encodeTimeMicros(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(timeutil.RFC3339Micros))
}

// encodeSeverity maps zap levels to Cloud Logging severity names.
func encodeSeverity(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var severity string
	switch level {
	case zapcore.DebugLevel:
		severity = "DEBUG"
	case zapcore.InfoLevel:
		severity = "INFO"
	case zapcore.WarnLevel:
		severity = "WARNING"
	case zapcore.ErrorLevel:
		severity = "ERROR"
	case zapcore.DPanicLevel:
		severity = "CRITICAL"
	case zapcore.PanicLevel:
		severity = "ALERT"
	case zapcore.FatalLevel:
		severity = "EMERGENCY"
	default:
		severity = "DEFAULT"
	}
	enc.AppendString(severity)
}

func initLogger() {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = encodeTimeMicros
	cfg.EncoderConfig.LevelKey = "severity"
	cfg.EncoderConfig.EncodeLevel = encodeSeverity
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.CallerKey = "caller"

	var levelErr error
	if name := currentOptions().Level; name != "" {
		lvl, err := zapcore.ParseLevel(name)
		if err != nil {
			levelErr = err
		} else {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	baseLogger, loggerErr = cfg.Build(zap.AddCaller())
	if loggerErr != nil {
		baseLogger = zap.NewNop()
	} else if levelErr != nil {
		loggerErr = levelErr
	}
	sugarLogger = baseLogger.Sugar()
}

// Logger returns the process-wide zap.Logger instance.
func Logger() *zap.Logger {
	loggerOnce.Do(initLogger)
	return baseLogger
}

// Sugar returns a sugared logger sharing the same core as Logger.
func Sugar() *zap.SugaredLogger {
	loggerOnce.Do(initLogger)
	return sugarLogger
}

// Sync flushes buffered log entries. Call during shutdown.
func Sync() error {
	loggerOnce.Do(initLogger)
	return baseLogger.Sync()
}

// Err reports initialization failure, if any. An unknown level name is
// reported here while the logger falls back to info.
func Err() error {
	loggerOnce.Do(initLogger)
	return loggerErr
}
