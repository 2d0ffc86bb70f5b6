package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	combinedLogFilename = "service-combined.log"
	errorLogFilename    = "service-error.log"

	defaultMaxSizeMB  = 100
	defaultMaxBackups = 7
	defaultMaxAgeDays = 30
)

// Options describes where rotated log files are written.
type Options struct {
	Level       string
	FileEnabled bool
	Dir         string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	Compress    bool
}

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// Init builds the process logger and installs it as the package and zap global.
// local writes a colored console log at debug level, every other env writes
// JSON to stdout and, when enabled, to a combined and an error-only file.
func Init(env string, opts Options) *zap.Logger {
	l := New(env, opts)

	mu.Lock()
	global = l
	mu.Unlock()

	zap.ReplaceGlobals(l)
	return l
}

func New(env string, opts Options) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if env == "local" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			zap.NewAtomicLevelAt(zap.DebugLevel),
		)
		return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	level := parseLevel(opts.Level)
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	if opts.FileEnabled {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create log dir failed, file logging disabled: %v\n", err)
		} else {
			cores = append(cores,
				zapcore.NewCore(encoder, rotated(opts, combinedLogFilename), level),
				zapcore.NewCore(encoder, rotated(opts, errorLogFilename), zap.ErrorLevel),
			)
		}
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func rotated(opts Options, filename string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, filename),
		MaxSize:    positiveOr(opts.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: positiveOr(opts.MaxBackups, defaultMaxBackups),
		MaxAge:     positiveOr(opts.MaxAgeDays, defaultMaxAgeDays),
		Compress:   opts.Compress,
	})
}

func parseLevel(raw string) zap.AtomicLevel {
	level, err := zapcore.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		level = zapcore.InfoLevel
	}
	return zap.NewAtomicLevelAt(level)
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Logger returns the process logger, or a no-op logger before Init.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if global == nil {
		return zap.NewNop()
	}
	return global
}

func Sync() {
	_ = Logger().Sync()
}

func Debug(msg string, fields ...zap.Field) {
	Logger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger().Fatal(msg, fields...)
}
