package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings used when Options leaves them unset.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Options controls the optional rotating log file. The zero value logs to stdout only.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      zapcore.Level
}

// New instantiates a production-ready zap logger with sane defaults for JSON structured logging.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// NewWithOptions builds a JSON logger writing to stdout and, when opts.File is set,
// to a lumberjack-rotated file as well.
func NewWithOptions(opts Options) (*zap.Logger, error) {
	if opts.File == "" && opts.Level == zapcore.InfoLevel {
		return New()
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	level := zap.NewAtomicLevelAt(opts.Level)
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(RotatingWriter(opts)), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// RotatingWriter returns the lumberjack writer for opts.File.
func RotatingWriter(opts Options) *lj.Logger {
	return &lj.Logger{
		Filename:   opts.File,
		MaxSize:    valOr(opts.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(opts.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(opts.MaxAgeDays, DefaultMaxAgeDays),
	}
}

// Must is a helper that panics when the logger cannot be created.
func Must(logger *zap.Logger, err error) *zap.Logger {
	if err != nil {
		panic(err)
	}
	return logger
}

// Named returns a child logger with the provided component name.
func Named(base *zap.Logger, component string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(component)
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
