// Package logging wraps a zap sugared logger shared by the whole process.
//
// Debug and info go to stdout, warnings and errors to stderr. When a log
// file is configured every level is also written to a rotating file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
	closer io.Closer
)

var encoderConfig = zapcore.EncoderConfig{
	MessageKey:     "m",
	LevelKey:       "l",
	TimeKey:        "t",
	NameKey:        "n",
	CallerKey:      "c",
	StacktraceKey:  "s",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// levelRange enables levels in [min, max]
type levelRange struct {
	min, max zapcore.Level
}

func (r levelRange) Enabled(level zapcore.Level) bool {
	return level >= r.min && level <= r.max
}

// ParseLevel converts a config level name. Unknown names map to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init builds the process logger
func Init(opts Options) error {
	return InitWithWriters(opts, os.Stdout, os.Stderr)
}

// InitWithWriters builds the process logger writing to the given console
// streams instead of stdout/stderr.
func InitWithWriters(opts Options, stdout, stderr io.Writer) error {
	level := ParseLevel(opts.Level)
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stderr)), levelRange{min: maxLevel(level, zapcore.ErrorLevel), max: zapcore.FatalLevel}),
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stdout)), levelRange{min: level, max: zapcore.WarnLevel}),
	}

	var fileCloser io.Closer
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 5),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 10),
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), levelRange{min: level, max: zapcore.FatalLevel}))
		fileCloser = lj
	}

	l := zap.New(zapcore.NewTee(cores...)).Sugar()

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close previous log file: %w", err)
		}
	}
	logger = l
	closer = fileCloser
	return nil
}

// Sync flushes buffered entries and closes the log file
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = logger.Sync()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
}

// Named returns a child logger tagged with a subsystem name
func Named(name string) *zap.SugaredLogger {
	return current().Named(name)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugf logs fine-grained events useful when debugging
func Debugf(template string, args ...interface{}) {
	current().Debugf(template, args...)
}

// Infof logs progress messages
func Infof(template string, args ...interface{}) {
	current().Infof(template, args...)
}

// Warnf logs recoverable problems
func Warnf(template string, args ...interface{}) {
	current().Warnf(template, args...)
}

// Errorf logs failures
func Errorf(template string, args ...interface{}) {
	current().Errorf(template, args...)
}

func maxLevel(a, b zapcore.Level) zapcore.Level {
	if a > b {
		return a
	}
	return b
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
