// Package log provides a global logger with configurable logging level. Messages are written
// through a zap console encoder so that the same call sites can emit printf-style lines or
// key/value pairs.

package log

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelNone    Level = iota // Disables logging.
	LevelError                // Logs anomalies that are not expected to occur during normal use.
	LevelWarning              // Logs anomalies that are expected to occur occasionally during normal use.
	LevelInfo                 // Logs major events, such as commands being issued or skipped.
	LevelDebug                // Logs detailed IO
)

var (
	globalLogLevel Level
	logMutex       sync.Mutex
	logger         = newLogger(zapcore.Lock(os.Stderr))
)

func newLogger(w zapcore.WriteSyncer) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), w, zapcore.DebugLevel)
	return zap.New(core).Sugar()
}

func SetLevel(level Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	globalLogLevel = level
}

// SetOutput redirects log output to w.
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logger = newLogger(zapcore.AddSync(w))
}

// SetOutputFile redirects log output to filename. The file is rotated once it grows past
// maxSizeMB megabytes; at most maxBackups old files are kept.
func SetOutputFile(filename string, maxSizeMB, maxBackups int) {
	SetOutput(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	})
}

func current(level Level) (*zap.SugaredLogger, bool) {
	logMutex.Lock()
	defer logMutex.Unlock()
	return logger, level <= globalLogLevel
}

func Debug(format string, a ...interface{}) {
	if l, ok := current(LevelDebug); ok {
		l.Debugf(format, a...)
	}
}

func Info(format string, a ...interface{}) {
	if l, ok := current(LevelInfo); ok {
		l.Infof(format, a...)
	}
}

func Warning(format string, a ...interface{}) {
	if l, ok := current(LevelWarning); ok {
		l.Warnf(format, a...)
	}
}

func Error(format string, a ...interface{}) {
	if l, ok := current(LevelError); ok {
		l.Errorf(format, a...)
	}
}

// Infow logs msg with alternating key/value pairs.
func Infow(msg string, keysAndValues ...interface{}) {
	if l, ok := current(LevelInfo); ok {
		l.Infow(msg, keysAndValues...)
	}
}

// Errorw logs msg with alternating key/value pairs.
func Errorw(msg string, keysAndValues ...interface{}) {
	if l, ok := current(LevelError); ok {
		l.Errorw(msg, keysAndValues...)
	}
}

// Debugw logs msg with alternating key/value pairs.
func Debugw(msg string, keysAndValues ...interface{}) {
	if l, ok := current(LevelDebug); ok {
		l.Debugw(msg, keysAndValues...)
	}
}
