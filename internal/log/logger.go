package log

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log severity levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zap() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger interface defines structured logging methods. Arguments after the
// message are alternating keys and values.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	SetLevel(level Level)
	SetJSONOutput(enabled bool)
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level      Level
	JSONOutput bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultLogger is the zap backed implementation of Logger.
type DefaultLogger struct {
	mu     sync.Mutex
	level  zap.AtomicLevel
	json   bool
	out    zapcore.WriteSyncer
	colors bool
	fields []interface{}
	sugar  *zap.SugaredLogger
}

var (
	defaultLogger *DefaultLogger
	once          sync.Once
)

// New creates a new logger with the given configuration
func New(cfg LoggerConfig) *DefaultLogger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	l := &DefaultLogger{
		level:  zap.NewAtomicLevelAt(cfg.Level.zap()),
		json:   cfg.JSONOutput,
		out:    zapcore.AddSync(out),
		colors: out == io.Writer(os.Stderr) && !color.NoColor,
	}
	l.build()
	return l
}

// Default returns the default logger instance
func Default() *DefaultLogger {
	once.Do(func() {
		defaultLogger = New(LoggerConfig{Level: InfoLevel})
	})
	return defaultLogger
}

// Nop returns a logger that discards everything.
func Nop() *DefaultLogger {
	return New(LoggerConfig{Level: ErrorLevel, Output: io.Discard})
}

// build recreates the zap core. Callers hold mu or own l exclusively.
func (l *DefaultLogger) build() {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if l.json {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if l.colors {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, l.out, l.level)
	l.sugar = zap.New(core).Sugar().With(l.fields...)
}

func (l *DefaultLogger) logger() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar
}

// With returns a logger that adds the given key-value pairs to every entry.
// The child shares the parent's level.
func (l *DefaultLogger) With(args ...interface{}) *DefaultLogger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := &DefaultLogger{
		level:  l.level,
		json:   l.json,
		out:    l.out,
		colors: l.colors,
		fields: append(append([]interface{}{}, l.fields...), args...),
	}
	child.build()
	return child
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	l.logger().Debugw(msg, args...)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.logger().Infow(msg, args...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.logger().Warnw(msg, args...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.logger().Errorw(msg, args...)
}

// SetLevel sets the minimum log level
func (l *DefaultLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zap())
}

// SetJSONOutput enables or disables JSON output
func (l *DefaultLogger) SetJSONOutput(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.json == enabled {
		return
	}
	l.json = enabled
	l.build()
}

// Sync flushes buffered entries.
func (l *DefaultLogger) Sync() error {
	return l.logger().Sync()
}

var _ Logger = (*DefaultLogger)(nil)
