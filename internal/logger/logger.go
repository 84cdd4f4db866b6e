// Package logger builds the converter's zap logger: a colored console core and
// an optional rotating JSON log file.
package logger

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Faultbox/sr-convert/internal/config"
)

// Log is the process logger. It discards everything until InitFromConfig runs.
var Log = zap.NewNop()

// Sugar is the sugared form of Log.
var Sugar = Log.Sugar()

// Log file rotation. Conversion logs are small, so keep a month of them.
const (
	fileMaxSizeMB  = 20
	fileMaxBackups = 5
	fileMaxAgeDays = 30
)

// Options selects the level and destinations of a logger.
type Options struct {
	Level string
	// File is the rotating log file path; empty disables file output.
	File string
	// Console receives human readable entries; nil disables console output.
	Console io.Writer
}

// New builds a logger from opts. Unknown levels are rejected.
func New(opts Options) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if opts.Level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(opts.Level); err != nil {
			return nil, errors.Wrap(err, "log level")
		}
	}

	var cores []zapcore.Core
	if opts.Console != nil {
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeLevel:      consoleLevelEncoder(opts.Console),
			ConsoleSeparator: " ",
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(opts.Console), lvl))
	}

	if opts.File != "" {
		w := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			LocalTime:  true,
		}
		enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:      "time",
			LevelKey:     "level",
			MessageKey:   "msg",
			CallerKey:    "caller",
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// consoleLevelEncoder colors levels only when writing to a terminal stream.
func consoleLevelEncoder(w io.Writer) zapcore.LevelEncoder {
	if w == os.Stderr || w == os.Stdout {
		return zapcore.CapitalColorLevelEncoder
	}
	return zapcore.CapitalLevelEncoder
}

// InitFromConfig replaces Log with a logger built from the logging section.
// Console output goes to stderr so stdout stays free for command output.
func InitFromConfig(cfg config.LoggingConfig) error {
	l, err := New(Options{Level: cfg.Level, File: cfg.LogFile, Console: os.Stderr})
	if err != nil {
		return err
	}
	Log = l
	Sugar = l.Sugar()
	return nil
}

// ForSession returns a child logger tagged with a crunch or conversion session id.
func ForSession(id string) *zap.Logger {
	return Log.With(zap.String("session", id))
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

// Info logs a progress message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a recoverable problem.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs a failure.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
