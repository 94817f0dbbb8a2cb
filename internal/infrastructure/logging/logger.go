package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLevel = "info"

// Options configures the application logger
type Options struct {
	Level      string
	Format     string // "json" or "console"
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output receives console/JSON records; nil means stdout
	Output io.Writer
}

// New builds a structured logger writing to Output and, when File is set, to a rotated
// log file. The returned close function flushes and releases the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level := zap.NewAtomicLevel()
	raw := strings.ToLower(strings.TrimSpace(opts.Level))
	if raw == "" {
		raw = defaultLevel
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(opts.Format), zapcore.AddSync(out), level),
	}

	var rotator *lumberjack.Logger
	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			LocalTime:  true,
		}
		// files are always JSON so they stay machine-readable
		cores = append(cores, zapcore.NewCore(newEncoder("json"), zapcore.AddSync(rotator), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closeFn := func() error {
		_ = logger.Sync()
		if rotator != nil {
			return rotator.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
	}
	if format == "console" {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}
