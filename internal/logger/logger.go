package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures the process logger.
type Config struct {
	// Debug selects debug level and human readable console output.
	Debug bool
	// Level is a zerolog level name, info when empty or invalid.
	Level string
	// File additionally writes JSON logs to a rotated file when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func Setup(cfg Config) (zerolog.Logger, io.Closer) {
	return New(cfg, os.Stderr)
}

// New builds a logger writing to out, plus the rotated file when configured.
// The returned closer releases the file.
func New(cfg Config, out io.Writer) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	console := out
	if cfg.Debug {
		console = zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}
	}

	var closer io.Closer = nopCloser{}
	writer := console

	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		closer = file
		writer = zerolog.MultiLevelWriter(console, file)
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	if cfg.Debug {
		logger = logger.With().Caller().Stack().Logger()
	}

	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
