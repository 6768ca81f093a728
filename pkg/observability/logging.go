package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string // debug, info, warn, error
	Format  string // json or text
	Service string // attached to every record as "service" when set

	// File, when set, tees output into a size-rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

const defaultMaxSizeMB = 100

// InitLogger builds the process logger from cfg and installs it as the
// slog default.
func InitLogger(cfg LogConfig) *slog.Logger {
	logger := newLogger(logWriter(cfg), cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(h)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	return logger
}

func logWriter(cfg LogConfig) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}

	size := cfg.MaxSizeMB
	if size <= 0 {
		size = defaultMaxSizeMB
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    size,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
}

// parseLevel maps a level name to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	switch strings.ToLower(level) {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
