package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"echo-diary/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ServiceName tags every record so shared log pipelines can route it.
const ServiceName = "echodiary"

func Init(cfg config.LogConfig) {
	slog.SetDefault(slog.New(NewHandler(cfg)))
	Info("logger initialized", "level", cfg.Level, "file", cfg.File)
}

// NewHandler builds the JSON handler used as the process default.
func NewHandler(cfg config.LogConfig) slog.Handler {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, os.Stdout)
	}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		})
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	h := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	return h.WithAttrs([]slog.Attr{slog.String("service", ServiceName)})
}

func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }
func Debug(msg string, args ...any) { slog.Debug(msg, args...) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
