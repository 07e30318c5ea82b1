package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger builds the root slog.Logger for the given environment.
// Local logs go to stdout as text; dev/prod log JSON to a file under logPath,
// falling back to stdout when the file cannot be opened.
func SetupLogger(env, logPath string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	case envDev:
		return slog.New(slog.NewJSONHandler(logWriter(logPath), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	default:
		return slog.New(slog.NewJSONHandler(logWriter(logPath), &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
}

func logWriter(logPath string) io.Writer {
	file, err := os.OpenFile(
		filepath.Join(logPath, "izdatbot.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return os.Stdout
	}
	return file
}
