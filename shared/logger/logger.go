package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *slog.Logger

// Incidents receives one JSON line per unknown error, for operators.
var Incidents *slog.Logger

func init() {
	// Auto-initialize with safe defaults for tests and development
	// Production code can override by calling Initialize() explicitly
	Initialize("info", false)
	InitializeIncidents("")
}

// Initialize sets up the global logger with the specified level and format
func Initialize(level string, useJSON bool) {
	var handler slog.Handler

	// Parse log level
	logLevel := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true, // Equivalent to log.Lshortfile - adds file and line number
	}

	// Choose handler based on format
	if useJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log) // Make it the default for entire program
}

// InitializeIncidents points the incident log at path, rotated by lumberjack.
// An empty path writes to stdout.
func InitializeIncidents(path string) io.Closer {
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if path != "" {
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		}
		w, closer = lj, lj
	}
	Incidents = newIncidentLogger(w)
	return closer
}

func newIncidentLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Incident records an unknown error together with the client address and the
// function tag it originated from.
func Incident(client, fn string, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	Incidents.Error("unknown error", "client", client, "fn", fn, "error", errText)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// parseLevel converts string log level to slog.Level
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Default to Info if invalid level provided
		return slog.LevelInfo
	}
}
