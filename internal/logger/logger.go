package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Global logger instance
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Options controls the output of Initialize.
type Options struct {
	Level string
	// JSON switches from the console writer to plain JSON lines.
	JSON bool
	// File, when set, receives a copy of every line.
	File string
}

// Initialize sets up the global logger with console output at logLevel.
func Initialize(logLevel string) {
	if err := InitializeWith(Options{Level: logLevel}); err != nil {
		log.Error().Err(err).Msg("Failed to initialize logger")
	}
}

// InitializeWith sets up the global logger from opts.
func InitializeWith(opts Options) error {
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    false,
	}
	if opts.JSON {
		output = os.Stdout
	}

	if opts.File != "" {
		file, err := FileWriter(opts.File)
		if err != nil {
			return err
		}
		output = zerolog.MultiLevelWriter(output, file)
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()

	zerolog.SetGlobalLevel(ParseLevel(opts.Level))

	// Replace standard log with zerolog
	log.Logger = Logger
	return nil
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger instance
func Get() *zerolog.Logger {
	return &Logger
}

// GetForComponent returns a logger with a component field for better filtering.
// Call it after Initialize; the child keeps the writer of the logger current at call time.
func GetForComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// FileWriter returns a writer to a log file for optional use alongside console logging
func FileWriter(path string) (io.Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return file, nil
}
