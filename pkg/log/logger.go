// Package log provides structured logging for the obesity-predictor
// pipelines, backed by zerolog.
//
// Every component obtains a child logger via For, which stamps the component
// name onto each event. WithError attaches an error together with the stack
// trace recorded by pkg/errors, and structured error types that implement
// zerolog.LogObjectMarshaler are embedded as objects rather than flattened
// into a message string.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

var (
	mu   sync.RWMutex
	root = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Setup configures the process-wide root logger. Unknown levels fall back to
// info with a warning rather than aborting the process.
func Setup(level string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	lvl, ok := toLevel(level)
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()

	mu.Lock()
	root = logger
	mu.Unlock()

	if !ok {
		logger.Warn().Str("level", level).Msg("unknown log level, defaulting to info")
	}
}

// SetupConsole configures the root logger with human-readable console output.
// Intended for the CLI entry points; services should prefer Setup with JSON.
func SetupConsole(level string) {
	lvl, _ := toLevel(level)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).With().Timestamp().Logger()

	mu.Lock()
	root = logger
	mu.Unlock()
}

func toLevel(level string) (zerolog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info", "":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	default:
		return zerolog.InfoLevel, false
	}
}

// For returns a child logger stamped with the given component name.
func For(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With().Str(ComponentKey, component).Logger()
}

// WithError attaches err to the event, embedding structured error types and
// the stack trace captured by pkg/errors when one is present.
func WithError(event *zerolog.Event, err error) *zerolog.Event {
	if err == nil {
		return event
	}
	event = event.Err(err)
	if marshaler, ok := asObjectMarshaler(err); ok {
		event = event.Object(ErrDetailKey, marshaler)
	}
	if trace := errors.GetReportableStackTrace(err); trace != "" {
		event = event.Str(StacktraceKey, trace)
	}
	return event
}

func asObjectMarshaler(err error) (zerolog.LogObjectMarshaler, bool) {
	for err != nil {
		if m, ok := err.(zerolog.LogObjectMarshaler); ok {
			return m, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
