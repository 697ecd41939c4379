// Package logger holds the process-wide zerolog logger.
//
// The CLI installs one per invocation with Init; components take a child
// from For when they are constructed. Logs go to stderr so command output
// on stdout stays machine-readable.
//
//	TRACE (-1) → DEBUG (0) → INFO (1) → WARN (2) → ERROR (3)
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the logger is built.
type Options struct {
	// Level is the minimum log level: trace, debug, info, warn, error, off.
	// Defaults to "warn" when empty or unrecognised.
	Level string
	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

var current atomic.Pointer[zerolog.Logger]

// New builds a logger from opts without installing it.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
}

// Init builds a logger and installs it, replacing any earlier one. Loggers
// already handed out by For keep writing where they were.
func Init(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := New(opts)
	current.Store(&l)
	return l
}

// Get returns the installed logger, or a disabled one before Init so
// library code works without any logging set up.
func Get() zerolog.Logger {
	if l := current.Load(); l != nil {
		return *l
	}
	return zerolog.Nop()
}

// For returns a child logger tagged with the given component name.
func For(component string) zerolog.Logger {
	return Get().With().Str("component", component).Logger()
}

// Reset uninstalls the logger. Tests only.
func Reset() {
	current.Store(nil)
}

// ParseLevel maps a level name onto zerolog; unknown names mean warn.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}
