// Package sysutil holds process-level helpers for the support desk binary:
// logger setup and environment value parsing.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SetLogLevel sets the global zerolog level. Unknown or empty values fall
// back to info; "warning" is accepted for warn.
func SetLogLevel(lvl string) {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil || level < zerolog.DebugLevel || level > zerolog.PanicLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// NewLogger applies lvl globally and returns a timestamped logger tagged with
// service and version. pretty selects human-readable console output on w.
func NewLogger(w io.Writer, lvl string, pretty bool, service, version string) zerolog.Logger {
	SetLogLevel(lvl)
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// IsTruthy reports whether an environment value means "on".
// Accepted values (case-insensitive): "1", "true", "yes", "y", "on".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
