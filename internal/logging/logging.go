// Package logging builds the zerolog loggers used by claude-guard. Nothing is
// ever written to stdout or stderr: both streams belong to the hook protocol.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DecisionFile is the name of the per-invocation decision log.
const DecisionFile = "decisions.log"

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Open returns a JSON logger appending to <dir>/decisions.log. Every line
// carries the invocation id. If the file cannot be opened the logger discards
// everything. The returned closer is always non-nil.
func Open(dir, level, invocation string) (zerolog.Logger, io.Closer) {
	if dir == "" {
		return zerolog.Nop(), nopCloser{}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return zerolog.Nop(), nopCloser{}
	}
	f, err := os.OpenFile(filepath.Join(dir, DecisionFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}
	}
	return New(f, level).With().Str("invocation", invocation).Logger(), f
}

// New returns a timestamped JSON logger on w at the named level.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// NewInvocationID returns a random id that ties together the log lines of
// one hook invocation.
func NewInvocationID() string {
	return uuid.NewString()
}

// Truncate shortens s to at most n bytes, marking the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
