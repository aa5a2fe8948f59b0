package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// maxCommandLen bounds the command text recorded for Bash tool uses.
const maxCommandLen = 100

// SessionEntry is one tool use recorded in the session log.
type SessionEntry struct {
	Session string
	Tool    string
	File    string
	Command string
	Pattern string
}

// SessionLog appends tool usage to a file per calendar day. Concurrent hook
// processes rely on O_APPEND for atomic line writes.
type SessionLog struct {
	Dir string
	Now func() time.Time
}

// Path returns the log file for the day containing t.
func (s SessionLog) Path(t time.Time) string {
	return filepath.Join(s.Dir, fmt.Sprintf("session-%s.log", t.Format("2006-01-02")))
}

// Record appends e as one JSON line.
func (s SessionLog) Record(e SessionEntry) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now()

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create session log dir: %w", err)
	}
	f, err := os.OpenFile(s.Path(t), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()

	lg := zerolog.New(f)
	ev := lg.Log().
		Time(zerolog.TimestampFieldName, t).
		Str("session", orUnknown(e.Session)).
		Str("tool", orUnknown(e.Tool))
	switch {
	case e.File != "":
		ev = ev.Str("file", e.File)
	case e.Command != "":
		ev = ev.Str("cmd", Truncate(e.Command, maxCommandLen))
	case e.Pattern != "":
		ev = ev.Str("pattern", e.Pattern)
	}
	ev.Send()
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
