package rules

import (
	"path/filepath"
	"strings"
)

// segment is one simple command of a compound shell command line.
type segment struct {
	text  string
	piped bool // reads the previous segment's output through "|"
}

// splitCommand splits on &&, ||, ; and | outside quotes. Empty segments are
// dropped.
func splitCommand(command string) []segment {
	var (
		segments []segment
		current  strings.Builder
		inSingle bool
		inDouble bool
		piped    bool
	)
	// flush ends the current segment; next tells whether the following one
	// is fed by a pipe.
	flush := func(next bool) {
		if text := strings.TrimSpace(current.String()); text != "" {
			segments = append(segments, segment{text: text, piped: piped})
		}
		current.Reset()
		piped = next
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case inSingle || inDouble:
		case ch == '&' && i+1 < len(runes) && runes[i+1] == '&',
			ch == '|' && i+1 < len(runes) && runes[i+1] == '|':
			i++
			flush(false)
			continue
		case ch == '|':
			flush(true)
			continue
		case ch == ';':
			flush(false)
			continue
		}
		current.WriteRune(ch)
	}
	flush(false)
	return segments
}

// baseCommand returns the program name of a simple command, skipping
// leading variable assignments and env or sudo prefixes.
func baseCommand(text string) string {
	words := strings.Fields(text)
	for len(words) > 0 {
		switch {
		case isAssignment(words[0]), words[0] == "env", words[0] == "sudo":
			words = words[1:]
			continue
		}
		return filepath.Base(words[0])
	}
	return ""
}

func isAssignment(word string) bool {
	name, _, ok := strings.Cut(word, "=")
	return ok && name != "" && !strings.HasPrefix(word, "-") && !strings.ContainsAny(name, "/.")
}

func isInterpreter(program string) bool {
	switch program {
	case "bash", "sh", "zsh", "fish", "python", "python3", "perl", "ruby", "node":
		return true
	}
	return false
}
