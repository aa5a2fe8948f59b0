// Package notify raises best-effort desktop notifications.
package notify

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/victorarias/claude-guard/internal/exttool"
)

// Title is shown on every notification.
const Title = "Claude Code"

// Notifier delivers a short message to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Desktop shells out to the platform notification tool: osascript on macOS,
// notify-send elsewhere. Exactly one subprocess is started per call.
type Desktop struct {
	Runner exttool.Runner
	GOOS   string
}

// NewDesktop returns a notifier for the running platform.
func NewDesktop(runner exttool.Runner) *Desktop {
	return &Desktop{Runner: runner, GOOS: runtime.GOOS}
}

func (d *Desktop) Notify(ctx context.Context, message string) error {
	name, args := d.command(message)
	res, err := d.Runner.Run(ctx, "", name, args...)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if !res.Success() {
		return fmt.Errorf("notify: %s exited %d", name, res.ExitCode)
	}
	return nil
}

func (d *Desktop) command(message string) (string, []string) {
	if d.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(message), appleQuote(Title))
		return "osascript", []string{"-e", script}
	}
	return "notify-send", []string{Title, message, "--urgency=normal", "--icon=terminal"}
}

// appleQuote renders s as an AppleScript string literal.
func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// StopMessage maps a stop reason to the text shown to the user.
func StopMessage(reason string) string {
	switch reason {
	case "user_stop":
		return "Session stopped by user"
	case "end_turn":
		return "Task completed"
	case "":
		return "completed"
	default:
		return reason
	}
}
