package hook

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/victorarias/claude-guard/internal/verdict"
)

// Output is the structured object written to stdout when a decision carries
// agent context.
type Output struct {
	AdditionalContext string `json:"additionalContext"`
}

// Render writes d in the host protocol and returns the process exit status:
// messages go to stderr one per line, context (if any) goes to stdout as JSON.
func Render(d verdict.Decision, stdout, stderr io.Writer) int {
	for _, msg := range d.Messages {
		fmt.Fprintln(stderr, msg)
	}
	if d.Context != "" {
		json.NewEncoder(stdout).Encode(Output{AdditionalContext: d.Context})
	}
	return d.Severity.ExitCode()
}
