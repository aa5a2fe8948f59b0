// Package verdict models the outcome of guard rule evaluation and the
// associative merge used to fold several outcomes into one.
package verdict

import "strings"

// Severity is the strength of a verdict. Values are totally ordered:
// Allow < Warn < Block.
type Severity int

const (
	SeverityAllow Severity = iota // Nothing to report
	SeverityWarn                  // Proceed, but surface the messages
	SeverityBlock                 // Halt the action
)

func (s Severity) String() string {
	switch s {
	case SeverityAllow:
		return "ALLOW"
	case SeverityWarn:
		return "WARN"
	default:
		return "BLOCK"
	}
}

// ExitCode is the process status the host reads as the authoritative signal.
func (s Severity) ExitCode() int {
	if s == SeverityBlock {
		return 2
	}
	return 0
}

// Decision is the outcome of one or more rule evaluations.
//
// Context is advisory text meant for the agent rather than the user. An empty
// Context means absent.
type Decision struct {
	Severity Severity
	Messages []string
	Context  string
}

// contextSeparator joins two present contexts.
const contextSeparator = "\n\n"

// Allow returns the identity decision: Allow, no messages, no context.
func Allow() Decision {
	return Decision{}
}

// Warn returns a warning carrying a single message.
func Warn(msg string) Decision {
	return Decision{Severity: SeverityWarn, Messages: []string{msg}}
}

// Block returns a blocking decision carrying a single message.
func Block(msg string) Decision {
	return Decision{Severity: SeverityBlock, Messages: []string{msg}}
}

// WithContext returns an Allow decision that only carries agent context.
func WithContext(ctx string) Decision {
	return Decision{Context: ctx}
}

// Blocked reports whether the decision halts the action.
func (d Decision) Blocked() bool {
	return d.Severity == SeverityBlock
}

// Combine merges two decisions. Severity is the maximum of both, messages are
// a's followed by b's, and contexts are concatenated a-first with a blank line
// between them when both are present.
//
// Combine is associative and Allow() is its identity. Neither input is
// modified and the result never aliases their message slices.
func Combine(a, b Decision) Decision {
	out := Decision{Severity: max(a.Severity, b.Severity)}

	if n := len(a.Messages) + len(b.Messages); n > 0 {
		out.Messages = make([]string, 0, n)
		out.Messages = append(out.Messages, a.Messages...)
		out.Messages = append(out.Messages, b.Messages...)
	}

	switch {
	case a.Context != "" && b.Context != "":
		out.Context = a.Context + contextSeparator + b.Context
	case a.Context != "":
		out.Context = a.Context
	default:
		out.Context = b.Context
	}
	return out
}

// Fold combines decisions left to right starting from the identity.
func Fold(ds ...Decision) Decision {
	acc := Allow()
	for _, d := range ds {
		acc = Combine(acc, d)
	}
	return acc
}

// Summary renders the messages as the host expects them on stderr, one per line.
func (d Decision) Summary() string {
	return strings.Join(d.Messages, "\n")
}
