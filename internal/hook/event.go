// Package hook models one host-initiated action and renders verdicts back
// to the host.
package hook

// Phase is the lifecycle point of an agent action. It selects which rule
// pipeline runs.
type Phase int

const (
	PhasePreEdit Phase = iota
	PhasePostEdit
	PhasePreBash
	PhaseUserPromptSubmit
	PhaseStop
)

func (p Phase) String() string {
	switch p {
	case PhasePreEdit:
		return "PreEdit"
	case PhasePostEdit:
		return "PostEdit"
	case PhasePreBash:
		return "PreBash"
	case PhaseUserPromptSubmit:
		return "UserPromptSubmit"
	case PhaseStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Gating reports whether the phase runs before the host performs the action.
// Only gating phases may stop evaluating rules once a block is reached.
func (p Phase) Gating() bool {
	return p == PhasePreEdit || p == PhasePreBash
}

// PhaseFor maps a host hook event name to a phase. Tool-use events are split
// by tool: Bash runs before the shell, everything else before an edit.
func PhaseFor(eventName string, tool ToolKind) (Phase, bool) {
	switch eventName {
	case "PreToolUse":
		if tool == ToolBash {
			return PhasePreBash, true
		}
		return PhasePreEdit, true
	case "PostToolUse":
		return PhasePostEdit, true
	case "UserPromptSubmit":
		return PhaseUserPromptSubmit, true
	case "Stop", "SubagentStop":
		return PhaseStop, true
	}
	return 0, false
}

// ToolKind is the agent tool an event refers to.
type ToolKind int

const (
	ToolAbsent ToolKind = iota // no tool_name in the payload
	ToolEdit
	ToolWrite
	ToolBash
	ToolRead
	ToolGlob
	ToolGrep
	ToolNone  // explicit "None"
	ToolOther // any tool this engine has no rules for
)

var toolNames = map[string]ToolKind{
	"Edit":  ToolEdit,
	"Write": ToolWrite,
	"Bash":  ToolBash,
	"Read":  ToolRead,
	"Glob":  ToolGlob,
	"Grep":  ToolGrep,
	"None":  ToolNone,
}

// ParseToolKind maps a host tool name to a ToolKind.
func ParseToolKind(name string) ToolKind {
	if name == "" {
		return ToolAbsent
	}
	if k, ok := toolNames[name]; ok {
		return k
	}
	return ToolOther
}

// Modifies reports whether the tool writes a file.
func (k ToolKind) Modifies() bool {
	return k == ToolEdit || k == ToolWrite
}

// Event is a read-only snapshot of one action. Optional fields report
// presence separately from value: an absent field is not an empty string.
type Event struct {
	phase    Phase
	tool     ToolKind
	toolName string
	in       payload
}

// Phase returns the lifecycle point this event was raised at.
func (e Event) Phase() Phase { return e.phase }

// Tool returns the tool kind.
func (e Event) Tool() ToolKind { return e.tool }

// ToolName returns the raw tool name, or "" when absent.
func (e Event) ToolName() string { return e.toolName }

func (e Event) FilePath() (string, bool)  { return e.in.toolField(func(t *toolInput) *string { return t.FilePath }) }
func (e Event) Content() (string, bool)   { return e.in.toolField(func(t *toolInput) *string { return t.Content }) }
func (e Event) NewString() (string, bool) { return e.in.toolField(func(t *toolInput) *string { return t.NewString }) }
func (e Event) OldString() (string, bool) { return e.in.toolField(func(t *toolInput) *string { return t.OldString }) }
func (e Event) Command() (string, bool)   { return e.in.toolField(func(t *toolInput) *string { return t.Command }) }

// SearchPattern returns the Glob/Grep pattern.
func (e Event) SearchPattern() (string, bool) {
	return e.in.toolField(func(t *toolInput) *string { return t.Pattern })
}

func (e Event) SessionID() (string, bool)     { return deref(e.in.SessionID) }
func (e Event) Cwd() (string, bool)           { return deref(e.in.Cwd) }
func (e Event) HookEventName() (string, bool) { return deref(e.in.HookEventName) }
func (e Event) StopReason() (string, bool)    { return deref(e.in.StopHookReason) }

// PromptText returns the submitted prompt, accepting either payload key.
func (e Event) PromptText() (string, bool) {
	if p, ok := deref(e.in.Prompt); ok {
		return p, true
	}
	return deref(e.in.UserPrompt)
}

// EditedText returns the text a file operation introduces: the full content
// for Write, the replacement for Edit.
func (e Event) EditedText() (string, bool) {
	if c, ok := e.Content(); ok {
		return c, true
	}
	return e.NewString()
}

// WithPhase returns a copy of the event raised at a different phase.
func (e Event) WithPhase(p Phase) Event {
	e.phase = p
	return e
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
