package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyPayload is returned when stdin carries no data.
var ErrEmptyPayload = errors.New("empty hook payload")

// payload matches the JSON object Claude Code writes to a hook's stdin.
// Pointer fields distinguish an absent key from an empty value.
type payload struct {
	ToolName       *string    `json:"tool_name"`
	ToolInput      *toolInput `json:"tool_input"`
	Cwd            *string    `json:"cwd"`
	SessionID      *string    `json:"session_id"`
	Prompt         *string    `json:"prompt"`
	UserPrompt     *string    `json:"user_prompt"`
	HookEventName  *string    `json:"hook_event_name"`
	StopHookReason *string    `json:"stop_hook_reason"`
}

type toolInput struct {
	FilePath  *string `json:"file_path"`
	Content   *string `json:"content"`
	NewString *string `json:"new_string"`
	OldString *string `json:"old_string"`
	Command   *string `json:"command"`
	Pattern   *string `json:"pattern"`
}

func (p payload) toolField(get func(*toolInput) *string) (string, bool) {
	if p.ToolInput == nil {
		return "", false
	}
	return deref(get(p.ToolInput))
}

// Parse decodes a hook payload into an Event raised at phase.
func Parse(phase Phase, data []byte) (Event, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Event{}, ErrEmptyPayload
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Event{}, fmt.Errorf("decode hook payload: %w", err)
	}
	name, _ := deref(p.ToolName)
	return Event{
		phase:    phase,
		tool:     ParseToolKind(name),
		toolName: name,
		in:       p,
	}, nil
}

// Read consumes r completely before decoding it.
func Read(phase Phase, r io.Reader) (Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Event{}, fmt.Errorf("read hook payload: %w", err)
	}
	return Parse(phase, data)
}
