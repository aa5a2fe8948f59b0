package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/victorarias/claude-guard/internal/dispatch"
	"github.com/victorarias/claude-guard/internal/rules"
)

// HookEntry is a single hook command in Claude Code settings.
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup is a hook group with an optional tool matcher.
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// HooksConfig is the hooks section of Claude settings, limited to the
// events claude-guard handles.
type HooksConfig struct {
	PreToolUse       []HookGroup `json:"PreToolUse,omitempty"`
	PostToolUse      []HookGroup `json:"PostToolUse,omitempty"`
	UserPromptSubmit []HookGroup `json:"UserPromptSubmit,omitempty"`
	Stop             []HookGroup `json:"Stop,omitempty"`
}

// postEditTimeout leaves room for a formatter and a type checker, each
// bounded by the tool timeout.
const postEditTimeout = 120

// generateHooksConfig wires the combined pipelines to their host events.
func generateHooksConfig(binary string) *HooksConfig {
	entry := func(hook string, timeout int) []HookEntry {
		return []HookEntry{{Type: "command", Command: binary + " " + hook, Timeout: timeout}}
	}
	return &HooksConfig{
		PreToolUse: []HookGroup{
			{Matcher: "Write|Edit", Hooks: entry(dispatch.PreEdit, 0)},
			{Matcher: "Bash", Hooks: entry(dispatch.PreBash, 0)},
		},
		PostToolUse: []HookGroup{
			{Hooks: entry(dispatch.PostEdit, postEditTimeout)},
		},
		UserPromptSubmit: []HookGroup{
			{Hooks: entry(dispatch.UserPrompt, 0)},
		},
		Stop: []HookGroup{
			{Hooks: entry(rules.NotifyDone, 0)},
		},
	}
}

func (a *app) hooksCmd() *cobra.Command {
	var binary string
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Print the settings.json hooks block",
		Long: `Print the "hooks" block to merge into ~/.claude/settings.json or a
project's .claude/settings.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := json.MarshalIndent(map[string]any{"hooks": generateHooksConfig(binary)}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal hooks: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringVar(&binary, "binary", "claude-guard", "Command used to invoke claude-guard")
	return cmd
}
