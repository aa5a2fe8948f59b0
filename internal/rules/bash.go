package rules

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/patterns"
	"github.com/victorarias/claude-guard/internal/verdict"
)

func bashCommand(e hook.Event) (string, bool) {
	if e.Tool() != hook.ToolBash {
		return "", false
	}
	return e.Command()
}

func (g *Guard) dangerousCommand(_ context.Context, e hook.Event) verdict.Decision {
	cmd, ok := bashCommand(e)
	if !ok {
		return verdict.Allow()
	}

	if entry, found := g.Patterns.FindDangerous(cmd); found {
		return verdict.Block(fmt.Sprintf(
			"BLOCKED: Potentially dangerous command detected (%s)\nCommand: %s\n\nIf you really need to run this command, please do so manually.",
			entry.Name, cmd))
	}

	d := verdict.Allow()
	if g.Patterns.IsVariableDelete(cmd) {
		d = verdict.Warn(fmt.Sprintf(
			"WARNING: rm -rf with variable expansion detected\nCommand: %s\nEnsure the variable is set correctly before proceeding.",
			cmd))
	}

	var sudo bool
	for _, seg := range splitCommand(cmd) {
		if !sudo && strings.HasPrefix(seg.text, "sudo ") {
			sudo = true
			d = verdict.Combine(d, verdict.Warn("WARNING: sudo command detected - will require manual approval"))
		}
		if program := baseCommand(seg.text); seg.piped && isInterpreter(program) {
			d = verdict.Combine(d, verdict.Warn(fmt.Sprintf(
				"WARNING: output piped into %s\nCommand: %s\nReview what is being executed before proceeding.",
				program, cmd)))
		}
	}
	return d
}

func (g *Guard) validateCommit(_ context.Context, e hook.Event) verdict.Decision {
	cmd, ok := bashCommand(e)
	if !ok {
		return verdict.Allow()
	}

	d := g.checkCommitMessage(cmd)
	if d.Blocked() {
		return d
	}
	return verdict.Combine(d, g.checkBranchName(cmd))
}

func (g *Guard) checkCommitMessage(cmd string) verdict.Decision {
	if !strings.Contains(cmd, "git commit") {
		return verdict.Allow()
	}
	msg, ok := g.Patterns.CommitMessage(cmd)
	if !ok {
		return verdict.Allow()
	}

	if !g.Patterns.IsConventional(msg) {
		return verdict.Block(fmt.Sprintf(
			"BLOCKED: Commit message does not follow conventional commits format\n\nExpected format: type(scope): description\n\nValid types: %s\n\nExample: feat(auth): add OAuth2 login flow\nYour message: %s",
			strings.Join(patterns.ConventionalTypes, ", "), msg))
	}

	subject, _, _ := strings.Cut(msg, "\n")
	if n := utf8.RuneCountInString(subject); n > g.Limits.CommitSubjectMax {
		return verdict.Warn(fmt.Sprintf(
			"WARNING: Commit subject line is %d chars (recommended <= 50, max %d)",
			n, g.Limits.CommitSubjectMax))
	}
	return verdict.Allow()
}

func (g *Guard) checkBranchName(cmd string) verdict.Decision {
	branch, ok := g.Patterns.CreatedBranch(cmd)
	if !ok {
		return verdict.Allow()
	}
	if g.Patterns.IsProtectedBranchName(branch) || g.Patterns.IsFeatureBranchName(branch) {
		return verdict.Allow()
	}
	return verdict.Block(fmt.Sprintf(
		"BLOCKED: Branch name does not follow naming convention\n\nExpected format: type/short-description\nExample: feat/add-oauth-login\nYour branch: %s",
		branch))
}
