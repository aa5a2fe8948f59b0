// Package rules implements the guard rule catalog. Each rule is a named
// evaluator from an Event to a Decision. Rules never return errors: a missing
// field, a missing file or an unavailable tool all mean Allow.
package rules

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/victorarias/claude-guard/internal/config"
	"github.com/victorarias/claude-guard/internal/exttool"
	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/logging"
	"github.com/victorarias/claude-guard/internal/notify"
	"github.com/victorarias/claude-guard/internal/patterns"
	"github.com/victorarias/claude-guard/internal/repo"
	"github.com/victorarias/claude-guard/internal/verdict"
)

// Rule names, as accepted on the command line.
const (
	ProtectFiles     = "protect-files"
	LargeFileCheck   = "large-file-check"
	GitStatusCheck   = "git-status-check"
	BranchProtection = "branch-protection"
	TestFileGuard    = "test-file-guard"
	VerifyAPICalls   = "verify-api-calls"
	DangerousCommand = "dangerous-command"
	ValidateCommit   = "validate-commit"
	FormatOnSave     = "format-on-save"
	Typecheck        = "typecheck"
	JAXShapeCheck    = "jax-shape-check"
	ImportCycleCheck = "import-cycle-check"
	SessionLogger    = "session-logger"
	InjectContext    = "inject-context"
	Context7Docs     = "context7-docs"
	NotifyDone       = "notify-done"
)

// Check evaluates one event.
type Check func(ctx context.Context, e hook.Event) verdict.Decision

// Rule is a named check together with the phase it is designed for.
type Rule struct {
	Name  string
	Phase hook.Phase
	Check Check
}

// Recorder receives one entry per tool use.
type Recorder interface {
	Record(logging.SessionEntry) error
}

// DefaultProtectedFiles are file patterns no agent edit may touch. Patterns
// without a leading "/" or "**/" match at any depth.
var DefaultProtectedFiles = []string{
	".env",
	"*.env",
	".env.*",
	"*credentials*",
	"*secrets*",
	"*.pem",
	"*.key",
	"*.crt",
	"*id_rsa*",
	"*id_ed25519*",
	".git/**",
	"package-lock.json",
	"yarn.lock",
	"Cargo.lock",
	"uv.lock",
	"poetry.lock",
	".vscode/settings.json",
	".idea/**",
}

// Guard holds everything the rules depend on. The zero value is not usable;
// build one with NewGuard or fill every field.
type Guard struct {
	Patterns          *patterns.Registry
	Limits            config.Limits
	ProtectedFiles    []string
	ProtectedBranches []string

	Tools    exttool.Runner
	Git      repo.Git
	Notifier notify.Notifier
	Sessions Recorder
	Log      zerolog.Logger
}

// NewGuard wires a Guard from configuration. tools runs diagnostics and git;
// notifier is used by notify-done only.
func NewGuard(cfg *config.Config, reg *patterns.Registry, tools exttool.Runner, notifier notify.Notifier, log zerolog.Logger) *Guard {
	protected := make([]string, 0, len(DefaultProtectedFiles)+len(cfg.ProtectedFiles))
	protected = append(protected, DefaultProtectedFiles...)
	protected = append(protected, cfg.ProtectedFiles...)

	return &Guard{
		Patterns:          reg,
		Limits:            cfg.Limits,
		ProtectedFiles:    protected,
		ProtectedBranches: cfg.ProtectedBranches,
		Tools:             tools,
		Git:               repo.Git{Runner: tools},
		Notifier:          notifier,
		Sessions:          logging.SessionLog{Dir: cfg.SessionLogDir, Now: time.Now},
		Log:               log,
	}
}

// Catalog returns every rule in a stable order.
func (g *Guard) Catalog() []Rule {
	return []Rule{
		{ProtectFiles, hook.PhasePreEdit, g.protectFiles},
		{LargeFileCheck, hook.PhasePreEdit, g.largeFileCheck},
		{GitStatusCheck, hook.PhasePreEdit, g.gitStatusCheck},
		{BranchProtection, hook.PhasePreEdit, g.branchProtection},
		{TestFileGuard, hook.PhasePreEdit, g.testFileGuard},
		{VerifyAPICalls, hook.PhasePreEdit, g.verifyAPICalls},
		{DangerousCommand, hook.PhasePreBash, g.dangerousCommand},
		{ValidateCommit, hook.PhasePreBash, g.validateCommit},
		{FormatOnSave, hook.PhasePostEdit, g.formatOnSave},
		{Typecheck, hook.PhasePostEdit, g.typecheck},
		{JAXShapeCheck, hook.PhasePostEdit, g.jaxShapeCheck},
		{ImportCycleCheck, hook.PhasePostEdit, g.importCycleCheck},
		{SessionLogger, hook.PhasePostEdit, g.sessionLogger},
		{InjectContext, hook.PhaseUserPromptSubmit, g.injectContext},
		{Context7Docs, hook.PhaseUserPromptSubmit, g.context7Docs},
		{NotifyDone, hook.PhaseStop, g.notifyDone},
	}
}

// editedFile returns the target path of an Edit or Write.
func editedFile(e hook.Event) (string, bool) {
	if !e.Tool().Modifies() {
		return "", false
	}
	path, ok := e.FilePath()
	if !ok || path == "" {
		return "", false
	}
	return path, true
}

// localPath resolves a payload path for filesystem probes. Relative paths are
// taken against the event's working directory when one was sent.
func localPath(e hook.Event, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if cwd, ok := e.Cwd(); ok && cwd != "" {
		return filepath.Join(cwd, path)
	}
	return path
}

// existingFile returns the local path of an edited file that exists on disk.
func existingFile(e hook.Event) (string, bool) {
	path, ok := editedFile(e)
	if !ok {
		return "", false
	}
	local := localPath(e, path)
	if !repo.Exists(local) {
		return "", false
	}
	return local, true
}
