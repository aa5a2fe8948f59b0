package rules

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/logging"
	"github.com/victorarias/claude-guard/internal/notify"
	"github.com/victorarias/claude-guard/internal/verdict"
)

func (g *Guard) jaxShapeCheck(_ context.Context, e hook.Event) verdict.Decision {
	file, ok := existingFile(e)
	if !ok || !strings.HasSuffix(file, ".py") {
		return verdict.Allow()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return verdict.Allow()
	}
	content := string(data)
	if !strings.Contains(content, "jax") && !strings.Contains(content, "flax") {
		return verdict.Allow()
	}

	var warnings []string
	for i, line := range strings.Split(content, "\n") {
		if subs, ok := g.Patterns.EinsumSubscripts(line); ok {
			if missing := einsumUnknownOutputs(subs); missing != "" {
				warnings = append(warnings, fmt.Sprintf(
					"Line %d: einsum output has indices %q not present in input", i+1, missing))
			}
		}
		if g.Patterns.IsBareVmap(line) {
			warnings = append(warnings, fmt.Sprintf(
				"Line %d: vmap/pmap without explicit in_axes/out_axes (defaults to 0, verify this is intended)", i+1))
		}
	}
	if len(warnings) == 0 {
		return verdict.Allow()
	}
	return verdict.Warn("JAX shape/type warnings:\n  " + strings.Join(warnings, "\n  "))
}

// einsumUnknownOutputs returns the output index letters of an einsum
// subscript string that appear in no input, in output order. Implicit-mode
// subscripts (no "->") have nothing to verify.
func einsumUnknownOutputs(subscripts string) string {
	inputs, output, ok := strings.Cut(subscripts, "->")
	if !ok {
		return ""
	}
	var missing []rune
	for _, r := range output {
		if !unicode.IsLetter(r) || strings.ContainsRune(inputs, r) || slices.Contains(missing, r) {
			continue
		}
		missing = append(missing, r)
	}
	return string(missing)
}

// sessionLogger records the tool use. It never affects the verdict.
func (g *Guard) sessionLogger(_ context.Context, e hook.Event) verdict.Decision {
	entry := logging.SessionEntry{Tool: e.ToolName()}
	entry.Session, _ = e.SessionID()
	switch e.Tool() {
	case hook.ToolEdit, hook.ToolWrite, hook.ToolRead:
		entry.File, _ = e.FilePath()
	case hook.ToolBash:
		entry.Command, _ = e.Command()
	case hook.ToolGlob, hook.ToolGrep:
		entry.Pattern, _ = e.SearchPattern()
	}
	if err := g.Sessions.Record(entry); err != nil {
		g.Log.Debug().Err(err).Msg("session log unavailable")
	}
	return verdict.Allow()
}

// contextGroup is a checklist injected when the prompt mentions any keyword.
type contextGroup struct {
	keywords []string
	text     string
}

var contextGroups = []contextGroup{
	{
		[]string{"deploy", "release", "publish"},
		"DEPLOYMENT CHECKLIST:\n- Run full test suite before deploying\n- Check for uncommitted changes (git status)\n- Verify version bump in package.json/pyproject.toml/Cargo.toml\n- Update CHANGELOG.md\n- Create git tag after successful deploy",
	},
	{
		[]string{"migration", "database", "schema"},
		"DATABASE SAFETY:\n- Always backup before migrations\n- Test migrations on staging first\n- Ensure migrations are reversible when possible\n- Check for long-running locks on production tables",
	},
	{
		[]string{"optim", "performance", "slow", "fast"},
		"PERFORMANCE CHECKLIST:\n- Profile before optimizing (measure, don't guess)\n- Check algorithmic complexity first\n- Consider caching strategies\n- For JAX: ensure JIT compilation, check for recompilation triggers",
	},
	{
		[]string{"auth", "security", "password", "token"},
		"SECURITY REMINDER:\n- Never hardcode secrets - use environment variables\n- Validate and sanitize all user inputs\n- Use parameterized queries for database operations",
	},
	{
		[]string{"test", "coverage", "pytest"},
		"TESTING GUIDELINES:\n- Test behavior, not implementation\n- Include edge cases: empty inputs, null values, boundaries\n- For ML: test with fixed random seeds for reproducibility",
	},
	{
		[]string{"train", "model", "jax", "flax"},
		"ML TRAINING CHECKLIST:\n- Set random seeds for reproducibility\n- Use gradient clipping (optax.clip_by_global_norm)\n- Monitor for NaN/Inf in gradients\n- Checkpoint frequently with Orbax",
	},
	{
		[]string{"refactor", "clean", "restructure"},
		"REFACTORING GUIDELINES:\n- Ensure tests pass before and after\n- Make small, incremental changes\n- Avoid mixing refactoring with feature changes\n- Use git commits to checkpoint progress",
	},
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func (g *Guard) injectContext(_ context.Context, e hook.Event) verdict.Decision {
	prompt, ok := e.PromptText()
	if !ok {
		return verdict.Allow()
	}
	prompt = strings.ToLower(prompt)

	d := verdict.Allow()
	for _, group := range contextGroups {
		if containsAny(prompt, group.keywords) {
			d = verdict.Combine(d, verdict.WithContext(group.text))
		}
	}
	return d
}

var docQuestionPhrases = []string{
	"how do i", "how to", "how can i", "documentation", "docs", "api",
	"examples", "tutorial", "guide", "getting started", "learn", "show me how",
}

// context7Docs suggests a documentation lookup. On a prompt it adds agent
// context; before an edit of Python code it warns about library usage.
func (g *Guard) context7Docs(_ context.Context, e hook.Event) verdict.Decision {
	switch e.Phase() {
	case hook.PhaseUserPromptSubmit:
		return g.docsForPrompt(e)
	case hook.PhasePreEdit:
		return g.docsForCode(e)
	}
	return verdict.Allow()
}

func (g *Guard) docsForPrompt(e hook.Event) verdict.Decision {
	prompt, ok := e.PromptText()
	if !ok {
		return verdict.Allow()
	}
	prompt = strings.ToLower(prompt)
	if strings.Contains(prompt, "context7") {
		return verdict.Allow()
	}

	docQuestion := containsAny(prompt, docQuestionPhrases)
	for _, lib := range g.Patterns.DocLibraries() {
		if !strings.Contains(prompt, lib) {
			continue
		}
		if docQuestion {
			return verdict.WithContext(fmt.Sprintf(
				"Use Context7 MCP for up-to-date %s docs: resolve-library-id('%s') then get-library-docs()", lib, lib))
		}
		if strings.Contains(prompt, "?") {
			return verdict.WithContext(fmt.Sprintf(
				"Consider using Context7 MCP for current %s documentation if needed.", lib))
		}
	}
	return verdict.Allow()
}

func (g *Guard) docsForCode(e hook.Event) verdict.Decision {
	path, ok := editedFile(e)
	if !ok || !strings.HasSuffix(path, ".py") {
		return verdict.Allow()
	}
	text, _ := e.EditedText()
	text = strings.ToLower(text)
	for _, lib := range g.Patterns.DocLibraries() {
		if strings.Contains(text, lib+".") {
			return verdict.Warn(fmt.Sprintf(
				"NOTE: Code uses %s APIs. If unsure about function signatures, verify with Context7 MCP.", lib))
		}
	}
	return verdict.Allow()
}

// notifyDone raises a desktop notification. Delivery failures are ignored.
func (g *Guard) notifyDone(ctx context.Context, e hook.Event) verdict.Decision {
	reason, _ := e.StopReason()
	if err := g.Notifier.Notify(ctx, notify.StopMessage(reason)); err != nil {
		g.Log.Debug().Err(err).Msg("notification not delivered")
	}
	return verdict.Allow()
}
