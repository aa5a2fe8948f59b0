// Package dispatch maps hook names to ordered rule pipelines and folds their
// decisions into one verdict.
package dispatch

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/rules"
	"github.com/victorarias/claude-guard/internal/verdict"
)

// Combined pipeline names.
const (
	PreEdit    = "pre-edit"
	PostEdit   = "post-edit"
	PreBash    = "pre-bash"
	UserPrompt = "user-prompt"
)

// pipelineOrder lists the rules of each combined pipeline. Order is
// significant: it fixes message order and what a short-circuit skips.
var pipelineOrder = []struct {
	name  string
	phase hook.Phase
	rules []string
}{
	{PreEdit, hook.PhasePreEdit, []string{
		rules.ProtectFiles,
		rules.LargeFileCheck,
		rules.GitStatusCheck,
		rules.BranchProtection,
		rules.TestFileGuard,
		rules.VerifyAPICalls,
	}},
	{PostEdit, hook.PhasePostEdit, []string{
		rules.FormatOnSave,
		rules.Typecheck,
		rules.JAXShapeCheck,
		rules.ImportCycleCheck,
		rules.SessionLogger,
	}},
	{PreBash, hook.PhasePreBash, []string{
		rules.DangerousCommand,
		rules.ValidateCommit,
	}},
	{UserPrompt, hook.PhaseUserPromptSubmit, []string{
		rules.InjectContext,
		rules.Context7Docs,
	}},
}

// Pipeline is an ordered list of rules run for one hook name.
type Pipeline struct {
	Name  string
	Phase hook.Phase
	Rules []rules.Rule

	// Single marks a hook that names one rule directly. Its phase follows
	// the host's hook_event_name when the payload carries one.
	Single bool
}

// ShortCircuits reports whether evaluation stops at the first Block.
func (p Pipeline) ShortCircuits() bool {
	return p.Phase.Gating()
}

// RuleNames lists the pipeline's rules in evaluation order.
func (p Pipeline) RuleNames() []string {
	names := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		names[i] = r.Name
	}
	return names
}

// Dispatcher resolves hook names. It is immutable after New.
type Dispatcher struct {
	pipelines map[string]Pipeline
	names     []string
	log       zerolog.Logger
}

// New builds the hook table from a rule catalog. Rules named in disabled are
// dropped from every pipeline and their single-rule hooks resolve to nothing.
func New(catalog []rules.Rule, disabled []string, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{pipelines: make(map[string]Pipeline), log: log}

	byName := make(map[string]rules.Rule, len(catalog))
	for _, r := range catalog {
		if slices.Contains(disabled, r.Name) {
			continue
		}
		byName[r.Name] = r
	}

	for _, spec := range pipelineOrder {
		p := Pipeline{Name: spec.name, Phase: spec.phase}
		for _, name := range spec.rules {
			if r, ok := byName[name]; ok {
				p.Rules = append(p.Rules, r)
			}
		}
		d.add(p)
	}
	for _, r := range catalog {
		if _, ok := byName[r.Name]; !ok {
			continue
		}
		d.add(Pipeline{Name: r.Name, Phase: r.Phase, Rules: []rules.Rule{r}, Single: true})
	}
	return d
}

func (d *Dispatcher) add(p Pipeline) {
	if _, dup := d.pipelines[p.Name]; !dup {
		d.names = append(d.names, p.Name)
	}
	d.pipelines[p.Name] = p
}

// Lookup returns the pipeline for a hook name.
func (d *Dispatcher) Lookup(name string) (Pipeline, bool) {
	p, ok := d.pipelines[name]
	return p, ok
}

// Pipelines returns every pipeline, combined ones first.
func (d *Dispatcher) Pipelines() []Pipeline {
	out := make([]Pipeline, 0, len(d.names))
	for _, n := range d.names {
		out = append(out, d.pipelines[n])
	}
	return out
}

// EventPhase returns the phase the event should be evaluated at under p.
func (p Pipeline) EventPhase(e hook.Event) hook.Phase {
	if p.Single {
		name, _ := e.HookEventName()
		if phase, ok := hook.PhaseFor(name, e.Tool()); ok {
			return phase
		}
	}
	return p.Phase
}

// Dispatch evaluates the named hook. Unknown names yield Allow.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, e hook.Event) verdict.Decision {
	p, ok := d.Lookup(name)
	if !ok {
		d.log.Debug().Str("hook", name).Msg("unknown hook")
		return verdict.Allow()
	}
	return d.Evaluate(ctx, p, e.WithPhase(p.EventPhase(e)))
}

// Evaluate folds the pipeline's decisions left to right from Allow. In a
// gating phase it stops at the first Block: later rules are never called.
func (d *Dispatcher) Evaluate(ctx context.Context, p Pipeline, e hook.Event) verdict.Decision {
	acc := verdict.Allow()
	for _, r := range p.Rules {
		start := time.Now()
		got := r.Check(ctx, e)
		acc = verdict.Combine(acc, got)

		d.log.Debug().
			Str("rule", r.Name).
			Stringer("severity", got.Severity).
			Int("messages", len(got.Messages)).
			Dur("elapsed", time.Since(start)).
			Msg("rule evaluated")

		if acc.Blocked() && p.ShortCircuits() {
			break
		}
	}
	return acc
}
