package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/victorarias/claude-guard/internal/config"
	"github.com/victorarias/claude-guard/internal/dispatch"
	"github.com/victorarias/claude-guard/internal/exttool"
	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/logging"
	"github.com/victorarias/claude-guard/internal/notify"
	"github.com/victorarias/claude-guard/internal/patterns"
	"github.com/victorarias/claude-guard/internal/rules"
)

// app carries flag values and the exit status between cobra callbacks.
type app struct {
	cfgFile string
	code    int

	// tools and notifier replace the subprocess-backed defaults when set.
	tools    exttool.Runner
	notifier notify.Notifier
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return (&app{}).execute(ctx, args, stdin, stdout, stderr)
}

func (a *app) execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	// stdout belongs to the hook protocol, so usage goes to stderr.
	if cmd, err := root.ExecuteContextC(ctx); err != nil {
		fmt.Fprint(stderr, cmd.UsageString())
		return 1
	}
	return a.code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "claude-guard <hook>",
		Short: "Policy guard for Claude Code hooks",
		Long: `claude-guard reads one hook event as JSON on stdin, runs the rules bound
to <hook> and reports the verdict through its exit status:

  0  allow (warnings, if any, are printed on stderr)
  2  block (the reasons are printed on stderr)

Combined hooks:
  pre-edit      PreToolUse on Write/Edit
  post-edit     PostToolUse
  pre-bash      PreToolUse on Bash
  user-prompt   UserPromptSubmit
  notify-done   Stop

Every rule can also be run alone by name; see "claude-guard rules".
Set CLAUDE_GUARD_DISABLED=1 to turn every hook into a no-op.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.code = a.evaluate(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default: ~/.config/claude-guard/config.yaml)")

	root.AddCommand(a.hooksCmd(), a.rulesCmd())
	return root
}

// evaluate handles one hook invocation. Nothing here may fail the host:
// configuration, logging and payload problems all end in exit 0.
func (a *app) evaluate(ctx context.Context, name string, stdin io.Reader, stdout, stderr io.Writer) int {
	if config.Disabled() {
		return 0
	}

	cfg, cfgErr := config.Load(a.cfgFile)
	log, closer := logging.Open(cfg.LogDir, cfg.LogLevel, logging.NewInvocationID())
	defer closer.Close()
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("using default configuration")
	}

	d := a.dispatcher(cfg, log)
	p, ok := d.Lookup(name)
	if !ok {
		log.Info().Str("hook", name).Msg("unknown hook")
		return 0
	}

	e, err := hook.Read(p.Phase, stdin)
	if err != nil {
		if !errors.Is(err, hook.ErrEmptyPayload) {
			log.Warn().Err(err).Str("hook", name).Msg("unreadable payload")
		}
		return 0
	}

	start := time.Now()
	decision := d.Dispatch(ctx, name, e)
	code := hook.Render(decision, stdout, stderr)

	session, _ := e.SessionID()
	log.Info().
		Str("hook", name).
		Str("tool", e.ToolName()).
		Str("session", session).
		Stringer("severity", decision.Severity).
		Int("messages", len(decision.Messages)).
		Bool("context", decision.Context != "").
		Dur("elapsed", time.Since(start)).
		Msg("decision")
	return code
}

func (a *app) dispatcher(cfg *config.Config, log zerolog.Logger) *dispatch.Dispatcher {
	tools := a.tools
	if tools == nil {
		tools = exttool.NewExec(cfg.ToolTimeout, log)
	}
	notifier := a.notifier
	if notifier == nil {
		notifier = notify.NewDesktop(exttool.NewExec(cfg.NotifyTimeout, log))
	}
	guard := rules.NewGuard(cfg, patterns.New(), tools, notifier, log)
	return dispatch.New(guard.Catalog(), cfg.DisabledRules, log)
}
