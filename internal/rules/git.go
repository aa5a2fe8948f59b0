package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/repo"
	"github.com/victorarias/claude-guard/internal/verdict"
)

func (g *Guard) gitStatusCheck(ctx context.Context, e hook.Event) verdict.Decision {
	path, ok := editedFile(e)
	if !ok {
		return verdict.Allow()
	}
	local := localPath(e, path)
	if !repo.Exists(local) {
		return verdict.Allow()
	}
	// Porcelain paths are relative to the tree root, not to our cwd.
	if abs, err := filepath.Abs(local); err == nil {
		local = abs
	}
	root, ok := repo.GitRoot(local)
	if !ok {
		return verdict.Allow()
	}

	entries, err := g.Git.Status(ctx, root)
	if err != nil {
		g.Log.Debug().Err(err).Str("root", root).Msg("git status unavailable")
		return verdict.Allow()
	}

	d := verdict.Allow()
	if entry, found := repo.Lookup(entries, root, local); found {
		switch {
		case entry.Untracked():
		case entry.Modified():
			d = verdict.Warn(fmt.Sprintf(
				"WARNING: File has uncommitted modifications\nFile: %s\nConsider committing or stashing changes first.",
				path))
		default:
			d = verdict.Warn(fmt.Sprintf(
				"WARNING: File has uncommitted changes (status: %s)\nFile: %s",
				strings.TrimSpace(entry.Code), path))
		}
	}

	if n := len(entries); n > g.Limits.DirtyTreeThreshold {
		d = verdict.Combine(d, verdict.Warn(fmt.Sprintf(
			"NOTE: Repository has %d uncommitted changes\nConsider committing or stashing before making more changes.",
			n)))
	}
	return d
}

func (g *Guard) branchProtection(ctx context.Context, e hook.Event) verdict.Decision {
	if !e.Tool().Modifies() {
		return verdict.Allow()
	}

	branch, err := g.Git.CurrentBranch(ctx, workDir(e))
	if err != nil {
		return verdict.Allow()
	}
	if !slices.Contains(g.ProtectedBranches, branch) {
		return verdict.Allow()
	}
	return verdict.Warn(fmt.Sprintf(
		"WARNING: You are on '%s' branch.\nConsider creating a feature branch: git checkout -b feat/your-feature",
		branch))
}

// workDir picks the directory git should run in: the edited file's directory
// when it exists, else the event's working directory.
func workDir(e hook.Event) string {
	if path, ok := e.FilePath(); ok && path != "" {
		dir := filepath.Dir(localPath(e, path))
		if repo.Exists(dir) {
			return dir
		}
	}
	cwd, _ := e.Cwd()
	return cwd
}
