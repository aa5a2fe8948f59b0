package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/victorarias/claude-guard/internal/exttool"
)

// ErrDetachedHEAD is returned by CurrentBranch when HEAD names no branch.
var ErrDetachedHEAD = errors.New("detached HEAD")

// StatusEntry is one line of `git status --porcelain`.
type StatusEntry struct {
	Code string // two-letter XY status, e.g. " M", "??"
	Path string // slash-separated, relative to the tree root
}

// Untracked reports a file git does not know about yet.
func (s StatusEntry) Untracked() bool { return s.Code == "??" }

// Modified reports a tracked file with unstaged edits.
func (s StatusEntry) Modified() bool {
	switch s.Code {
	case " M", "MM", "AM":
		return true
	}
	return false
}

// Git queries a working tree through the git binary.
type Git struct {
	Runner exttool.Runner
}

// Status lists uncommitted entries of the tree rooted at root.
func (g Git) Status(ctx context.Context, root string) ([]StatusEntry, error) {
	res, err := g.Runner.Run(ctx, root, "git", "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, fmt.Errorf("git status: exit %d", res.ExitCode)
	}
	return parsePorcelain(res.Stdout), nil
}

// CurrentBranch returns the branch checked out in the tree containing dir.
func (g Git) CurrentBranch(ctx context.Context, dir string) (string, error) {
	res, err := g.Runner.Run(ctx, dir, "git", "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", fmt.Errorf("git branch: exit %d", res.ExitCode)
	}
	branch := strings.TrimSpace(res.Stdout)
	if branch == "" {
		return "", ErrDetachedHEAD
	}
	return branch, nil
}

func parsePorcelain(out string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		if _, to, ok := strings.Cut(path, " -> "); ok {
			path = to
		}
		entries = append(entries, StatusEntry{
			Code: line[:2],
			Path: strings.Trim(path, `"`),
		})
	}
	return entries
}

// Lookup returns the entry for file, which may be absolute or relative to root.
func Lookup(entries []StatusEntry, root, file string) (StatusEntry, bool) {
	rel := file
	if filepath.IsAbs(file) {
		r, err := filepath.Rel(root, file)
		if err != nil {
			return StatusEntry{}, false
		}
		rel = r
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	for _, e := range entries {
		if e.Path == rel {
			return e, true
		}
	}
	return StatusEntry{}, false
}
