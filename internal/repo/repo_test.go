package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorarias/claude-guard/internal/exttool"
	"github.com/victorarias/claude-guard/internal/exttool/exttooltest"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0755))
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

func TestGitRoot(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, filepath.Join(root, ".git"), filepath.Join(root, "pkg", "sub"))
	file := filepath.Join(root, "pkg", "sub", "main.go")
	touch(t, file)

	tests := []struct {
		name string
		path string
	}{
		{"file", file},
		{"directory", filepath.Join(root, "pkg")},
		{"missing file", filepath.Join(root, "pkg", "new.go")},
		{"root itself", root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GitRoot(tt.path)
			require.True(t, ok)
			assert.Equal(t, root, got)
		})
	}
}

func TestProjectRoot(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "svc")
	touch(t, filepath.Join(project, "setup.cfg"))
	file := filepath.Join(project, "src", "app", "model.py")
	touch(t, file)

	got, ok := ProjectRoot(file)
	require.True(t, ok)
	assert.Equal(t, project, got)

	_, ok = ProjectRoot(filepath.Join(root, "other.py"))
	assert.False(t, ok)
}

func TestFindUpwardNearestWins(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "tsconfig.json"))
	touch(t, filepath.Join(root, "web", "tsconfig.json"))
	file := filepath.Join(root, "web", "src", "app.ts")
	touch(t, file)

	got, ok := FindUpward(file, "tsconfig.json")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "web"), got)
}

func TestParsePorcelain(t *testing.T) {
	out := " M src/app.py\nMM lib/util.py\n?? notes.txt\nR  old.py -> new.py\nA  \"with space.py\"\n"
	entries := parsePorcelain(out)

	require.Len(t, entries, 5)
	assert.Equal(t, StatusEntry{Code: " M", Path: "src/app.py"}, entries[0])
	assert.True(t, entries[0].Modified())
	assert.True(t, entries[1].Modified())
	assert.True(t, entries[2].Untracked())
	assert.Equal(t, "new.py", entries[3].Path)
	assert.False(t, entries[3].Modified())
	assert.Equal(t, "with space.py", entries[4].Path)
}

func TestLookup(t *testing.T) {
	entries := []StatusEntry{{Code: " M", Path: "src/app.py"}}

	e, ok := Lookup(entries, "/repo", "/repo/src/app.py")
	require.True(t, ok)
	assert.Equal(t, " M", e.Code)

	_, ok = Lookup(entries, "/repo", "src/app.py")
	assert.True(t, ok)

	_, ok = Lookup(entries, "/repo", "/repo/src/other.py")
	assert.False(t, ok)
}

func TestGitStatus(t *testing.T) {
	fake := exttooltest.New().On("git", exttool.Result{Stdout: " M a.go\n?? b.go\n"})
	g := Git{Runner: fake}

	entries, err := g.Status(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/repo", calls[0].Dir)
	assert.Equal(t, "git status --porcelain", calls[0].Line())
}

func TestGitStatusFailure(t *testing.T) {
	g := Git{Runner: exttooltest.New().On("git", exttool.Result{ExitCode: 128})}
	_, err := g.Status(context.Background(), "/not-a-repo")
	assert.Error(t, err)

	g = Git{Runner: exttooltest.New()}
	_, err = g.Status(context.Background(), "/repo")
	assert.True(t, errors.Is(err, exttool.ErrUnavailable))
}

func TestCurrentBranch(t *testing.T) {
	g := Git{Runner: exttooltest.New().On("git", exttool.Result{Stdout: "main\n"})}
	branch, err := g.CurrentBranch(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	g = Git{Runner: exttooltest.New().On("git", exttool.Result{Stdout: "\n"})}
	_, err = g.CurrentBranch(context.Background(), "/repo")
	assert.True(t, errors.Is(err, ErrDetachedHEAD))
}
