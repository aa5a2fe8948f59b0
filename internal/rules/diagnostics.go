package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/victorarias/claude-guard/internal/exttool"
	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/repo"
	"github.com/victorarias/claude-guard/internal/verdict"
)

const (
	maxClippyLines = 10
	maxCycleLines  = 20
)

// formatter is the in-place rewrite command for one file extension.
type formatter struct {
	name string
	args func(file string) []string
}

func prettier(f string) []string { return []string{"prettier", "--write", f} }

var formatters = map[string]formatter{
	".py":   {"ruff", func(f string) []string { return []string{"format", f, "--quiet"} }},
	".rs":   {"rustfmt", func(f string) []string { return []string{f} }},
	".go":   {"gofmt", func(f string) []string { return []string{"-w", f} }},
	".ts":   {"npx", prettier},
	".tsx":  {"npx", prettier},
	".js":   {"npx", prettier},
	".jsx":  {"npx", prettier},
	".json": {"npx", prettier},
	".md":   {"npx", func(f string) []string { return append(prettier(f), "--prose-wrap=always") }},
}

// formatOnSave rewrites the file in place. It never affects the verdict.
func (g *Guard) formatOnSave(ctx context.Context, e hook.Event) verdict.Decision {
	file, ok := existingFile(e)
	if !ok {
		return verdict.Allow()
	}
	f, ok := formatters[filepath.Ext(file)]
	if !ok {
		return verdict.Allow()
	}
	if _, err := g.Tools.Run(ctx, filepath.Dir(file), f.name, f.args(file)...); err != nil {
		g.Log.Debug().Err(err).Str("file", file).Msg("formatter unavailable")
	}
	return verdict.Allow()
}

func (g *Guard) typecheck(ctx context.Context, e hook.Event) verdict.Decision {
	file, ok := existingFile(e)
	if !ok {
		return verdict.Allow()
	}
	switch filepath.Ext(file) {
	case ".py":
		return g.typecheckPython(ctx, file)
	case ".ts", ".tsx":
		return g.typecheckTypeScript(ctx, file)
	case ".rs":
		return g.typecheckRust(ctx, file)
	case ".go":
		return g.typecheckGo(ctx, file)
	}
	return verdict.Allow()
}

// run starts one diagnostic and reports whether it produced a usable result.
func (g *Guard) run(ctx context.Context, dir, name string, args ...string) (exttool.Result, bool) {
	res, err := g.Tools.Run(ctx, dir, name, args...)
	if err != nil {
		g.Log.Debug().Err(err).Str("tool", name).Msg("diagnostic unavailable")
		return res, false
	}
	return res, true
}

func mypyConfigured(root string) bool {
	if repo.Exists(filepath.Join(root, "mypy.ini")) || repo.Exists(filepath.Join(root, ".mypy.ini")) {
		return true
	}
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	return err == nil && strings.Contains(string(data), "[tool.mypy]")
}

func (g *Guard) typecheckPython(ctx context.Context, file string) verdict.Decision {
	root, ok := repo.ProjectRoot(file)
	if !ok || !mypyConfigured(root) {
		return verdict.Allow()
	}
	rel := relTo(root, file)

	name, args := "mypy", []string{rel, "--no-error-summary", "--no-color"}
	if repo.Exists(filepath.Join(root, "pyproject.toml")) {
		name, args = "uv", append([]string{"run", "--quiet", "mypy"}, args...)
	}
	res, ok := g.run(ctx, root, name, args...)
	if !ok || res.Success() {
		return verdict.Allow()
	}

	errs := linesWithPrefix(res.Stdout, rel)
	if len(errs) == 0 {
		return verdict.Allow()
	}
	return verdict.Block(fmt.Sprintf("mypy errors in %s:\n%s", file, strings.Join(errs, "\n")))
}

func (g *Guard) typecheckTypeScript(ctx context.Context, file string) verdict.Decision {
	dir, ok := repo.FindUpward(file, "tsconfig.json")
	if !ok {
		return verdict.Allow()
	}
	res, ok := g.run(ctx, dir, "npx", "tsc", "--noEmit", "--project", filepath.Join(dir, "tsconfig.json"))
	if !ok || res.Success() {
		return verdict.Allow()
	}

	errs := linesWithPrefix(res.Stdout, relTo(dir, file), file)
	if len(errs) == 0 {
		return verdict.Allow()
	}
	return verdict.Block(fmt.Sprintf("TypeScript errors in %s:\n%s", file, strings.Join(errs, "\n")))
}

func (g *Guard) typecheckRust(ctx context.Context, file string) verdict.Decision {
	dir, ok := repo.FindUpward(file, "Cargo.toml")
	if !ok {
		return verdict.Allow()
	}
	res, ok := g.run(ctx, dir, "cargo", "clippy", "--message-format=short")
	if !ok || res.Success() {
		return verdict.Allow()
	}

	var errs []string
	for _, line := range linesWithPrefix(res.Stderr, relTo(dir, file)+":") {
		if strings.Contains(line, "error") {
			errs = append(errs, line)
		}
		if len(errs) == maxClippyLines {
			break
		}
	}
	if len(errs) == 0 {
		return verdict.Allow()
	}
	return verdict.Block(fmt.Sprintf("Clippy errors in %s:\n%s", file, strings.Join(errs, "\n")))
}

func (g *Guard) typecheckGo(ctx context.Context, file string) verdict.Decision {
	dir := filepath.Dir(file)
	res, ok := g.run(ctx, dir, "go", "vet", ".")
	if !ok || res.Success() {
		return verdict.Allow()
	}

	var errs []string
	base := filepath.Base(file)
	for _, line := range strings.Split(res.Stderr, "\n") {
		if namesFile(line, base) {
			errs = append(errs, strings.TrimSpace(line))
		}
	}
	if len(errs) == 0 {
		return verdict.Allow()
	}
	return verdict.Block(fmt.Sprintf("go vet errors in %s:\n%s", file, strings.Join(errs, "\n")))
}

// namesFile reports whether line carries a "base:" position whose file name
// starts a path segment, so "main.go" does not match "xmain.go:".
func namesFile(line, base string) bool {
	needle := base + ":"
	for off := 0; ; {
		i := strings.Index(line[off:], needle)
		if i < 0 {
			return false
		}
		i += off
		if i == 0 || line[i-1] == '/' || line[i-1] == ' ' || line[i-1] == '\t' {
			return true
		}
		off = i + 1
	}
}

func (g *Guard) importCycleCheck(ctx context.Context, e hook.Event) verdict.Decision {
	path, ok := editedFile(e)
	if !ok || !strings.HasSuffix(path, ".py") {
		return verdict.Allow()
	}
	root, ok := repo.ProjectRoot(localPath(e, path))
	if !ok || !repo.Exists(filepath.Join(root, ".importlinter")) {
		return verdict.Allow()
	}
	res, ok := g.run(ctx, root, "lint-imports")
	if !ok || res.Success() {
		return verdict.Allow()
	}

	out := res.Stderr
	if strings.TrimSpace(out) == "" {
		out = res.Stdout
	}
	return verdict.Warn("WARNING: Import cycle detected:\n" + strings.Join(firstLines(out, maxCycleLines), "\n"))
}

// relTo returns file relative to dir in slash form, or file unchanged.
func relTo(dir, file string) string {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}

// linesWithPrefix returns the lines of out starting with any of prefixes.
func linesWithPrefix(out string, prefixes ...string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(line, p) {
				lines = append(lines, line)
				break
			}
		}
	}
	return lines
}

func firstLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}
