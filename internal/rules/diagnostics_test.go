package rules

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorarias/claude-guard/internal/exttool"
	"github.com/victorarias/claude-guard/internal/verdict"
)

func TestFormatOnSave(t *testing.T) {
	tests := []struct {
		file string
		line string // expected command line, {} is the file
	}{
		{"a.py", "ruff format {} --quiet"},
		{"lib.rs", "rustfmt {}"},
		{"main.go", "gofmt -w {}"},
		{"app.tsx", "npx prettier --write {}"},
		{"data.json", "npx prettier --write {}"},
		{"README.md", "npx prettier --write {} --prose-wrap=always"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			f := newFixture(t)
			file := writeFile(t, filepath.Join(t.TempDir(), tt.file), "x")

			d := f.check(t, FormatOnSave, postEditEvent(t, file))
			assert.Equal(t, verdict.Allow(), d, "formatting never affects the verdict")

			calls := f.tools.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, filepath.Dir(file), calls[0].Dir)
			assert.Equal(t, strings.Replace(tt.line, "{}", file, 1), calls[0].Line())
		})
	}
}

func TestFormatOnSaveSkips(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	f.check(t, FormatOnSave, postEditEvent(t, filepath.Join(dir, "missing.py")))
	f.check(t, FormatOnSave, postEditEvent(t, writeFile(t, filepath.Join(dir, "notes.txt"), "x")))
	assert.Empty(t, f.tools.Calls())

	f.tools.On("ruff", exttool.Result{ExitCode: 2, Stderr: "error: failed to parse"})
	d := f.check(t, FormatOnSave, postEditEvent(t, writeFile(t, filepath.Join(dir, "bad.py"), "def(")))
	assert.Equal(t, verdict.Allow(), d)
}

func TestTypecheckPythonWithUV(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"x\"\n\n[tool.mypy]\nstrict = true\n")
	file := writeFile(t, filepath.Join(root, "pkg", "mod.py"), "x: int = 'a'\n")

	f.tools.On("uv", exttool.Result{
		ExitCode: 1,
		Stdout:   "pkg/mod.py:1: error: Incompatible types in assignment\npkg/other.py:4: error: Name \"y\" is not defined\n",
	})

	d := f.check(t, Typecheck, postEditEvent(t, file))
	require.True(t, d.Blocked())
	assert.Contains(t, d.Summary(), "mypy errors in "+file)
	assert.Contains(t, d.Summary(), "pkg/mod.py:1: error: Incompatible types")
	assert.NotContains(t, d.Summary(), "other.py")

	calls := f.tools.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, root, calls[0].Dir)
	assert.Equal(t, "uv run --quiet mypy pkg/mod.py --no-error-summary --no-color", calls[0].Line())
}

func TestTypecheckPythonWithMypyIni(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "setup.py"), "")
	writeFile(t, filepath.Join(root, "mypy.ini"), "[mypy]\n")
	file := writeFile(t, filepath.Join(root, "mod.py"), "")

	f.tools.On("mypy", exttool.Result{ExitCode: 1, Stdout: "mod.py:2: error: bad\n"})

	d := f.check(t, Typecheck, postEditEvent(t, file))
	assert.True(t, d.Blocked())
	assert.Equal(t, "mypy", f.tools.Calls()[0].Name)
}

func TestTypecheckPythonSkips(t *testing.T) {
	t.Run("no mypy config", func(t *testing.T) {
		f := newFixture(t)
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"x\"\n")
		file := writeFile(t, filepath.Join(root, "mod.py"), "")

		assert.Equal(t, verdict.Allow(), f.check(t, Typecheck, postEditEvent(t, file)))
		assert.Empty(t, f.tools.Calls())
	})

	t.Run("clean run", func(t *testing.T) {
		f := newFixture(t)
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "mypy.ini"), "[mypy]\n")
		writeFile(t, filepath.Join(root, "setup.cfg"), "")
		file := writeFile(t, filepath.Join(root, "mod.py"), "")
		f.tools.On("mypy", exttool.Result{})

		assert.Equal(t, verdict.Allow(), f.check(t, Typecheck, postEditEvent(t, file)))
	})

	t.Run("mypy missing", func(t *testing.T) {
		f := newFixture(t)
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "mypy.ini"), "[mypy]\n")
		writeFile(t, filepath.Join(root, "setup.cfg"), "")
		file := writeFile(t, filepath.Join(root, "mod.py"), "")

		assert.Equal(t, verdict.Allow(), f.check(t, Typecheck, postEditEvent(t, file)))
		assert.Len(t, f.tools.Calls(), 1)
	})
}

func TestTypecheckTypeScript(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), "{}")
	file := writeFile(t, filepath.Join(root, "src", "a.ts"), "let x: number = 'a'")

	f.tools.On("npx", exttool.Result{
		ExitCode: 2,
		Stdout:   "src/a.ts(1,5): error TS2322: Type 'string' is not assignable to type 'number'.\nsrc/b.ts(3,1): error TS2304: Cannot find name 'y'.\n",
	})

	d := f.check(t, Typecheck, postEditEvent(t, file))
	require.True(t, d.Blocked())
	assert.Contains(t, d.Summary(), "TypeScript errors in "+file)
	assert.Contains(t, d.Summary(), "TS2322")
	assert.NotContains(t, d.Summary(), "TS2304")
	assert.Equal(t, "npx tsc --noEmit --project "+filepath.Join(root, "tsconfig.json"), f.tools.Calls()[0].Line())
}

func TestTypecheckTypeScriptWithoutProject(t *testing.T) {
	f := newFixture(t)
	file := writeFile(t, filepath.Join(t.TempDir(), "a.ts"), "")

	assert.Equal(t, verdict.Allow(), f.check(t, Typecheck, postEditEvent(t, file)))
	assert.Empty(t, f.tools.Calls())
}

func TestTypecheckRust(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package]\n")
	file := writeFile(t, filepath.Join(root, "src", "lib.rs"), "")

	f.tools.On("cargo", exttool.Result{
		ExitCode: 101,
		Stderr: "src/lib.rs:3:5: error[E0308]: mismatched types\n" +
			"src/lib.rs:9:1: warning: unused variable\n" +
			"src/main.rs:1:1: error: unresolved import\n",
	})

	d := f.check(t, Typecheck, postEditEvent(t, file))
	require.True(t, d.Blocked())
	assert.Equal(t, "Clippy errors in "+file+":\nsrc/lib.rs:3:5: error[E0308]: mismatched types", d.Summary())
	assert.Equal(t, "cargo clippy --message-format=short", f.tools.Calls()[0].Line())
}

func TestTypecheckGo(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, "x.go"), "package x\n")

	f.tools.On("go", exttool.Result{
		ExitCode: 1,
		Stderr:   "# example.com/x\n./x.go:5:2: unreachable code\n./y.go:1:1: printf call has arguments\n./xx.go:9:1: self-assignment of v\n",
	})

	d := f.check(t, Typecheck, postEditEvent(t, file))
	require.True(t, d.Blocked())
	assert.Contains(t, d.Summary(), "./x.go:5:2: unreachable code")
	assert.NotContains(t, d.Summary(), "y.go")
	assert.NotContains(t, d.Summary(), "xx.go")
	assert.Equal(t, dir, f.tools.Calls()[0].Dir)
}

func TestNamesFile(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"./main.go:3:2: unreachable code", true},
		{"main.go:3:2: unreachable code", true},
		{"vet: pkg/main.go:3:2: bad", true},
		{"./xmain.go:3:2: unreachable code", false},
		{"./xmain.go:1:1: a; ./main.go:2:2: b", true},
		{"./main.go.orig:1:1: c", false},
	}
	for _, tt := range tests {
		if got := namesFile(tt.line, "main.go"); got != tt.want {
			t.Errorf("namesFile(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestImportCycleCheck(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "setup.py"), "")
	writeFile(t, filepath.Join(root, ".importlinter"), "[importlinter]\n")
	file := writeFile(t, filepath.Join(root, "pkg", "a.py"), "import pkg.b\n")

	f.tools.On("lint-imports", exttool.Result{ExitCode: 1, Stdout: "Contracts: 1 broken.\npkg.a -> pkg.b -> pkg.a\n"})

	d := f.check(t, ImportCycleCheck, postEditEvent(t, file))
	require.Equal(t, verdict.SeverityWarn, d.Severity)
	assert.Equal(t, "WARNING: Import cycle detected:\nContracts: 1 broken.\npkg.a -> pkg.b -> pkg.a", d.Summary())
	assert.Equal(t, root, f.tools.Calls()[0].Dir)

	f.tools.On("lint-imports", exttool.Result{ExitCode: 1, Stderr: "layers broken\n", Stdout: "ignored\n"})
	d = f.check(t, ImportCycleCheck, postEditEvent(t, file))
	assert.Equal(t, "WARNING: Import cycle detected:\nlayers broken", d.Summary())

	f.tools.On("lint-imports", exttool.Result{})
	assert.Equal(t, verdict.Allow(), f.check(t, ImportCycleCheck, postEditEvent(t, file)))
}

func TestImportCycleCheckNeedsContract(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "setup.py"), "")
	file := writeFile(t, filepath.Join(root, "a.py"), "")

	assert.Equal(t, verdict.Allow(), f.check(t, ImportCycleCheck, postEditEvent(t, file)))
	assert.Empty(t, f.tools.Calls())
}

func TestFirstLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, firstLines("a\nb\nc\n", 2))
	assert.Equal(t, []string{"a"}, firstLines("a\n", 5))
}
