// Package patterns holds the compiled textual recognizers shared by the
// guard rules. A Registry is built once per process and is read-only
// afterwards, so it can be passed by pointer without synchronization.
package patterns

import (
	"regexp"
	"slices"
	"strings"
)

// Group tags what a recognizer is for.
type Group string

const (
	GroupSecret     Group = "secret"
	GroupDangerous  Group = "dangerous-command"
	GroupDangerWarn Group = "dangerous-warning"
)

// Entry is one named recognizer.
type Entry struct {
	Name  string
	Group Group
	re    *regexp.Regexp
}

// MatchString reports whether s contains a match.
func (e Entry) MatchString(s string) bool {
	return e.re.MatchString(s)
}

// ConventionalTypes are the commit types accepted in a subject line.
var ConventionalTypes = []string{
	"feat", "fix", "docs", "style", "refactor", "perf", "test", "chore", "ci", "build", "revert",
}

// branchTypes are the prefixes accepted for feature branches.
var branchTypes = []string{
	"feat", "fix", "refactor", "docs", "test", "chore", "ci", "build", "perf", "revert",
}

// Registry is the immutable set of recognizers used by the guard rules.
type Registry struct {
	secrets   []Entry
	dangerous []Entry
	varDelete Entry

	commitMessage   *regexp.Regexp
	conventional    *regexp.Regexp
	branchCreate    *regexp.Regexp
	branchProtected *regexp.Regexp
	branchFeature   *regexp.Regexp

	einsum *regexp.Regexp
	vmap   *regexp.Regexp

	apiLibraries []string
	docLibraries []string
}

type spec struct {
	name string
	expr string
}

func compile(group Group, specs []spec) []Entry {
	out := make([]Entry, 0, len(specs))
	for _, s := range specs {
		out = append(out, Entry{Name: s.name, Group: group, re: regexp.MustCompile(s.expr)})
	}
	return out
}

// New compiles the default registry. It panics only if a built-in expression
// is malformed, which the package tests rule out.
func New() *Registry {
	return &Registry{
		secrets: compile(GroupSecret, []spec{
			{"aws-access-key", `AKIA[0-9A-Z]{16}`},
			{"openai-key", `sk-[a-zA-Z0-9]{48}`},
			{"openai-project-key", `sk-proj-[a-zA-Z0-9\-]{80,}`},
			{"github-pat", `ghp_[a-zA-Z0-9]{36}`},
			{"github-oauth", `gho_[a-zA-Z0-9]{36}`},
			{"github-fine-grained-pat", `github_pat_[a-zA-Z0-9]{22}_[a-zA-Z0-9]{59}`},
			{"slack-token", `xox[baprs]-[a-zA-Z0-9\-]+`},
			{"stripe-live-key", `sk_live_[a-zA-Z0-9]+`},
			{"stripe-restricted-key", `rk_live_[a-zA-Z0-9]+`},
		}),
		dangerous: compile(GroupDangerous, []spec{
			{"rm-root", `rm -rf /($|[^a-zA-Z])`},
			{"rm-root-glob", `rm -rf /\*`},
			{"rm-home", `rm -rf ~`},
			{"rm-home-glob", `rm -rf ~/\*`},
			{"rm-home-var", `rm -rf \$HOME`},
			{"rm-cwd", `rm -rf \.$`},
			{"rm-parent", `rm -rf \.\.`},
			{"rm-cwd-glob", `rm -rf \./\*`},
			{"mkfs", `mkfs`},
			{"dd-device", `dd if=.* of=/dev/`},
			{"write-device", `> /dev/sd`},
			{"chmod-root", `chmod -R 777 /`},
			{"chown-root", `chown -R .* /`},
			{"fork-bomb", `:\(\)\{ :\|:& \};:`},
			{"fork-while", `fork while fork`},
			{"history-clear", `history -c`},
			{"shred-history", `shred.*history`},
			{"force-push-main", `git push.*--force.*main`},
			{"force-push-master", `git push.*--force.*master`},
			{"force-push-f-main", `git push.*-f.*main`},
			{"force-push-f-master", `git push.*-f.*master`},
			{"reset-hard-main", `git reset --hard.*origin/main`},
			{"reset-hard-master", `git reset --hard.*origin/master`},
		}),
		varDelete: Entry{Name: "rm-variable", Group: GroupDangerWarn, re: regexp.MustCompile(`rm\s+-rf?\s+.*\$`)},

		commitMessage: regexp.MustCompile(`-m\s*["']([^"']+)["']`),
		conventional: regexp.MustCompile(
			`^(` + strings.Join(ConventionalTypes, "|") + `)(\([a-zA-Z0-9_-]+\))?: .+`),
		branchCreate:    regexp.MustCompile(`(checkout\s+-b|switch\s+-c)\s+(\S+)`),
		branchProtected: regexp.MustCompile(`^(main|master|develop|release/.+|hotfix/.+)$`),
		branchFeature:   regexp.MustCompile(`^(` + strings.Join(branchTypes, "|") + `)/[a-z0-9-]+$`),

		einsum: regexp.MustCompile(`jnp\.einsum\s*\(\s*["']([^"']+)["']`),
		vmap:   regexp.MustCompile(`jax\.(vmap|pmap)\s*\(\s*\w+\s*\)`),

		apiLibraries: []string{
			"jax", "jax.numpy", "jax.lax", "jax.random", "jax.nn",
			"flax.nnx", "flax.linen", "optax", "orbax", "orbax.checkpoint",
			"jaxtyping", "grain", "chex", "equinox", "fiddle",
			"langchain", "transformers", "anthropic", "openai",
		},
		docLibraries: []string{
			"jax", "flax", "optax", "orbax", "grain", "jaxtyping", "chex", "equinox",
			"pydantic", "fastapi", "pytest", "numpy", "pandas", "transformers",
			"torch", "pytorch", "tensorflow", "langchain", "openai", "anthropic",
			"httpx", "sqlalchemy", "redis", "celery", "aiohttp", "requests",
			"django", "flask",
		},
	}
}

// FindSecret returns the first secret shape found in text. Callers must not
// echo the matched text back.
func (r *Registry) FindSecret(text string) (Entry, bool) {
	return firstMatch(r.secrets, text)
}

// FindDangerous returns the first destructive-command shape found in command.
func (r *Registry) FindDangerous(command string) (Entry, bool) {
	return firstMatch(r.dangerous, command)
}

// IsVariableDelete reports a recursive delete whose target involves variable
// expansion. It is narrower than the dangerous set and only warrants a warning.
func (r *Registry) IsVariableDelete(command string) bool {
	return r.varDelete.MatchString(command)
}

func firstMatch(entries []Entry, text string) (Entry, bool) {
	for _, e := range entries {
		if e.MatchString(text) {
			return e, true
		}
	}
	return Entry{}, false
}

// CommitMessage extracts the first quoted -m argument of a commit command.
func (r *Registry) CommitMessage(command string) (string, bool) {
	m := r.commitMessage.FindStringSubmatch(command)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsConventional reports whether msg starts with a conventional-commit subject.
func (r *Registry) IsConventional(msg string) bool {
	return r.conventional.MatchString(msg)
}

// CreatedBranch extracts the branch name of a checkout -b / switch -c command.
func (r *Registry) CreatedBranch(command string) (string, bool) {
	m := r.branchCreate.FindStringSubmatch(command)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// IsProtectedBranchName reports names reserved for long-lived branches.
func (r *Registry) IsProtectedBranchName(name string) bool {
	return r.branchProtected.MatchString(name)
}

// IsFeatureBranchName reports names of the form type/kebab-case-description.
func (r *Registry) IsFeatureBranchName(name string) bool {
	return r.branchFeature.MatchString(name)
}

// EinsumSubscripts extracts the subscript string of a jnp.einsum call on line.
func (r *Registry) EinsumSubscripts(line string) (string, bool) {
	m := r.einsum.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsBareVmap reports a jax.vmap/pmap call with a single function argument.
// A line that mentions in_axes or out_axes anywhere is not reported.
func (r *Registry) IsBareVmap(line string) bool {
	if strings.Contains(line, "in_axes") || strings.Contains(line, "out_axes") {
		return false
	}
	return r.vmap.MatchString(line)
}

// ImportedLibraries returns the fast-evolving libraries that content imports,
// in vocabulary order. This is a substring probe, not an import parser.
func (r *Registry) ImportedLibraries(content string) []string {
	var found []string
	for _, lib := range r.apiLibraries {
		if strings.Contains(content, "from "+lib) || strings.Contains(content, "import "+lib) {
			found = append(found, lib)
		}
	}
	return found
}

// DocLibraries is the vocabulary used for documentation-lookup suggestions.
func (r *Registry) DocLibraries() []string {
	return slices.Clone(r.docLibraries)
}

// Entries lists the named recognizers in evaluation order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.secrets)+len(r.dangerous)+1)
	out = append(out, r.secrets...)
	out = append(out, r.dangerous...)
	return append(out, r.varDelete)
}
