package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/victorarias/claude-guard/internal/glob"
	"github.com/victorarias/claude-guard/internal/hook"
	"github.com/victorarias/claude-guard/internal/verdict"
)

// anchor makes a relative pattern match at any depth.
func anchor(pattern string) string {
	if strings.HasPrefix(pattern, "/") || strings.HasPrefix(pattern, "**/") {
		return pattern
	}
	return "**/" + pattern
}

func (g *Guard) protectFiles(_ context.Context, e hook.Event) verdict.Decision {
	path, ok := editedFile(e)
	if !ok {
		return verdict.Allow()
	}

	for _, pattern := range g.ProtectedFiles {
		if glob.Match(anchor(pattern), path) {
			return verdict.Block(fmt.Sprintf(
				"BLOCKED: Cannot modify protected file: %s\nPattern matched: %s\nIf you need to modify this file, please do so manually.",
				path, pattern))
		}
	}

	if e.Tool() != hook.ToolWrite {
		return verdict.Allow()
	}
	content, ok := e.Content()
	if !ok {
		return verdict.Allow()
	}
	// The matched text is never echoed back.
	if entry, found := g.Patterns.FindSecret(content); found {
		return verdict.Block(fmt.Sprintf(
			"BLOCKED: Potential secret/API key detected in file content (%s)\nPlease use environment variables or a secrets manager instead.",
			entry.Name))
	}
	return verdict.Allow()
}

func (g *Guard) largeFileCheck(_ context.Context, e hook.Event) verdict.Decision {
	switch e.Tool() {
	case hook.ToolWrite:
		content, ok := e.Content()
		if !ok {
			return verdict.Allow()
		}
		path, ok := e.FilePath()
		if !ok {
			path = "unknown"
		}
		return g.checkWriteSize(path, content)

	case hook.ToolEdit:
		replacement, ok := e.NewString()
		if ok && len(replacement) > g.Limits.WarnEditBytes {
			return verdict.Warn(fmt.Sprintf(
				"WARNING: Large edit detected (%dKB replacement)\nConsider breaking into smaller edits.",
				len(replacement)/1024))
		}
	}
	return verdict.Allow()
}

func (g *Guard) checkWriteSize(path, content string) verdict.Decision {
	size := len(content)
	switch {
	case size > g.Limits.BlockWriteBytes:
		return verdict.Block(fmt.Sprintf(
			"BLOCKED: File content too large (%dMB)\nThis is likely a mistake. If intentional, write manually.",
			size/(1<<20)))
	case size > g.Limits.WarnWriteBytes:
		return verdict.Warn(fmt.Sprintf(
			"WARNING: Large file write detected\nFile: %s\nSize: %dKB\n\nConsider:\n  - Breaking into smaller files\n  - Using external data storage\n  - Generating programmatically instead of hardcoding",
			path, size/1024))
	case size > g.Limits.BinaryMinBytes:
		if ratio := nonPrintablePercent(content, g.Limits.BinarySampleBytes); ratio > g.Limits.BinaryRatioPercent {
			return verdict.Warn(fmt.Sprintf(
				"WARNING: Content appears to contain binary data (%d%% non-printable)\nFile: %s",
				ratio, path))
		}
	}
	return verdict.Allow()
}

// nonPrintablePercent samples the first n bytes of s and returns the share of
// control bytes other than tab, newline and carriage return.
func nonPrintablePercent(s string, n int) int {
	if n > len(s) {
		n = len(s)
	}
	if n == 0 {
		return 0
	}
	count := 0
	for i := 0; i < n; i++ {
		b := s[i]
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			count++
		}
	}
	return count * 100 / n
}

var (
	testFileMarkers  = []string{"test_", "_test.", "/tests/"}
	testFileSuffixes = []string{
		"Test.java", "Test.ts", "Test.tsx",
		".test.ts", ".test.tsx", ".test.js",
		".spec.ts", ".spec.js",
	}
)

// IsTestFile reports whether path follows a common test naming convention.
func IsTestFile(path string) bool {
	for _, m := range testFileMarkers {
		if strings.Contains(path, m) {
			return true
		}
	}
	for _, s := range testFileSuffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

func (g *Guard) testFileGuard(_ context.Context, e hook.Event) verdict.Decision {
	path, ok := editedFile(e)
	if !ok || !IsTestFile(path) {
		return verdict.Allow()
	}
	return verdict.Warn("NOTE: Editing test file. Remember to run tests before committing.")
}

func (g *Guard) verifyAPICalls(_ context.Context, e hook.Event) verdict.Decision {
	path, ok := editedFile(e)
	if !ok || !strings.HasSuffix(path, ".py") {
		return verdict.Allow()
	}
	text, _ := e.EditedText()
	libs := g.Patterns.ImportedLibraries(text)
	if len(libs) == 0 {
		return verdict.Allow()
	}
	return verdict.Warn(fmt.Sprintf(
		"NOTE: Code uses APIs from: %s\nThese libraries have complex/evolving APIs. Consider verifying function signatures with Context7 MCP if unsure.",
		strings.Join(libs, ", ")))
}
