// Package glob matches forward-slash paths against shell-style patterns.
//
// Supported syntax is deliberately small: literals, '?' (one character),
// '*' (any run of characters within one path segment) and '**' (any run of
// characters, including '/'). A '/' directly after '**' is optional, so
// "**/x" matches "x" as well as "a/b/x", but "**/" only ever spans whole
// segments: "**/x" does not match "ax". Character classes and brace
// expansion are not supported.
//
// Matching is anchored at both ends. Wildcards backtrack shortest-first; the
// split order does not change the result, only how soon a match is found.
package glob

// Match reports whether path matches pattern in its entirety.
func Match(pattern, path string) bool {
	return match([]rune(pattern), []rune(path))
}

// MatchAny returns the first pattern that matches path.
func MatchAny(patterns []string, path string) (string, bool) {
	for _, p := range patterns {
		if Match(p, path) {
			return p, true
		}
	}
	return "", false
}

func match(pattern, path []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			if len(pattern) > 1 && pattern[1] == '*' {
				return matchSuper(pattern[2:], path)
			}
			return matchStar(pattern[1:], path)
		case '?':
			if len(path) == 0 {
				return false
			}
		default:
			if len(path) == 0 || path[0] != pattern[0] {
				return false
			}
		}
		pattern = pattern[1:]
		path = path[1:]
	}
	return len(path) == 0
}

// matchStar handles a single '*': it may consume characters up to, but not
// including, the next '/'.
func matchStar(rest, path []rune) bool {
	for i := 0; i <= len(path); i++ {
		if match(rest, path[i:]) {
			return true
		}
		if i < len(path) && path[i] == '/' {
			return false
		}
	}
	return false
}

// matchSuper handles '**': it may consume any characters, including '/'.
// When followed by '/', it resumes only at the start of a segment.
func matchSuper(rest, path []rune) bool {
	segments := len(rest) > 0 && rest[0] == '/'
	if segments {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return true
	}
	for i := 0; i <= len(path); i++ {
		if segments && i > 0 && path[i-1] != '/' {
			continue
		}
		if match(rest, path[i:]) {
			return true
		}
	}
	return false
}
