// Package pattern compiles wildcard exclusion patterns into reusable matchers.
//
// Patterns support two wildcards: '*' matches any run of characters and '?'
// matches exactly one character. Matching is case-insensitive and treats
// backslash and forward-slash path separators as equivalent, since backup
// sets routinely mix Windows and Unix style paths.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher holds a set of compiled exclusion patterns. A path is excluded if
// it matches any of them; pattern order carries no precedence.
type Matcher struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	source string
	regex  *regexp.Regexp
}

// Compile translates wildcard patterns into anchored regular expressions.
// Returns an error naming the offending pattern if any pattern cannot be
// compiled.
func Compile(patterns []string) (*Matcher, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		expr := wildcardToRegex(normalize(p))
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", p, err)
		}
		compiled = append(compiled, compiledPattern{source: p, regex: re})
	}
	return &Matcher{patterns: compiled}, nil
}

// Matches reports whether the path matches any compiled pattern. The path is
// normalized (lower-cased, backslashes converted to forward slashes) before
// matching.
func (m *Matcher) Matches(path string) bool {
	normalized := normalize(path)
	for _, p := range m.patterns {
		if p.regex.MatchString(normalized) {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher holds no patterns.
func (m *Matcher) Empty() bool {
	return len(m.patterns) == 0
}

// Patterns returns the original pattern strings in compile order.
func (m *Matcher) Patterns() []string {
	sources := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		sources[i] = p.source
	}
	return sources
}

// normalize lower-cases a path or pattern and converts backslash separators
// to forward slashes for cross-platform comparison.
func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), `\`, "/")
}

// wildcardToRegex converts a wildcard pattern to an anchored regular
// expression. Regex metacharacters are escaped, '*' becomes ".*" and '?'
// becomes ".".
func wildcardToRegex(pattern string) string {
	var sb strings.Builder
	sb.WriteByte('^')

	for _, c := range pattern {
		switch c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteByte('.')
		case '.', '^', '$', '(', ')', '[', ']', '{', '}', '|', '+', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(c)
		default:
			sb.WriteRune(c)
		}
	}

	sb.WriteByte('$')
	return sb.String()
}
