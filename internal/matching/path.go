package matching

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern compilation errors.
var (
	ErrEmptyPattern = errors.New("pattern is empty")
	ErrNotAbsolute  = errors.New("pattern must start with /")
	ErrBadGlob      = errors.New("malformed glob segment")
)

// globMeta are the characters that turn a segment into a glob.
const globMeta = `*?[{\`

// CompileError reports a pattern that could not be compiled.
type CompileError struct {
	Pattern string
	Segment string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("invalid path pattern %q (segment %q): %v", e.Pattern, e.Segment, e.Err)
	}
	return fmt.Sprintf("invalid path pattern %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// segment is one /-delimited position of a compiled pattern.
type segment struct {
	text string
	glob bool
}

func (s segment) match(part string) bool {
	if !s.glob {
		return s.text == part
	}
	// Validated at compile time, and part never contains a separator,
	// so * cannot cross into the next segment.
	ok, err := doublestar.Match(s.text, part)
	return err == nil && ok
}

// PathMatcher is a compiled path pattern. It is immutable and safe for
// concurrent use.
//
// Supported syntax:
//   - Literal segments: "/api/v1/users" matches only "/api/v1/users"
//   - Segment globs: "/api/*/users" or "/files/report-*.csv" match within one segment
//   - Trailing wildcard: "/legacy/*" matches "/legacy/" and anything below it,
//     including further segments such as "/legacy/a/b"
type PathMatcher struct {
	pattern  string
	segments []segment
	tail     bool
	literal  bool
}

// CompilePath compiles a glob-style path pattern.
func CompilePath(pattern string) (*PathMatcher, error) {
	if pattern == "" {
		return nil, &CompileError{Pattern: pattern, Err: ErrEmptyPattern}
	}
	if pattern[0] != '/' {
		return nil, &CompileError{Pattern: pattern, Err: ErrNotAbsolute}
	}

	parts := strings.Split(pattern[1:], "/")
	m := &PathMatcher{pattern: pattern}

	if last := parts[len(parts)-1]; last == "*" || last == "**" {
		m.tail = true
		parts = parts[:len(parts)-1]
	}

	m.segments = make([]segment, 0, len(parts))
	literal := !m.tail
	for _, part := range parts {
		if !strings.ContainsAny(part, globMeta) {
			m.segments = append(m.segments, segment{text: part})
			continue
		}
		if !doublestar.ValidatePattern(part) {
			return nil, &CompileError{Pattern: pattern, Segment: part, Err: ErrBadGlob}
		}
		m.segments = append(m.segments, segment{text: part, glob: true})
		literal = false
	}
	m.literal = literal

	return m, nil
}

// MustCompilePath is like CompilePath but panics on error.
// Intended for tests and package-level patterns.
func MustCompilePath(pattern string) *PathMatcher {
	m, err := CompilePath(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern returns the source pattern.
func (m *PathMatcher) Pattern() string { return m.pattern }

func (m *PathMatcher) String() string { return m.pattern }

// Match reports whether path matches the pattern. Matching is case-sensitive
// and path must not carry a query string.
func (m *PathMatcher) Match(path string) bool {
	if m.literal {
		return path == m.pattern
	}
	if path == "" || path[0] != '/' {
		return false
	}

	parts := strings.Split(path[1:], "/")
	if m.tail {
		// At least one (possibly empty) segment must follow the prefix.
		if len(parts) <= len(m.segments) {
			return false
		}
	} else if len(parts) != len(m.segments) {
		return false
	}

	for i, s := range m.segments {
		if !s.match(parts[i]) {
			return false
		}
	}
	return true
}
