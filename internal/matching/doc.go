// Package matching provides request matching primitives for deprecation rules.
//
// Patterns are compiled once into immutable matchers and evaluated many times:
//
//   - PathMatcher: glob-style path patterns evaluated per /-delimited segment
//   - MethodSet: case-insensitive HTTP method filter (empty matches any method)
//
// A "*" inside a segment matches any substring of that segment only. A final
// segment consisting solely of "*" matches the whole remaining suffix, so
// "/legacy/*" matches "/legacy/anything/nested". Segment globs are evaluated
// with doublestar, so "?", character classes and {a,b} alternatives also work
// within a single segment.
//
// Key types:
//
//   - PathMatcher: compiled path pattern, created with CompilePath
//   - MethodSet: compiled method filter, created with NewMethodSet
//   - CompileError: returned for empty, relative or malformed patterns
package matching
