package matching

import "strings"

// MethodSet is an immutable set of HTTP method tokens. The zero value
// matches every method.
type MethodSet struct {
	methods map[string]struct{}
}

// NewMethodSet builds a MethodSet from method tokens. Tokens are compared
// case-insensitively; blank tokens are ignored.
func NewMethodSet(methods ...string) MethodSet {
	set := MethodSet{}
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if set.methods == nil {
			set.methods = make(map[string]struct{}, len(methods))
		}
		set.methods[m] = struct{}{}
	}
	return set
}

// Any reports whether the set matches every method.
func (s MethodSet) Any() bool { return len(s.methods) == 0 }

// Match reports whether method is in the set.
func (s MethodSet) Match(method string) bool {
	if len(s.methods) == 0 {
		return true
	}
	_, ok := s.methods[strings.ToUpper(method)]
	return ok
}

// List returns the upper-cased methods in no particular order.
func (s MethodSet) List() []string {
	out := make([]string, 0, len(s.methods))
	for m := range s.methods {
		out = append(out, m)
	}
	return out
}
