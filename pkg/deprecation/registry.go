package deprecation

import (
	"errors"
	"fmt"

	"github.com/getmockd/sunsetd/internal/matching"
)

// Endpoint is a rule together with its compiled matchers.
type Endpoint struct {
	rule    Rule
	path    *matching.PathMatcher
	methods matching.MethodSet
}

// ID returns the rule id.
func (e *Endpoint) ID() string { return e.rule.ID }

// Rule returns a copy of the endpoint's rule.
func (e *Endpoint) Rule() Rule { return e.rule.clone() }

// Matches reports whether method and path select this endpoint.
func (e *Endpoint) Matches(method, path string) bool {
	return e.methods.Match(method) && e.path.Match(path)
}

// Registry is an immutable, ordered set of endpoints. It is safe for
// concurrent use; a reload builds a new Registry instead of changing one.
type Registry struct {
	endpoints []*Endpoint
	byID      map[string]*Endpoint
	settings  Settings
}

// Build validates rules and compiles them into a Registry. Declaration order
// is preserved and decides which rule wins when patterns overlap.
//
// The first invalid rule stops the build with a *ConfigError.
func Build(rules []Rule, settings Settings) (*Registry, error) {
	reg := &Registry{
		endpoints: make([]*Endpoint, 0, len(rules)),
		byID:      make(map[string]*Endpoint, len(rules)),
		settings:  settings.withDefaults(),
	}

	for i := range rules {
		ep, err := compileRule(i, rules[i])
		if err != nil {
			return nil, err
		}
		if _, dup := reg.byID[ep.rule.ID]; dup {
			return nil, &ConfigError{Index: i, ID: ep.rule.ID, Field: "id", Err: ErrDuplicateID}
		}
		reg.byID[ep.rule.ID] = ep
		reg.endpoints = append(reg.endpoints, ep)
	}

	return reg, nil
}

// MustBuild is like Build but panics on error. Intended for tests.
func MustBuild(rules []Rule, settings Settings) *Registry {
	reg, err := Build(rules, settings)
	if err != nil {
		panic(err)
	}
	return reg
}

func compileRule(index int, rule Rule) (*Endpoint, error) {
	rule = rule.clone()
	fail := func(field string, err error) error {
		return &ConfigError{Index: index, ID: rule.ID, Field: field, Err: err}
	}

	if rule.ID == "" {
		return nil, fail("id", ErrEmptyID)
	}

	pm, err := matching.CompilePath(rule.Path)
	if err != nil {
		var ce *matching.CompileError
		if errors.As(err, &ce) {
			return nil, fail("path", fmt.Errorf("%w: %w", ErrInvalidPattern, ce))
		}
		return nil, fail("path", fmt.Errorf("%w: %w", ErrInvalidPattern, err))
	}

	if !rule.DeprecatedAt.IsZero() && !rule.SunsetAt.IsZero() && rule.SunsetAt.Before(rule.DeprecatedAt) {
		return nil, fail("sunset_at", ErrSunsetBeforeDeprecation)
	}

	if rule.Replacement != nil && rule.Replacement.Path == "" {
		return nil, fail("replacement.path", ErrEmptyReplacementPath)
	}

	switch a := rule.Action.(type) {
	case nil, Warn, Block:
	case Redirect:
		if rule.Replacement == nil {
			return nil, fail("replacement", ErrMissingReplacement)
		}
		if a.Code < 300 || a.Code > 399 {
			return nil, fail("action.status_code", fmt.Errorf("%w: %d", ErrInvalidStatusCode, a.Code))
		}
	case Custom:
		if a.Code < 100 || a.Code > 599 {
			return nil, fail("action.status_code", fmt.Errorf("%w: %d", ErrInvalidStatusCode, a.Code))
		}
	case PassThrough:
		return nil, fail("action.type", fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind()))
	default:
		return nil, fail("action.type", fmt.Errorf("%w: %T", ErrUnknownAction, a))
	}

	return &Endpoint{
		rule:    rule,
		path:    pm,
		methods: matching.NewMethodSet(rule.Methods...),
	}, nil
}

// Resolve returns the first endpoint, in declaration order, matching method
// and path, or nil when none does.
func (r *Registry) Resolve(method, path string) *Endpoint {
	for _, ep := range r.endpoints {
		if ep.Matches(method, path) {
			return ep
		}
	}
	return nil
}

// Lookup returns the endpoint with the given id.
func (r *Registry) Lookup(id string) (*Endpoint, bool) {
	ep, ok := r.byID[id]
	return ep, ok
}

// Endpoints returns the endpoints in declaration order.
func (r *Registry) Endpoints() []*Endpoint {
	out := make([]*Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Settings returns the registry's settings.
func (r *Registry) Settings() Settings { return r.settings }

// Len returns the number of endpoints.
func (r *Registry) Len() int { return len(r.endpoints) }
