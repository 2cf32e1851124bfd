package deprecation

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Status is the declared lifecycle status of an endpoint rule.
type Status int

const (
	// StatusDeprecated means the endpoint still works but is deprecated.
	StatusDeprecated Status = iota
	// StatusScheduled means the deprecation takes effect at DeprecatedAt.
	StatusScheduled
	// StatusRemoved means the endpoint is gone, regardless of timestamps.
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusDeprecated:
		return "deprecated"
	case StatusScheduled:
		return "scheduled"
	case StatusRemoved:
		return "removed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus parses a configuration status value.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deprecated":
		return StatusDeprecated, nil
	case "scheduled":
		return StatusScheduled, nil
	case "removed":
		return StatusRemoved, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// EffectiveStatus is the time-dependent state of a rule.
type EffectiveStatus int

const (
	// Inactive rules are registered but not yet in effect.
	Inactive EffectiveStatus = iota
	// Deprecated rules are in effect and before their sunset.
	Deprecated
	// PastSunset rules are in effect and after their sunset.
	PastSunset
	// Removed rules have a declared status of removed.
	Removed
)

func (s EffectiveStatus) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Deprecated:
		return "deprecated"
	case PastSunset:
		return "past_sunset"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("EffectiveStatus(%d)", int(s))
	}
}

// PastSunsetAction is the process-wide policy applied once a rule's sunset
// has passed.
type PastSunsetAction int

const (
	PastSunsetWarn PastSunsetAction = iota
	PastSunsetBlock
	PastSunsetRedirect
)

func (a PastSunsetAction) String() string {
	switch a {
	case PastSunsetWarn:
		return "warn"
	case PastSunsetBlock:
		return "block"
	case PastSunsetRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("PastSunsetAction(%d)", int(a))
	}
}

// ParsePastSunsetAction parses a past_sunset_action setting.
func ParsePastSunsetAction(s string) (PastSunsetAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return PastSunsetWarn, nil
	case "block":
		return PastSunsetBlock, nil
	case "redirect":
		return PastSunsetRedirect, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPastSunsetAction, s)
	}
}

// Replacement describes the successor of a deprecated endpoint.
type Replacement struct {
	Path          string
	PreserveQuery bool
	// Method is informational; it is passed through to the decision.
	Method string
}

// Rule is a declared deprecated endpoint. Rules are plain values; Build
// copies and compiles them into an immutable Registry.
type Rule struct {
	ID      string
	Path    string
	Methods []string
	Status  Status

	// Zero values mean "not set".
	DeprecatedAt time.Time
	SunsetAt     time.Time

	Replacement      *Replacement
	DocumentationURL string
	Message          string

	// Action defaults to Warn when nil.
	Action Action

	// Headers are extra response headers added after the standard ones.
	Headers map[string]string

	TrackUsage bool
}

func (r Rule) clone() Rule {
	out := r
	out.Methods = slices.Clone(r.Methods)
	out.Headers = maps.Clone(r.Headers)
	if r.Replacement != nil {
		rep := *r.Replacement
		out.Replacement = &rep
	}
	return out
}

// Default header names.
const (
	DefaultDeprecationHeader = "Deprecation"
	DefaultSunsetHeader      = "Sunset"
	DefaultLinkHeader        = "Link"
	DefaultNoticeHeader      = "X-Deprecation-Notice"
)

// Settings are process-wide options shared by every rule in a registry.
type Settings struct {
	DeprecationHeader string
	SunsetHeader      string
	LinkHeader        string
	NoticeHeader      string

	IncludeHeaders   bool
	PastSunsetAction PastSunsetAction
	LogAccess        bool
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		DeprecationHeader: DefaultDeprecationHeader,
		SunsetHeader:      DefaultSunsetHeader,
		LinkHeader:        DefaultLinkHeader,
		NoticeHeader:      DefaultNoticeHeader,
		IncludeHeaders:    true,
		PastSunsetAction:  PastSunsetWarn,
		LogAccess:         true,
	}
}

// withDefaults fills blank header names.
func (s Settings) withDefaults() Settings {
	if s.DeprecationHeader == "" {
		s.DeprecationHeader = DefaultDeprecationHeader
	}
	if s.SunsetHeader == "" {
		s.SunsetHeader = DefaultSunsetHeader
	}
	if s.LinkHeader == "" {
		s.LinkHeader = DefaultLinkHeader
	}
	if s.NoticeHeader == "" {
		s.NoticeHeader = DefaultNoticeHeader
	}
	return s
}

// Request is the normalized description of one proxied request.
type Request struct {
	Method string
	Path   string
	// Query is the raw query string without the leading '?'.
	Query string
	// Now is the evaluation time. A zero value means time.Now().
	Now time.Time
}

// SplitTarget splits a request target such as "/a/b?x=1" into path and raw query.
func SplitTarget(target string) (path, query string) {
	path, query, _ = strings.Cut(target, "?")
	return path, query
}

// Header is a single response header.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered list of response headers.
type Headers []Header

// Get returns the value of the first header named name (case-insensitive).
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Map returns the headers as a map. Later duplicates win.
func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h))
	for _, hdr := range h {
		out[hdr.Name] = hdr.Value
	}
	return out
}
