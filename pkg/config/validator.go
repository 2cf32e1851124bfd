package config

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/getmockd/sunsetd/internal/matching"
	"github.com/getmockd/sunsetd/pkg/deprecation"
)

// ValidationError is a single configuration problem.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // Config path, e.g., "endpoints[0].sunset_at"
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult collects every problem found in a configuration.
// Warnings do not make a configuration invalid.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(path, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Path: path, Message: message})
}

// metricNamePattern is the Prometheus metric name syntax.
var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// labelNamePattern is the Prometheus label name syntax.
var labelNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks a configuration against the rules the registry enforces,
// reporting every problem rather than stopping at the first.
func Validate(f *File) *ValidationResult {
	return validateAt(f, time.Now())
}

func validateAt(f *File, now time.Time) *ValidationResult {
	result := &ValidationResult{}

	ids := make(map[string]int, len(f.Endpoints))
	for i := range f.Endpoints {
		path := fmt.Sprintf("endpoints[%d]", i)
		validateEndpoint(&f.Endpoints[i], path, ids, i, now, result)
	}

	validateSettings(&f.Settings, result)
	validateMetrics(&f.Metrics, result)

	return result
}

func validateEndpoint(ep *EndpointConfig, path string, ids map[string]int, index int, now time.Time, result *ValidationResult) {
	if ep.ID == "" {
		result.AddError(path+".id", "required")
	} else {
		if first, dup := ids[ep.ID]; dup {
			result.AddError(path+".id", fmt.Sprintf("duplicate endpoint id %q (first declared at endpoints[%d])", ep.ID, first))
		} else {
			ids[ep.ID] = index
		}
	}

	if _, err := matching.CompilePath(ep.Path); err != nil {
		result.AddError(path+".path", err.Error())
	}

	for j, m := range ep.Methods {
		if strings.TrimSpace(m) == "" {
			result.AddError(fmt.Sprintf("%s.methods[%d]", path, j), "empty method")
		}
	}

	status, err := deprecation.ParseStatus(ep.Status)
	if err != nil {
		result.AddError(path+".status", err.Error())
	}

	deprecatedAt, err := parseTimestamp(ep.DeprecatedAt)
	if err != nil {
		result.AddError(path+".deprecated_at", err.Error())
	}
	sunsetAt, err := parseTimestamp(ep.SunsetAt)
	if err != nil {
		result.AddError(path+".sunset_at", err.Error())
	}
	if !deprecatedAt.IsZero() && !sunsetAt.IsZero() && sunsetAt.Before(deprecatedAt) {
		result.AddError(path+".sunset_at", deprecation.ErrSunsetBeforeDeprecation.Error())
	}
	if status == deprecation.StatusDeprecated && !sunsetAt.IsZero() && sunsetAt.Before(now) {
		result.AddWarning(path+".sunset_at", "sunset date is in the past but status is still \"deprecated\"")
	}
	if status == deprecation.StatusScheduled && deprecatedAt.IsZero() {
		result.AddWarning(path+".deprecated_at", "scheduled endpoint without deprecated_at is active immediately")
	}

	if ep.Replacement != nil && ep.Replacement.Path == "" {
		result.AddError(path+".replacement.path", "required")
	}

	if ep.DocumentationURL != "" {
		if _, err := url.Parse(ep.DocumentationURL); err != nil {
			result.AddError(path+".documentation_url", fmt.Sprintf("invalid URL: %v", err))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(ep.Headers)) {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " :\r\n") {
			result.AddError(path+".headers", fmt.Sprintf("invalid header name %q", name))
		}
	}

	if ep.Action != nil {
		action, err := ep.Action.toAction()
		if err != nil {
			field := ".action.type"
			if errors.Is(err, deprecation.ErrInvalidStatusCode) {
				field = ".action.status_code"
			}
			result.AddError(path+field, err.Error())
		}
		if _, ok := action.(deprecation.Redirect); ok && ep.Replacement == nil {
			result.AddError(path+".replacement", "required when action.type is redirect")
		}
	}
}

func validateSettings(s *SettingsConfig, result *ValidationResult) {
	if _, err := deprecation.ParsePastSunsetAction(s.PastSunsetAction); err != nil {
		result.AddError("settings.past_sunset_action", err.Error())
	}
	headers := []struct{ path, name string }{
		{"settings.deprecation_header", s.DeprecationHeader},
		{"settings.sunset_header", s.SunsetHeader},
		{"settings.link_header", s.LinkHeader},
		{"settings.notice_header", s.NoticeHeader},
	}
	for _, h := range headers {
		if strings.ContainsAny(h.name, " :\r\n") {
			result.AddError(h.path, fmt.Sprintf("invalid header name %q", h.name))
		}
	}
}

func validateMetrics(m *MetricsConfig, result *ValidationResult) {
	if m.Prefix != "" && !metricNamePattern.MatchString(m.Prefix) {
		result.AddError("metrics.prefix", fmt.Sprintf("invalid metric name prefix %q", m.Prefix))
	}
	for _, name := range slices.Sorted(maps.Keys(m.Labels)) {
		if !labelNamePattern.MatchString(name) || strings.HasPrefix(name, "__") {
			result.AddError("metrics.labels", fmt.Sprintf("invalid label name %q", name))
		}
	}
	if m.Port < 0 || m.Port > 65535 {
		result.AddError("metrics.port", fmt.Sprintf("invalid port %d, must be 0-65535", m.Port))
	}
}

// parseTimestamp accepts RFC 3339 timestamps and YYYY-MM-DD dates (UTC
// midnight). An empty string yields the zero time.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want RFC 3339 or YYYY-MM-DD", s)
}
