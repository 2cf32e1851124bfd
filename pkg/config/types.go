package config

// File is the on-disk configuration of the deprecation agent.
type File struct {
	// Endpoints are tried in order; the first match wins.
	Endpoints []EndpointConfig `yaml:"endpoints" json:"endpoints"`
	Settings  SettingsConfig   `yaml:"settings" json:"settings"`
	Metrics   MetricsConfig    `yaml:"metrics" json:"metrics"`
	// Include lists glob patterns of extra endpoint files, relative to the
	// file that declares them. Included endpoints are appended in path order.
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`

	// Sources are the files this configuration was read from, the main file
	// first.
	Sources []string `yaml:"-" json:"-"`
	// Warnings found by Load. They do not prevent use of the file.
	Warnings []ValidationError `yaml:"-" json:"-"`
}

// EndpointConfig declares one deprecated endpoint.
type EndpointConfig struct {
	ID      string   `yaml:"id" json:"id"`
	Path    string   `yaml:"path" json:"path"`
	Methods []string `yaml:"methods,omitempty" json:"methods,omitempty"`
	// Status is deprecated, scheduled or removed. Defaults to deprecated.
	Status string `yaml:"status,omitempty" json:"status,omitempty"`
	// DeprecatedAt and SunsetAt are RFC 3339 timestamps or YYYY-MM-DD dates.
	DeprecatedAt     string             `yaml:"deprecated_at,omitempty" json:"deprecated_at,omitempty"`
	SunsetAt         string             `yaml:"sunset_at,omitempty" json:"sunset_at,omitempty"`
	Replacement      *ReplacementConfig `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	DocumentationURL string             `yaml:"documentation_url,omitempty" json:"documentation_url,omitempty"`
	Message          string             `yaml:"message,omitempty" json:"message,omitempty"`
	Action           *ActionConfig      `yaml:"action,omitempty" json:"action,omitempty"`
	Headers          map[string]string  `yaml:"headers,omitempty" json:"headers,omitempty"`
	// TrackUsage defaults to true.
	TrackUsage *bool `yaml:"track_usage,omitempty" json:"track_usage,omitempty"`
}

// ReplacementConfig points at the successor endpoint.
type ReplacementConfig struct {
	Path string `yaml:"path" json:"path"`
	// PreserveQuery defaults to true.
	PreserveQuery *bool  `yaml:"preserve_query,omitempty" json:"preserve_query,omitempty"`
	Method        string `yaml:"method,omitempty" json:"method,omitempty"`
}

// ActionConfig selects what happens to matching requests.
type ActionConfig struct {
	// Type is warn, redirect, block or custom.
	Type        string `yaml:"type" json:"type"`
	StatusCode  int    `yaml:"status_code,omitempty" json:"status_code,omitempty"`
	Body        string `yaml:"body,omitempty" json:"body,omitempty"`
	ContentType string `yaml:"content_type,omitempty" json:"content_type,omitempty"`
}

// SettingsConfig holds process-wide options.
type SettingsConfig struct {
	DeprecationHeader string `yaml:"deprecation_header,omitempty" json:"deprecation_header,omitempty"`
	SunsetHeader      string `yaml:"sunset_header,omitempty" json:"sunset_header,omitempty"`
	LinkHeader        string `yaml:"link_header,omitempty" json:"link_header,omitempty"`
	NoticeHeader      string `yaml:"notice_header,omitempty" json:"notice_header,omitempty"`
	IncludeHeaders    *bool  `yaml:"include_headers,omitempty" json:"include_headers,omitempty"`
	// PastSunsetAction is warn, block or redirect. Defaults to warn.
	PastSunsetAction string `yaml:"past_sunset_action,omitempty" json:"past_sunset_action,omitempty"`
	LogAccess        *bool  `yaml:"log_access,omitempty" json:"log_access,omitempty"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Prefix  string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	// Labels are constant labels added to every metric.
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	// Port serves /metrics on its own listener when non-zero.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`
}

// DefaultMetricsPrefix is the metric name prefix used when none is set.
const DefaultMetricsPrefix = "sunsetd"

// IsEnabled reports whether metrics are enabled. Defaults to true.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// PrefixOrDefault returns the configured prefix or DefaultMetricsPrefix.
func (m MetricsConfig) PrefixOrDefault() string {
	if m.Prefix == "" {
		return DefaultMetricsPrefix
	}
	return m.Prefix
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
