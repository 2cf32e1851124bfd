package admin

import "time"

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status     string    `json:"status"`
	Uptime     int       `json:"uptime"`
	Generation int64     `json:"generation"`
	Endpoints  int       `json:"endpoints"`
	LoadedAt   time.Time `json:"loadedAt"`
}

// EndpointView describes one rule as it applies right now.
type EndpointView struct {
	ID              string           `json:"id"`
	Path            string           `json:"path"`
	Methods         []string         `json:"methods,omitempty"`
	Status          string           `json:"status"`
	EffectiveStatus string           `json:"effectiveStatus"`
	Action          string           `json:"action"`
	StatusCode      int              `json:"statusCode,omitempty"`
	DeprecatedAt    *time.Time       `json:"deprecatedAt,omitempty"`
	SunsetAt        *time.Time       `json:"sunsetAt,omitempty"`
	DaysUntilSunset *int             `json:"daysUntilSunset,omitempty"`
	Replacement     *ReplacementView `json:"replacement,omitempty"`
	Documentation   string           `json:"documentationUrl,omitempty"`
	TrackUsage      bool             `json:"trackUsage"`
}

// ReplacementView is the successor of an endpoint.
type ReplacementView struct {
	Path          string `json:"path"`
	PreserveQuery bool   `json:"preserveQuery"`
	Method        string `json:"method,omitempty"`
}

// EndpointListResponse is returned by GET /endpoints.
type EndpointListResponse struct {
	Endpoints []EndpointView `json:"endpoints"`
	Count     int            `json:"count"`
	At        time.Time      `json:"at"`
}

// ReloadResponse is returned by a successful POST /reload.
type ReloadResponse struct {
	Generation int64     `json:"generation"`
	Endpoints  int       `json:"endpoints"`
	LoadedAt   time.Time `json:"loadedAt"`
}
