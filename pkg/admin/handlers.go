package admin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/getmockd/sunsetd/pkg/config"
	"github.com/getmockd/sunsetd/pkg/deprecation"
	"github.com/getmockd/sunsetd/pkg/httputil"
)

// handleHealth handles GET /healthz. A draining agent answers 503 so that
// load balancers stop routing to it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Snapshot()
	resp := HealthResponse{
		Status:     "ok",
		Uptime:     s.Uptime(),
		Generation: snap.Generation,
		Endpoints:  snap.Registry.Len(),
		LoadedAt:   snap.LoadedAt,
	}
	status := http.StatusOK
	if s.agent.Draining() {
		resp.Status = "draining"
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// handleListEndpoints handles GET /endpoints.
func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	reg := s.agent.Registry()
	now := s.agent.Now()

	views := make([]EndpointView, 0, reg.Len())
	for _, ep := range reg.Endpoints() {
		views = append(views, endpointView(ep, reg.Settings(), now))
	}
	httputil.WriteOK(w, EndpointListResponse{Endpoints: views, Count: len(views), At: now})
}

// handleGetEndpoint handles GET /endpoints/{id}.
func (s *Server) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	reg := s.agent.Registry()
	id := chi.URLParam(r, "id")

	ep, ok := reg.Lookup(id)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "endpoint not found: "+id)
		return
	}
	httputil.WriteOK(w, endpointView(ep, reg.Settings(), s.agent.Now()))
}

// handleDecide handles GET /decide?method=GET&target=/path?query. It shows
// the decision a request would get without recording usage.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	method := strings.ToUpper(q.Get("method"))
	if method == "" {
		method = http.MethodGet
	}
	target := q.Get("target")
	if !strings.HasPrefix(target, "/") {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_target", "target must be an absolute path")
		return
	}

	now := s.agent.Now()
	if at := q.Get("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_time", "at must be an RFC 3339 timestamp")
			return
		}
		now = t
	}

	path, query := deprecation.SplitTarget(target)
	d := s.agent.Registry().Evaluate(deprecation.Request{Method: method, Path: path, Query: query, Now: now})
	httputil.WriteOK(w, d)
}

// handleReload handles POST /reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.agent.Reload(); err != nil {
		var result *config.ValidationResult
		if errors.As(err, &result) {
			httputil.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, "invalid_config",
				"configuration is invalid; previous configuration kept", result.Errors)
			return
		}
		httputil.WriteError(w, http.StatusUnprocessableEntity, "reload_failed", err.Error())
		return
	}

	snap := s.agent.Snapshot()
	httputil.WriteOK(w, ReloadResponse{
		Generation: snap.Generation,
		Endpoints:  snap.Registry.Len(),
		LoadedAt:   snap.LoadedAt,
	})
}

func endpointView(ep *deprecation.Endpoint, settings deprecation.Settings, now time.Time) EndpointView {
	rule := ep.Rule()
	status := deprecation.EvaluateLifecycle(&rule, now)
	action := deprecation.ResolveAction(&rule, status, settings)

	v := EndpointView{
		ID:              rule.ID,
		Path:            rule.Path,
		Methods:         rule.Methods,
		Status:          rule.Status.String(),
		EffectiveStatus: status.String(),
		Action:          string(action.Kind()),
		StatusCode:      action.StatusCode(),
		Documentation:   rule.DocumentationURL,
		TrackUsage:      rule.TrackUsage,
	}
	if !rule.DeprecatedAt.IsZero() {
		v.DeprecatedAt = &rule.DeprecatedAt
	}
	if !rule.SunsetAt.IsZero() {
		v.SunsetAt = &rule.SunsetAt
	}
	if days, ok := deprecation.DaysUntilSunset(&rule, now); ok {
		v.DaysUntilSunset = &days
	}
	if rep := rule.Replacement; rep != nil {
		v.Replacement = &ReplacementView{Path: rep.Path, PreserveQuery: rep.PreserveQuery, Method: rep.Method}
	}
	return v
}
