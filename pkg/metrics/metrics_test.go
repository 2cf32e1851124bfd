package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/sunsetd/pkg/deprecation"
)

func days(n int) *int { return &n }

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := New(Options{Prefix: "test", ConstLabels: map[string]string{"service": "api"}})
	require.NoError(t, err)
	return tr
}

func TestTracker_Record(t *testing.T) {
	t.Parallel()

	tr := newTracker(t)

	tr.Record("GET", deprecation.Decision{
		EndpointID:      "users",
		Status:          deprecation.Deprecated,
		Action:          deprecation.Warn{},
		DaysUntilSunset: days(30),
		TrackUsage:      true,
	}, time.Millisecond)
	tr.Record("GET", deprecation.Decision{
		EndpointID:     "users",
		Status:         deprecation.Deprecated,
		Action:         deprecation.Redirect{Code: 308},
		RedirectTarget: "/api/v2/users?active=true",
		TrackUsage:     true,
	}, time.Millisecond)
	tr.Record("DELETE", deprecation.Decision{
		EndpointID: "reports",
		Status:     deprecation.Removed,
		Action:     deprecation.Block{Code: 410},
		TrackUsage: true,
	}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(tr.requests.WithLabelValues("users", "GET", "deprecated", "warn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.requests.WithLabelValues("users", "GET", "deprecated", "redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.redirects.WithLabelValues("users", "/api/v2/users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.blocked.WithLabelValues("reports", "removed")))
	assert.Equal(t, 30.0, testutil.ToFloat64(tr.daysUntilSunset.WithLabelValues("users")))
	assert.Equal(t, 2, testutil.CollectAndCount(tr.duration))
}

func TestTracker_RecordIgnored(t *testing.T) {
	t.Parallel()

	tr := newTracker(t)

	tr.Record("GET", deprecation.Decision{Action: deprecation.PassThrough{}}, 0)
	tr.Record("GET", deprecation.Decision{EndpointID: "a", Status: deprecation.Inactive, Action: deprecation.PassThrough{}, TrackUsage: true}, 0)
	tr.Record("GET", deprecation.Decision{EndpointID: "b", Status: deprecation.Deprecated, Action: deprecation.Warn{}}, 0)

	assert.Equal(t, 0, testutil.CollectAndCount(tr.requests))
	assert.Equal(t, 0, testutil.CollectAndCount(tr.duration))
}

func TestTracker_SyncRegistry(t *testing.T) {
	t.Parallel()

	tr := newTracker(t)
	now := time.Date(2025, 5, 22, 0, 0, 0, 0, time.UTC)

	tr.daysUntilSunset.WithLabelValues("stale").Set(5)

	reg := deprecation.MustBuild([]deprecation.Rule{
		{ID: "soon", Path: "/a", SunsetAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "past", Path: "/b", SunsetAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "open-ended", Path: "/c"},
	}, deprecation.DefaultSettings())
	tr.SyncRegistry(reg, now)

	assert.Equal(t, 2, testutil.CollectAndCount(tr.daysUntilSunset))
	assert.Equal(t, 10.0, testutil.ToFloat64(tr.daysUntilSunset.WithLabelValues("soon")))
	assert.Equal(t, 0.0, testutil.ToFloat64(tr.daysUntilSunset.WithLabelValues("past")))
	assert.Equal(t, 3.0, testutil.ToFloat64(tr.endpoints))
}

func TestTracker_Exposition(t *testing.T) {
	t.Parallel()

	tr := newTracker(t)
	tr.RecordReload(nil)
	tr.RecordReload(errors.New("bad config"))

	expected := `
# HELP test_config_reloads_total Configuration reload attempts.
# TYPE test_config_reloads_total counter
test_config_reloads_total{result="false",service="api"} 1
test_config_reloads_total{result="true",service="api"} 1
`
	require.NoError(t, testutil.GatherAndCompare(tr.Registry(), strings.NewReader(expected), "test_config_reloads_total"))

	rec := httptest.NewRecorder()
	tr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `test_config_reloads_total{result="true",service="api"} 1`)
}

func TestTracker_Runtime(t *testing.T) {
	t.Parallel()

	tr, err := New(Options{Runtime: true})
	require.NoError(t, err)

	families, err := tr.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
	assert.Contains(t, names, "sunsetd_endpoints")
}

func TestTracker_Nil(t *testing.T) {
	t.Parallel()

	var tr *Tracker
	assert.NotPanics(t, func() {
		tr.Record("GET", deprecation.Decision{EndpointID: "a", TrackUsage: true, Action: deprecation.Warn{}}, 0)
		tr.SyncRegistry(nil, time.Now())
		tr.RecordReload(nil)
	})
	assert.Nil(t, tr.Registry())

	rec := httptest.NewRecorder()
	tr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
