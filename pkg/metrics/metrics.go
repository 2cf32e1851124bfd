package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmockd/sunsetd/pkg/deprecation"
)

// DefaultPrefix is the metric name prefix used when none is configured.
const DefaultPrefix = "sunsetd"

// Options configure a Tracker.
type Options struct {
	// Prefix is prepended to every metric name. Defaults to DefaultPrefix.
	Prefix string
	// ConstLabels are added to every metric.
	ConstLabels map[string]string
	// Runtime registers the Go runtime and process collectors.
	Runtime bool
}

// Tracker records usage of deprecated endpoints.
//
// A nil *Tracker is valid and records nothing, which is how disabled
// metrics are represented.
type Tracker struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	redirects       *prometheus.CounterVec
	blocked         *prometheus.CounterVec
	daysUntilSunset *prometheus.GaugeVec
	duration        *prometheus.HistogramVec
	reloads         *prometheus.CounterVec
	endpoints       prometheus.Gauge
}

// New creates a Tracker with its own registry.
func New(opts Options) (*Tracker, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	labels := prometheus.Labels(opts.ConstLabels)

	t := &Tracker{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        prefix + "_requests_total",
			Help:        "Requests that matched a deprecated endpoint.",
			ConstLabels: labels,
		}, []string{"endpoint_id", "method", "status", "action"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        prefix + "_redirects_total",
			Help:        "Requests redirected to a replacement endpoint.",
			ConstLabels: labels,
		}, []string{"endpoint_id", "to_path"}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        prefix + "_blocked_total",
			Help:        "Requests answered without reaching the upstream.",
			ConstLabels: labels,
		}, []string{"endpoint_id", "reason"}),
		daysUntilSunset: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        prefix + "_days_until_sunset",
			Help:        "Whole days left until the endpoint's sunset date; 0 once past.",
			ConstLabels: labels,
		}, []string{"endpoint_id"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        prefix + "_request_duration_seconds",
			Help:        "Time spent evaluating requests to deprecated endpoints.",
			ConstLabels: labels,
			Buckets:     []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}, []string{"endpoint_id"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        prefix + "_config_reloads_total",
			Help:        "Configuration reload attempts.",
			ConstLabels: labels,
		}, []string{"result"}),
		endpoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        prefix + "_endpoints",
			Help:        "Deprecated endpoints in the active configuration.",
			ConstLabels: labels,
		}),
	}

	cs := []prometheus.Collector{
		t.requests, t.redirects, t.blocked, t.daysUntilSunset, t.duration, t.reloads, t.endpoints,
	}
	if opts.Runtime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, c := range cs {
		if err := t.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Record counts one evaluated request. Unmatched, inactive and untracked
// decisions are ignored.
func (t *Tracker) Record(method string, d deprecation.Decision, elapsed time.Duration) {
	if t == nil || !d.Matched() || !d.TrackUsage || d.Status == deprecation.Inactive {
		return
	}

	action := "pass_through"
	if d.Action != nil {
		action = string(d.Action.Kind())
	}
	t.requests.WithLabelValues(d.EndpointID, method, d.Status.String(), action).Inc()
	t.duration.WithLabelValues(d.EndpointID).Observe(elapsed.Seconds())

	if d.DaysUntilSunset != nil {
		t.daysUntilSunset.WithLabelValues(d.EndpointID).Set(float64(*d.DaysUntilSunset))
	}

	switch d.Action.(type) {
	case deprecation.Redirect:
		to, _ := deprecation.SplitTarget(d.RedirectTarget)
		t.redirects.WithLabelValues(d.EndpointID, to).Inc()
	case deprecation.Block, deprecation.Custom:
		t.blocked.WithLabelValues(d.EndpointID, d.Status.String()).Inc()
	}
}

// SyncRegistry resets the per-endpoint gauges to match reg: every rule with
// a sunset date gets a days-until-sunset value as of now.
func (t *Tracker) SyncRegistry(reg *deprecation.Registry, now time.Time) {
	if t == nil || reg == nil {
		return
	}
	t.daysUntilSunset.Reset()
	for _, ep := range reg.Endpoints() {
		rule := ep.Rule()
		if days, ok := deprecation.DaysUntilSunset(&rule, now); ok {
			t.daysUntilSunset.WithLabelValues(rule.ID).Set(float64(days))
		}
	}
	t.endpoints.Set(float64(reg.Len()))
}

// RecordReload counts a configuration reload attempt.
func (t *Tracker) RecordReload(err error) {
	if t == nil {
		return
	}
	t.reloads.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (t *Tracker) Handler() http.Handler {
	if t == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (t *Tracker) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}
