package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/sunsetd/pkg/config"
	"github.com/getmockd/sunsetd/pkg/deprecation"
	"github.com/getmockd/sunsetd/pkg/logging"
	"github.com/getmockd/sunsetd/pkg/metrics"
)

// ErrNoConfig is returned by Watch when the agent was not loaded from files.
var ErrNoConfig = errors.New("agent has no configuration files to watch")

// Loader produces a fresh registry. The configuration file is nil for
// registries that were not loaded from disk.
type Loader func() (*config.File, *deprecation.Registry, error)

// FileLoader loads the configuration file at path on every call.
func FileLoader(path string) Loader {
	return func() (*config.File, *deprecation.Registry, error) {
		return config.LoadRegistry(path)
	}
}

// StaticLoader always returns reg.
func StaticLoader(reg *deprecation.Registry) Loader {
	return func() (*config.File, *deprecation.Registry, error) {
		return nil, reg, nil
	}
}

// Snapshot is the registry currently serving requests. It is never modified
// after it is published.
type Snapshot struct {
	Registry   *deprecation.Registry
	Config     *config.File
	LoadedAt   time.Time
	Generation int64
}

// Request is one proxied request as seen by a transport.
type Request struct {
	Method string
	Path   string
	// Query is the raw query string without '?'.
	Query string
	// RequestID correlates log lines. One is generated when empty.
	RequestID string
}

// Agent evaluates requests against the current snapshot and swaps in new
// snapshots on reload. It is safe for concurrent use.
type Agent struct {
	load    Loader
	logger  *slog.Logger
	tracker *metrics.Tracker
	now     func() time.Time

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
	draining atomic.Bool
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logging.OrNop(logger) }
}

// WithTracker records usage into t.
func WithTracker(t *metrics.Tracker) Option {
	return func(a *Agent) { a.tracker = t }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// New creates an agent and performs the initial load. The agent is not
// returned when the initial load fails.
func New(load Loader, opts ...Option) (*Agent, error) {
	a := &Agent{
		load:   load,
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Snapshot returns the snapshot currently in service.
func (a *Agent) Snapshot() *Snapshot {
	return a.current.Load()
}

// Registry returns the registry currently in service.
func (a *Agent) Registry() *deprecation.Registry {
	return a.current.Load().Registry
}

// Tracker returns the usage tracker, which may be nil.
func (a *Agent) Tracker() *metrics.Tracker {
	return a.tracker
}

// Now returns the agent's current time.
func (a *Agent) Now() time.Time {
	return a.now()
}

// Reload builds a new registry and publishes it. On failure the previous
// snapshot keeps serving and the error is returned.
func (a *Agent) Reload() error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	file, reg, err := a.load()
	a.tracker.RecordReload(err)
	if err != nil {
		if prev := a.current.Load(); prev != nil {
			a.logger.Error("configuration reload failed, keeping previous configuration",
				"error", err, "generation", prev.Generation)
		}
		return err
	}

	var gen int64 = 1
	if prev := a.current.Load(); prev != nil {
		gen = prev.Generation + 1
	}
	now := a.now()
	snap := &Snapshot{Registry: reg, Config: file, LoadedAt: now, Generation: gen}
	a.current.Store(snap)
	a.tracker.SyncRegistry(reg, now)

	attrs := []any{"endpoints", reg.Len(), "generation", gen}
	if file != nil {
		attrs = append(attrs, "sources", file.Sources)
		for _, w := range file.Warnings {
			a.logger.Warn("configuration warning", "path", w.Path, "message", w.Message)
		}
	}
	a.logger.Info("configuration loaded", attrs...)
	return nil
}

// Handle evaluates req against the current snapshot, records usage and
// writes the access log.
func (a *Agent) Handle(ctx context.Context, req Request) deprecation.Decision {
	start := time.Now()
	snap := a.current.Load()
	now := a.now()

	d := snap.Registry.Evaluate(deprecation.Request{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Now:    now,
	})
	a.tracker.Record(req.Method, d, time.Since(start))

	if d.Fault != nil {
		a.logger.ErrorContext(ctx, "request evaluation failed",
			"endpoint_id", d.EndpointID,
			"method", req.Method,
			"path", req.Path,
			"error", d.Fault,
		)
		return d
	}
	if !d.Matched() || d.Status == deprecation.Inactive {
		return d
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if d.Status == deprecation.PastSunset {
		if ep, ok := snap.Registry.Lookup(d.EndpointID); ok {
			a.logger.WarnContext(ctx, "request to endpoint past its sunset",
				"endpoint_id", d.EndpointID,
				"sunset", ep.Rule().SunsetAt.Format(time.RFC3339),
				"request_id", requestID,
			)
		}
	}

	if snap.Registry.Settings().LogAccess {
		a.logger.LogAttrs(ctx, slog.LevelInfo, "deprecated endpoint accessed",
			slog.String("endpoint_id", d.EndpointID),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("action", string(d.Action.Kind())),
			slog.String("status", d.Status.String()),
			slog.String("request_id", requestID),
		)
	}
	return d
}

// Drain marks the agent as shutting down. Requests are still evaluated; the
// flag is reported by health checks so the host stops sending traffic.
func (a *Agent) Drain() {
	if a.draining.CompareAndSwap(false, true) {
		a.logger.Info("draining")
	}
}

// Draining reports whether Drain has been called.
func (a *Agent) Draining() bool {
	return a.draining.Load()
}

// Watch polls the configuration files of the current snapshot and reloads
// when any of them changes. It returns when ctx is done.
func (a *Agent) Watch(ctx context.Context, interval time.Duration) error {
	snap := a.current.Load()
	if snap.Config == nil || len(snap.Config.Sources) == 0 {
		return ErrNoConfig
	}

	w := config.NewWatcher(interval, snap.Config.Sources...)
	events := w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.Error != nil {
				a.logger.Warn("watch error", "path", ev.Path, "error", ev.Error)
				continue
			}
			a.logger.Info("configuration file changed", "path", ev.Path, "event", ev.Type)
			drainEvents(events)

			if err := a.Reload(); err != nil {
				continue
			}
			if cfg := a.current.Load().Config; cfg != nil {
				w.SetPaths(cfg.Sources...)
			}
		}
	}
}

// drainEvents discards events queued by the same poll so that a change to
// several files triggers one reload.
func drainEvents(events <-chan config.WatchEvent) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
