package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getmockd/sunsetd/pkg/agent"
	"github.com/getmockd/sunsetd/pkg/config"
	"github.com/getmockd/sunsetd/pkg/deprecation"
	"github.com/getmockd/sunsetd/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// startAgent loads the configuration at path and creates the agent. The
// metrics tracker is configured from the initial file; later reloads do not
// change metric names or labels.
func startAgent(path string, logger *slog.Logger) (*agent.Agent, error) {
	file, reg, err := config.LoadRegistry(path)
	if err != nil {
		return nil, err
	}

	var tracker *metrics.Tracker
	if file.Metrics.IsEnabled() {
		tracker, err = metrics.New(metrics.Options{
			Prefix:      file.Metrics.PrefixOrDefault(),
			ConstLabels: file.Metrics.Labels,
			Runtime:     true,
		})
		if err != nil {
			return nil, err
		}
	}

	return agent.New(preloaded(file, reg, agent.FileLoader(path)),
		agent.WithLogger(logger),
		agent.WithTracker(tracker),
	)
}

// preloaded returns a loader whose first call yields file and reg and whose
// later calls defer to next. Agent reloads are serialized, so no locking is
// needed.
func preloaded(file *config.File, reg *deprecation.Registry, next agent.Loader) agent.Loader {
	used := false
	return func() (*config.File, *deprecation.Registry, error) {
		if !used {
			used = true
			return file, reg, nil
		}
		return next()
	}
}

// reloadOnHangup reloads the agent on every SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, a *agent.Agent, logger *slog.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			logger.Info("SIGHUP received, reloading configuration")
			_ = a.Reload()
		}
	}
}

// serveHTTP runs srv on lis until ctx is done, then shuts it down.
func serveHTTP(ctx context.Context, srv *http.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	return srv.Shutdown(shutdownCtx)
}
