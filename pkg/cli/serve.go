package cli

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/getmockd/sunsetd/pkg/admin"
	"github.com/getmockd/sunsetd/pkg/config"
	"github.com/getmockd/sunsetd/pkg/extauthz"
)

var (
	serveSocket        string
	serveGRPCAddress   string
	serveAdminAddress  string
	serveWatch         bool
	serveWatchInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Envoy external authorization service",
	Long: `Run sunsetd as an Envoy external authorization (ext_authz) gRPC service.

Envoy's ext_authz filter sends every request to sunsetd. Deprecated
endpoints get their deprecation headers on the response; redirected and
blocked endpoints are answered by Envoy with the configured response.

The configuration is reloaded on SIGHUP, on POST /reload to the admin API,
and, with --watch, whenever a configuration file changes. A configuration
that fails to load is reported and the previous one stays in effect.`,
	Example: `  # Listen on the default unix socket
  sunsetd serve -c sunsetd.yaml

  # Listen on TCP as well and reload on file changes
  sunsetd serve -c sunsetd.yaml --grpc-address :9001 --watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSocket, "socket", extauthz.DefaultSocket, "Unix socket for the gRPC service (empty to disable)")
	serveCmd.Flags().StringVar(&serveGRPCAddress, "grpc-address", "", "TCP address for the gRPC service, e.g. :9001")
	serveCmd.Flags().StringVar(&serveAdminAddress, "admin-address", "127.0.0.1:9090", "Admin API address (empty to disable)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload when configuration files change")
	serveCmd.Flags().DurationVar(&serveWatchInterval, "watch-interval", config.WatchInterval, "Polling interval for --watch")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveSocket == "" && serveGRPCAddress == "" {
		return fmt.Errorf("nothing to listen on: set --socket or --grpc-address")
	}

	logger, closeLog, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	path, err := resolveConfig()
	if err != nil {
		return err
	}
	a, err := startAgent(path, logger)
	if err != nil {
		return err
	}

	metricsPort := a.Snapshot().Config.Metrics.Port
	if a.Tracker() == nil {
		metricsPort = 0
	}
	ls, err := openServeListeners([]string{serveSocket, serveGRPCAddress}, serveAdminAddress, metricsPort)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	grpcServer := grpc.NewServer()
	authz := extauthz.NewServer(a, logger)
	authz.Register(grpcServer)

	for _, lis := range ls.grpc {
		logger.Info("serving ext_authz", "address", lis.Addr().String())
		g.Go(func() error { return grpcServer.Serve(lis) })
	}

	if ls.admin != nil {
		srv := admin.NewServer(a, admin.WithLogger(logger))
		g.Go(func() error { return srv.Serve(ctx, ls.admin) })
	}

	if ls.metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.Tracker().Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		logger.Info("serving metrics", "address", ls.metrics.Addr().String())
		g.Go(func() error { return serveHTTP(ctx, srv, ls.metrics) })
	}

	if serveWatch {
		g.Go(func() error { return a.Watch(ctx, serveWatchInterval) })
	}
	g.Go(func() error { return reloadOnHangup(ctx, a, logger) })

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		a.Drain()
		authz.Drain()
		gracefulStop(grpcServer, shutdownTimeout)
		return nil
	})

	return g.Wait()
}

// serveListeners holds every address serve listens on. They are all opened
// before any server starts, so a bad address leaves nothing running.
type serveListeners struct {
	grpc    []net.Listener
	admin   net.Listener
	metrics net.Listener
}

// openServeListeners opens the gRPC listeners (empty addresses are skipped),
// the admin listener when adminAddr is set, and the metrics listener when
// metricsPort is non-zero. On error every listener opened so far is closed.
func openServeListeners(grpcAddrs []string, adminAddr string, metricsPort int) (_ *serveListeners, err error) {
	ls := &serveListeners{}
	defer func() {
		if err != nil {
			ls.Close()
		}
	}()

	for _, addr := range grpcAddrs {
		if addr == "" {
			continue
		}
		lis, err := extauthz.Listen(addr)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", addr, err)
		}
		ls.grpc = append(ls.grpc, lis)
	}

	if adminAddr != "" {
		lis, err := net.Listen("tcp", adminAddr)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", adminAddr, err)
		}
		ls.admin = lis
	}

	if metricsPort != 0 {
		lis, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(metricsPort)))
		if err != nil {
			return nil, fmt.Errorf("metrics listener: %w", err)
		}
		ls.metrics = lis
	}
	return ls, nil
}

// Close closes every open listener. Unix sockets are unlinked.
func (ls *serveListeners) Close() {
	for _, lis := range ls.grpc {
		_ = lis.Close()
	}
	if ls.admin != nil {
		_ = ls.admin.Close()
	}
	if ls.metrics != nil {
		_ = ls.metrics.Close()
	}
}

// gracefulStop waits for in-flight checks, up to timeout.
func gracefulStop(s *grpc.Server, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.Stop()
	}
}
