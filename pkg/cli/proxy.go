package cli

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/sunsetd/pkg/admin"
	"github.com/getmockd/sunsetd/pkg/config"
	"github.com/getmockd/sunsetd/pkg/middleware"
)

var (
	proxyUpstream     string
	proxyListen       string
	proxyAdminAddress string
	proxyWatch        bool
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run a reverse proxy that applies deprecation rules",
	Long: `Run sunsetd as a reverse proxy in front of an upstream HTTP service.

Requests to deprecated endpoints get deprecation headers; redirected and
blocked endpoints are answered by sunsetd without contacting the upstream.`,
	Example: `  sunsetd proxy -c sunsetd.yaml --upstream http://localhost:8080 --listen :8000`,
	Args:    cobra.NoArgs,
	RunE:    runProxy,
}

func init() {
	proxyCmd.Flags().StringVar(&proxyUpstream, "upstream", "", "Upstream base URL (required)")
	proxyCmd.Flags().StringVar(&proxyListen, "listen", ":8000", "Proxy listen address")
	proxyCmd.Flags().StringVar(&proxyAdminAddress, "admin-address", "", "Admin API address (empty to disable)")
	proxyCmd.Flags().BoolVar(&proxyWatch, "watch", false, "Reload when configuration files change")
	_ = proxyCmd.MarkFlagRequired("upstream")
	rootCmd.AddCommand(proxyCmd)
}

func runProxy(cmd *cobra.Command, _ []string) error {
	upstream, err := url.Parse(proxyUpstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return fmt.Errorf("invalid --upstream %q: must be an absolute URL", proxyUpstream)
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	lis, err := net.Listen("tcp", proxyListen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", proxyListen, err)
	}
	srv := &http.Server{
		Handler:           middleware.NewReverseProxy(upstream, a, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("proxying", "address", lis.Addr().String(), "upstream", upstream.String())
	g.Go(func() error { return serveHTTP(ctx, srv, lis) })

	if proxyAdminAddress != "" {
		adminLis, err := net.Listen("tcp", proxyAdminAddress)
		if err != nil {
			return fmt.Errorf("listen %s: %w", proxyAdminAddress, err)
		}
		adminSrv := admin.NewServer(a, admin.WithLogger(logger))
		g.Go(func() error { return adminSrv.Serve(ctx, adminLis) })
	}

	if proxyWatch {
		g.Go(func() error { return a.Watch(ctx, config.WatchInterval) })
	}
	g.Go(func() error { return reloadOnHangup(ctx, a, logger) })
	g.Go(func() error {
		<-ctx.Done()
		a.Drain()
		return nil
	})

	return g.Wait()
}
