package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/sunsetd/pkg/config"
	"github.com/getmockd/sunsetd/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	logLevel   string
	logFormat  string
	logFile    string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sunsetd",
	Short: "sunsetd announces, redirects and retires deprecated HTTP endpoints",
	Long: `sunsetd evaluates proxied requests against a list of deprecated endpoints.

Matching requests get Deprecation, Sunset and Link headers (RFC 8594 and
RFC 9745), and can be redirected to their replacement or blocked once the
endpoint is removed.

sunsetd runs next to Envoy as an external authorization service (serve),
or as a standalone reverse proxy (proxy).

The configuration file is given with --config or the SUNSETD_CONFIG
environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Main runs the command line and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the command line and exits the process.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
}

// newLogger builds the process logger from the persistent flags. The
// returned function closes the log file, if any.
func newLogger(stderr io.Writer) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}
	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return nil, nil, err
	}

	cfg := logging.Config{Level: level, Format: format, Output: stderr}
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cfg.Tee = f
		closeFn = func() { _ = f.Close() }
	}
	return logging.New(cfg), closeFn, nil
}

// resolveConfig returns the configuration path from --config or the
// environment.
func resolveConfig() (string, error) {
	return config.ResolvePath(configPath)
}
