package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/sunsetd/pkg/cli/internal/output"
	"github.com/getmockd/sunsetd/pkg/config"
	"github.com/getmockd/sunsetd/pkg/deprecation"
)

var checkAt string

var checkCmd = &cobra.Command{
	Use:   "check METHOD TARGET",
	Short: "Show the decision for a request",
	Long: `Evaluate one request against the configuration and print the decision
as JSON: the matched endpoint, its effective status, the action and the
headers that would be added.

TARGET is the request path, optionally with a query string. Use --at to
evaluate at another point in time.`,
	Example: `  sunsetd check -c sunsetd.yaml GET /api/v1/users?page=2
  sunsetd check -c sunsetd.yaml GET /api/v1/users --at 2025-07-01T00:00:00Z`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkAt, "at", "", "Evaluation time (RFC 3339, default: now)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	method, target := strings.ToUpper(args[0]), args[1]
	if !strings.HasPrefix(target, "/") {
		return fmt.Errorf("target %q must be an absolute path", target)
	}

	now := time.Now()
	if checkAt != "" {
		t, err := time.Parse(time.RFC3339, checkAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		now = t
	}

	path, err := resolveConfig()
	if err != nil {
		return err
	}
	_, reg, err := config.LoadRegistry(path)
	if err != nil {
		return err
	}

	reqPath, query := deprecation.SplitTarget(target)
	d := reg.Evaluate(deprecation.Request{Method: method, Path: reqPath, Query: query, Now: now})
	return output.JSON(cmd.OutOrStdout(), d)
}
