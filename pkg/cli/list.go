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

var listAt string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured endpoints and their current status",
	Example: `  sunsetd list -c sunsetd.yaml
  sunsetd list -c sunsetd.yaml --at 2025-07-01T00:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listAt, "at", "", "Evaluation time (RFC 3339, default: now)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	if listAt != "" {
		t, err := time.Parse(time.RFC3339, listAt)
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

	w := output.Table(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tMETHODS\tPATH\tSTATUS\tSUNSET\tACTION")
	for _, ep := range reg.Endpoints() {
		rule := ep.Rule()
		status := deprecation.EvaluateLifecycle(&rule, now)
		action := deprecation.ResolveAction(&rule, status, reg.Settings())

		methods := "*"
		if len(rule.Methods) > 0 {
			methods = strings.Join(rule.Methods, ",")
		}
		sunset := "-"
		if !rule.SunsetAt.IsZero() {
			sunset = rule.SunsetAt.UTC().Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", rule.ID, methods, rule.Path, status, sunset, action)
	}
	return w.Flush()
}
