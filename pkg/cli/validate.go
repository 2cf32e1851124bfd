package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/sunsetd/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a sunsetd configuration file without starting any services.

This command checks:
  - YAML syntax and the configuration schema
  - Endpoint ids, path patterns, methods and timestamps
  - Action types and status codes
  - Included endpoint files

Sunset dates that have already passed are reported as warnings.`,
	Example: `  sunsetd validate -c sunsetd.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	f, err := config.Load(path)
	if err != nil {
		var result *config.ValidationResult
		if errors.As(err, &result) {
			fmt.Fprintln(out, "Validation failed:")
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  - %s\n", e.Error())
			}
			printWarnings(cmd, result.Warnings)
			return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
		}
		return err
	}

	reg, err := f.Registry()
	if err != nil {
		return err
	}

	printWarnings(cmd, f.Warnings)
	fmt.Fprintf(out, "Configuration is valid. %d endpoint(s) from %d file(s).\n", reg.Len(), len(f.Sources))
	return nil
}

func printWarnings(cmd *cobra.Command, warnings []config.ValidationError) {
	if len(warnings) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Warnings:")
	for _, w := range warnings {
		fmt.Fprintf(out, "  - %s\n", w.Error())
	}
}
