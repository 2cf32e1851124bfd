package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/sunsetd/pkg/cli/internal/output"
	"github.com/getmockd/sunsetd/pkg/config"
)

var (
	importSunset   string
	importDocs     string
	importAction   string
	importValidate bool
	importOutput   string
)

var importOpenAPICmd = &cobra.Command{
	Use:   "import-openapi SPEC",
	Short: "Generate endpoints from deprecated OpenAPI operations",
	Long: `Generate a sunsetd configuration from an OpenAPI 3 document. Every
operation marked "deprecated: true" becomes an endpoint.

The x-sunset and x-replacement operation extensions set the sunset date
and the replacement path. Path templates such as {id} match exactly one
path segment.`,
	Example: `  sunsetd import-openapi openapi.yaml --sunset 2025-06-01 -o sunsetd.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    runImportOpenAPI,
}

func init() {
	importOpenAPICmd.Flags().StringVar(&importSunset, "sunset", "", "Sunset date for operations without x-sunset")
	importOpenAPICmd.Flags().StringVar(&importDocs, "docs", "", "Documentation URL for operations without externalDocs")
	importOpenAPICmd.Flags().StringVar(&importAction, "action", "", "Action type of generated endpoints (default: warn)")
	importOpenAPICmd.Flags().BoolVar(&importValidate, "validate", false, "Validate the OpenAPI document first")
	importOpenAPICmd.Flags().StringVarP(&importOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(importOpenAPICmd)
}

func runImportOpenAPI(cmd *cobra.Command, args []string) error {
	f, err := config.ImportOpenAPIFile(args[0], config.ImportOptions{
		SunsetAt:         importSunset,
		DocumentationURL: importDocs,
		Action:           importAction,
		Validate:         importValidate,
	})
	if err != nil {
		return err
	}
	if len(f.Endpoints) == 0 {
		output.Warn(cmd.ErrOrStderr(), "no deprecated operations found in %s", args[0])
	}

	data, err := config.ToYAML(f)
	if err != nil {
		return err
	}
	if importOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(importOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", importOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d endpoint(s) to %s\n", len(f.Endpoints), importOutput)
	return nil
}
