package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/sunsetd/pkg/config"
)

var printConfigCmd = &cobra.Command{
	Use:   "print-config",
	Short: "Print an annotated example configuration",
	Example: `  sunsetd print-config > sunsetd.yaml`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), config.Example())
		return err
	},
}

func init() {
	rootCmd.AddCommand(printConfigCmd)
}
