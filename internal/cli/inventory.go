package cli

import (
	"github.com/spf13/cobra"

	"github.com/dtroode/vaultqa/internal/inventory"
)

func (c *CLI) newInventoryCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List QA suites and their case IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := inventory.Format(format)
			if f != inventory.FormatText && f != inventory.FormatYAML {
				return validationf("unsupported format %q (want text or yaml)", format)
			}
			return inventory.Render(cmd.OutOrStdout(), inventory.Suites(), f)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")

	return cmd
}
