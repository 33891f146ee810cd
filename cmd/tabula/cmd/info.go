package cmd

import (
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <table>",
	Short: "Show a table's source, size and columns",
	Long: `Show a table's catalog entry. The table is named by ID or name.

Example:
  tabula info orders.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := container.Manager()
		if err != nil {
			return err
		}
		entry, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		return outputEntry(cmd.OutOrStdout(), entry)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
