package cmd

import (
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List indexed tables",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := container.Manager()
		if err != nil {
			return err
		}
		entries, err := manager.List()
		if err != nil {
			return err
		}
		return outputEntries(cmd.OutOrStdout(), entries)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
