package cmd

import (
	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <table> <column> <text>",
	Short: "Find rows whose column contains text",
	Long: `Find rows whose column contains the given text, ignoring case.

Example:
  tabula search people.csv city berlin --limit 50`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		manager, err := container.Manager()
		if err != nil {
			return err
		}
		tbl, err := manager.Open(args[0])
		if err != nil {
			return err
		}
		defer tbl.Close()

		hits, err := tbl.Find(cmd.Context(), args[1], args[2])
		if err != nil {
			return err
		}

		var rows []rowOutput
		it := hits.Iterator()
		for it.HasNext() && (limit <= 0 || len(rows) < limit) {
			row := int64(it.Next())
			values, err := tbl.Record(row)
			if err != nil {
				return err
			}
			rows = append(rows, rowOutput{Row: row, Values: values})
		}

		if err := outputRows(cmd.OutOrStdout(), tbl.Entry().Fields, rows); err != nil {
			return err
		}
		if outputFormat != "json" {
			cmd.Printf("%d matching rows\n", hits.GetCardinality())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("limit", 100, "Maximum rows to print (0 for all)")
}
