package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <table> <row>",
	Short: "Print rows of a table",
	Long: `Print one or more rows of a table, starting at a zero-based row number.

Examples:
  tabula get orders.csv 0
  tabula get orders.csv 1000 --count 20 -o json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || row < 0 {
			return fmt.Errorf("row must be a non-negative integer: %s", args[1])
		}
		count, _ := cmd.Flags().GetInt64("count")
		if count < 1 {
			return fmt.Errorf("count must be positive")
		}

		manager, err := container.Manager()
		if err != nil {
			return err
		}
		tbl, err := manager.Open(args[0])
		if err != nil {
			return err
		}
		defer tbl.Close()

		if row >= tbl.RecordSize() {
			return fmt.Errorf("row %d out of range, table has %d rows", row, tbl.RecordSize())
		}

		values, err := tbl.Rows(row, count)
		if err != nil {
			return err
		}
		rows := make([]rowOutput, len(values))
		for i, v := range values {
			rows[i] = rowOutput{Row: row + int64(i), Values: v}
		}
		return outputRows(cmd.OutOrStdout(), tbl.Entry().Fields, rows)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Int64P("count", "n", 1, "Number of rows to print")
}
