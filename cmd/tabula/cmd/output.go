package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/schema"
)

const maxCellWidth = 40

// outputJSON writes v as indented JSON
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputEntries displays the table list
func outputEntries(w io.Writer, entries []*catalog.Entry) error {
	if outputFormat == "json" {
		return outputJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No tables found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tROWS\tCOLUMNS\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.Name, e.Records, e.MaxColumns, e.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// outputEntry displays one table in detail
func outputEntry(w io.Writer, e *catalog.Entry) error {
	if outputFormat == "json" {
		return outputJSON(w, e)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", e.Name)
	fmt.Fprintf(tw, "Source:\t%s\n", e.SourcePath)
	fmt.Fprintf(tw, "Size:\t%d bytes\n", e.SourceSize)
	fmt.Fprintf(tw, "Rows:\t%d\n", e.Records)
	fmt.Fprintf(tw, "Longest record:\t%d bytes\n", e.Stats.MaxRecordBytes)
	fmt.Fprintf(tw, "Index:\t%s\n", e.IndexPath)
	fmt.Fprintf(tw, "Created:\t%s\n", e.CreatedAt.Format(time.RFC3339))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCOLUMN\tTYPE")
	for i, f := range e.Fields {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, f.Name, f.Type)
	}
	return tw.Flush()
}

// rowOutput is the JSON form of one row
type rowOutput struct {
	Row    int64          `json:"row"`
	Values []schema.Value `json:"values"`
}

// outputRows displays rows under their column names
func outputRows(w io.Writer, fields []schema.FieldAttr, rows []rowOutput) error {
	if outputFormat == "json" {
		return outputJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No rows found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	header := []string{"ROW"}
	for _, f := range fields {
		header = append(header, strings.ToUpper(f.Name))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range rows {
		cells := []string{fmt.Sprint(r.Row)}
		for _, v := range r.Values {
			cells = append(cells, formatCell(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return nil
}

// formatCell renders a value on one line
func formatCell(v schema.Value) string {
	if v == nil {
		return ""
	}
	s := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(fmt.Sprint(v))
	if len([]rune(s)) > maxCellWidth {
		s = string([]rune(s)[:maxCellWidth-3]) + "..."
	}
	return s
}
