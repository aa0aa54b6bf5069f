package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/stf"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file.stf>",
	Short: "Show the binary layout of a string table",
	Long: `Show where each section and record of an STF file lives, together with
problems a plain decode skips over: ids without values, values no id uses,
repeated indices and ids, and bytes after the last record.

Examples:
  stf inspect strings.stf
  stf inspect strings.stf --records
  stf inspect strings.stf --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		records, _ := cmd.Flags().GetBool("records")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		report, err := stf.Inspect(data)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", args[0], err)
		}

		if format == "" || format == formatTable {
			writeReport(cmd.OutOrStdout(), report, records)
			return nil
		}
		f, err := formatFor(format, "")
		if err != nil {
			return err
		}
		return writeValue(cmd.OutOrStdout(), report, f)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "", "Output format: json or yaml (default text)")
	inspectCmd.Flags().Bool("records", false, "List every record with its offset")
}

func writeReport(w io.Writer, r *stf.Report, records bool) {
	fmt.Fprintf(w, "size:        %d bytes\n", r.Size)
	fmt.Fprintf(w, "version:     %d\n", r.Version)
	fmt.Fprintf(w, "next uid:    %d\n", r.NextUID)
	fmt.Fprintf(w, "strings:     %d\n", r.NumStrings)
	fmt.Fprintf(w, "values:      offset %d, %d bytes\n", r.Values.Offset, r.Values.Length)
	fmt.Fprintf(w, "ids:         offset %d, %d bytes\n", r.IDs.Offset, r.IDs.Length)
	fmt.Fprintf(w, "trailing:    %d bytes\n", r.TrailingBytes)

	if records {
		fmt.Fprintln(w, "\nvalue records:")
		for _, rec := range r.ValueRecords {
			fmt.Fprintf(w, "  index %-6d offset %-8d units %-6d size %d\n", rec.Index, rec.Offset, rec.Count, rec.Size)
		}
		fmt.Fprintln(w, "id records:")
		for _, rec := range r.IDRecords {
			fmt.Fprintf(w, "  index %-6d offset %-8d bytes %-6d size %d\n", rec.Index, rec.Offset, rec.Count, rec.Size)
		}
	}

	if r.Clean() {
		fmt.Fprintln(w, okStyle.Render("\nno problems found"))
		return
	}
	fmt.Fprintln(w)
	for _, p := range reportProblems(r) {
		fmt.Fprintln(w, warnStyle.Render("warning: "+p))
	}
}

// reportProblems describes each cross-reference problem in r.
func reportProblems(r *stf.Report) []string {
	var out []string
	if n := len(r.Orphans); n > 0 {
		out = append(out, fmt.Sprintf("%d ids have no value and decode as empty: indices %v", n, r.Orphans))
	}
	if n := len(r.Unreferenced); n > 0 {
		out = append(out, fmt.Sprintf("%d values are not referenced by any id: indices %v", n, r.Unreferenced))
	}
	if n := len(r.DuplicateValueIndices); n > 0 {
		out = append(out, fmt.Sprintf("%d value indices repeat, the last record wins: %v", n, r.DuplicateValueIndices))
	}
	if n := len(r.DuplicateIDIndices); n > 0 {
		out = append(out, fmt.Sprintf("%d id indices repeat: %v", n, r.DuplicateIDIndices))
	}
	if n := len(r.DuplicateIDs); n > 0 {
		out = append(out, fmt.Sprintf("%d ids appear more than once: %q", n, r.DuplicateIDs))
	}
	if r.TrailingBytes > 0 {
		out = append(out, fmt.Sprintf("%d bytes follow the last id record and are ignored", r.TrailingBytes))
	}
	return out
}
