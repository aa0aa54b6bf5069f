package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/stf"
	"golang.org/x/sync/errgroup"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <file.stf>...",
	Short: "Check that string tables decode cleanly",
	Long: `Decode each file and report errors and layout problems. YAML and JSON
tables, as read by "stf build", are checked for ids that would lose
characters when encoded. Files are checked in parallel.

The command fails when any file does not decode, or with --strict when
any file has warnings.

Examples:
  stf validate strings/*.stf
  stf validate --strict en.stf de.stf strings.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		results := validateFiles(args)

		failed := 0
		out := cmd.OutOrStdout()
		for _, r := range results {
			switch {
			case r.err != nil:
				failed++
				fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("FAIL %s: %v", r.path, r.err)))
			case len(r.warnings) > 0:
				if strict {
					failed++
				}
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("WARN %s: %d entries", r.path, r.entries)))
				for _, w := range r.warnings {
					fmt.Fprintf(out, "     %s\n", w)
				}
			default:
				fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("ok   %s: %d entries", r.path, r.entries)))
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed validation", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as failures")
}

type validation struct {
	path     string
	entries  int
	warnings []string
	err      error
}

// validateFiles checks every path concurrently and returns the results in
// argument order.
func validateFiles(paths []string) []validation {
	results := make([]validation, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = validateFile(path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func validateFile(path string) validation {
	v := validation{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		v.err = err
		return v
	}

	var t *stf.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		t, err = validateView(data, path)
	default:
		t, v.warnings, err = validateBinary(data)
	}
	if err != nil {
		v.err = err
		return v
	}

	v.entries = len(t.Entries)
	for _, loss := range stf.NarrowingLosses(t) {
		v.warnings = append(v.warnings, fmt.Sprintf(
			"entry %d id %q: %q at position %d does not fit in one byte",
			loss.Entry+1, t.Entries[loss.Entry].ID, loss.Rune, loss.Position))
	}
	return v
}

func validateBinary(data []byte) (*stf.Table, []string, error) {
	t, report, err := stf.DecodeWithReport(data)
	if err != nil {
		return nil, nil, err
	}
	return t, reportProblems(report), nil
}

func validateView(data []byte, path string) (*stf.Table, error) {
	format, err := formatFor("", path)
	if err != nil {
		return nil, err
	}
	view, err := readView(data, format)
	if err != nil {
		return nil, err
	}
	t, err := view.Table()
	if err != nil {
		return nil, err
	}
	if _, err := stf.Encode(t); err != nil {
		return nil, err
	}
	return t, nil
}
