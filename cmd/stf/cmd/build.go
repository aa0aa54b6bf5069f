package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/stf"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <in.yaml|in.json> <out.stf>",
	Short: "Build an STF file from YAML or JSON",
	Long: `Encode a YAML or JSON table, in the form "stf dump" prints, into an
STF file. The format follows the input extension unless --format is set.

Ids are stored one byte per character; characters above U+00FF keep only
their low byte and are reported as warnings.

Examples:
  stf build strings.yaml strings.stf
  stf build - strings.stf --format json < strings.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flag, _ := cmd.Flags().GetString("format")
		e := envFrom(cmd)

		n, err := buildFile(cmd, e, args[0], args[1], flag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", n, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("format", "f", "", "Input format: json or yaml (default from extension)")
}

func buildFile(cmd *cobra.Command, e *env, in, out, flag string) (int, error) {
	format, err := formatFor(flag, in)
	if err != nil {
		return 0, err
	}
	if format == formatTable {
		return 0, fmt.Errorf("build reads json or yaml, not %s", format)
	}

	var data []byte
	if in == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", in, err)
	}

	view, err := readView(data, format)
	if err != nil {
		return 0, err
	}
	t, err := view.Table()
	if err != nil {
		return 0, err
	}

	for _, loss := range stf.NarrowingLosses(t) {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf(
			"warning: entry %d id %q: %q at position %d is stored as 0x%02X",
			loss.Entry+1, t.Entries[loss.Entry].ID, loss.Rune, loss.Position, loss.Byte)))
	}

	encoded, err := stf.NewCodec(stf.WithLogger(e.logger)).Encode(t)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(out, encoded, 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", out, err)
	}
	return len(t.Entries), nil
}
