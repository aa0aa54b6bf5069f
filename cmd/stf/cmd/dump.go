package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/stf"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file.stf>",
	Short: "Print the entries of a string table",
	Long: `Print every entry of an STF file, as a table or as YAML or JSON that
"stf build" accepts back.

Examples:
  stf dump strings.stf
  stf dump strings.stf --format yaml > strings.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		e := envFrom(cmd)

		t, err := readTable(stf.NewCodec(stf.WithLogger(e.logger)), args[0])
		if err != nil {
			return err
		}
		return dumpTable(cmd, t, format)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringP("format", "f", formatTable, "Output format: table, json or yaml")
}

func dumpTable(cmd *cobra.Command, t *stf.Table, flag string) error {
	if flag == "" {
		flag = formatTable
	}
	format, err := formatFor(flag, "")
	if err != nil {
		return err
	}
	if format == formatTable {
		_, err := fmt.Fprint(cmd.OutOrStdout(), renderTable(t))
		return err
	}
	return writeValue(cmd.OutOrStdout(), stf.ToView(t), format)
}
