package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/document"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <file.stf> <id>",
	Short: "Get the value for an id",
	Long: `Print the value stored under an id in an STF file.

Example:
  stf get strings.stf greeting`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := openDocument(envFrom(cmd), args[0], false)
		if err != nil {
			return err
		}

		entry, ok := doc.Get(args[1])
		if !ok {
			return fmt.Errorf("%w: %q in %s", document.ErrIDNotFound, args[1], args[0])
		}

		fmt.Fprintln(cmd.OutOrStdout(), entry.Value.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
