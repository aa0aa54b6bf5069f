package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <file.stf> <id>",
	Short: "Delete the entry for an id",
	Long: `Remove the entry stored under an id and rewrite the file.

Example:
  stf delete strings.stf greeting`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := openDocument(envFrom(cmd), args[0], false)
		if err != nil {
			return err
		}

		if err := doc.Remove(args[1]); err != nil {
			return err
		}
		if err := doc.Save(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s' from %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
