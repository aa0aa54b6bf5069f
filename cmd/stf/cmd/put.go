package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <file.stf> <id> <value>",
	Short: "Set the value for an id",
	Long: `Set the value stored under an id, adding the entry when the id is new.
The file is rewritten in place.

Examples:
  stf put strings.stf greeting "Hello there"
  stf put new.stf greeting Hi --create`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		create, _ := cmd.Flags().GetBool("create")
		path, id, value := args[0], args[1], args[2]

		doc, err := openDocument(envFrom(cmd), path, create)
		if err != nil {
			return err
		}

		created := doc.Set(id, value)
		if err := doc.Save(); err != nil {
			return err
		}

		verb := "Updated"
		if created {
			verb = "Added"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s '%s' in %s\n", verb, id, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().Bool("create", false, "Create the file when it does not exist")
}
