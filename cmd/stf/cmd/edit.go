package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/editor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit <file.stf>",
	Short: "Edit a string table in the terminal",
	Long: `Open an STF file in an interactive editor with paging, search, undo
and redo. Press s to save and q to quit.

Examples:
  stf edit strings.stf
  stf edit new.stf --create`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		create, _ := cmd.Flags().GetBool("create")
		e := envFrom(cmd)

		// The editor owns the terminal; keep info logs off the screen.
		quiet := *e
		quiet.logger = e.logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))

		doc, err := openDocument(&quiet, args[0], create)
		if err != nil {
			return err
		}
		return editor.Run(doc, e.cfg.Editor.PageSize)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().Bool("create", false, "Create the file when it does not exist")
}
