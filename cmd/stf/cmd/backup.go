package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/document"
	"github.com/ssargent/stfkit/pkg/storage"
)

// backupCmd groups the backup subcommands
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage string table backups",
	Long: `Store copies of STF files in the configured backup storage (pebble or
redis) and restore them later. Backups are identified by KSUID.`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <file.stf>",
	Short: "Back up a string table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)
		doc, err := openDocument(e, args[0], false)
		if err != nil {
			return err
		}

		return withBackend(cmd, e, func(backend storage.Backend) error {
			id, err := doc.Backup(cmd.Context(), backend)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s as %s\n", args[0], id)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)
		return withBackend(cmd, e, func(backend storage.Backend) error {
			ids, err := backend.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No backups")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintf(out, "%s  %s\n", id, id.Time().Local().Format(time.RFC3339))
			}
			return nil
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id> <file.stf>",
	Short: "Write a backup to a file",
	Long: `Write a stored backup to a file, replacing its contents. The file is
not read first, so a damaged file can be restored over. It is created when it
does not exist.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)
		id, err := storage.ParseID(args[0])
		if err != nil {
			return err
		}
		doc := document.New(nil, documentOptions(e)...)

		return withBackend(cmd, e, func(backend storage.Backend) error {
			if err := doc.Restore(cmd.Context(), backend, id); err != nil {
				return err
			}
			if err := doc.SaveAs(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to %s (%d entries)\n", id, args[1], doc.Len())
			return nil
		})
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)
		id, err := storage.ParseID(args[0])
		if err != nil {
			return err
		}

		return withBackend(cmd, e, func(backend storage.Backend) error {
			if err := backend.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted backup %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupDeleteCmd)
}

// withBackend opens the configured backup storage for the duration of fn.
func withBackend(cmd *cobra.Command, e *env, fn func(storage.Backend) error) error {
	backend, err := getContainer().GetStorageFactory().Open(e.cfg, e.logger)
	if err != nil {
		return fmt.Errorf("failed to open backup storage: %w", err)
	}
	defer backend.Close()
	return fn(backend)
}
