/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create the stf configuration file with a generated API key for the
REST server and default storage, logging and editor settings.

Examples:
  stf init
  stf init --config ./stf.yaml --data-dir ./data
  stf init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		cfg, err := initConfig(configPath, dataDir, force)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Configuration written to %s\n", configPath)
		fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
		fmt.Fprintf(out, "API key: %s\n", cfg.Server.APIKey)
		fmt.Fprintf(out, "\nYou can now start the server with:\n")
		fmt.Fprintf(out, "  stf serve --config %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("data-dir", "", "Data directory for backups (default ./data)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}

// initConfig bootstraps a new configuration file. An existing file is only
// replaced when force is set.
func initConfig(configPath, dataDir string, force bool) (*config.Config, error) {
	if config.ConfigExists(configPath) && !force {
		return nil, fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
	}
	return config.BootstrapConfig(configPath, dataDir)
}
