/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/config"
	"github.com/ssargent/stfkit/pkg/di"
	"github.com/ssargent/stfkit/pkg/logging"
	"go.uber.org/zap"
)

var container *di.Container

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

func getContainer() *di.Container {
	if container == nil {
		container = di.NewContainer()
	}
	return container
}

// env is what every command gets from the root: the loaded configuration
// and a logger at the configured level.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
}

type envKey struct{}

// envFrom returns the command's env, or defaults when the root hook did
// not run.
func envFrom(cmd *cobra.Command) *env {
	if ctx := cmd.Context(); ctx != nil {
		if e, ok := ctx.Value(envKey{}).(*env); ok {
			return e
		}
	}
	return &env{cfg: config.DefaultConfig(), logger: logging.Nop()}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stf",
	Short: "stf - STF string table toolkit",
	Long: `stf reads, writes, inspects and edits STF string table files: the
binary localization tables that map narrow string ids to UTF-16 text.

Tables can be dumped to YAML or JSON, rebuilt from them, edited in place
or in a terminal editor, backed up to pebble or redis, and served over a
REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		logLevel, _ := cmd.Flags().GetString("log-level")

		e, err := loadEnv(configPath, logLevel)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, envKey{}, e))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = envFrom(cmd).logger.Sync()
	},
}

// loadEnv reads the config at configPath when it exists, falling back to
// defaults, and builds the logger. A non-empty logLevel overrides the file.
func loadEnv(configPath, logLevel string) (*env, error) {
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", configPath, err)
	}

	logger, err := logging.New(cfg.Logging.Level, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &env{cfg: cfg, configPath: configPath, logger: logger}, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/stf/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}
