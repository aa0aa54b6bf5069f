/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/stfkit/pkg/api"
	"github.com/ssargent/stfkit/pkg/config"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the REST API server. It decodes, encodes and inspects STF files
and keeps backups in the configured storage. Every /api/v1 route needs the
X-API-Key header; /metrics is open for Prometheus.

When no API key is configured, or it is "auto", a key is generated for this
run and printed.

Examples:
  stf serve
  stf serve --port 9000 --bind 0.0.0.0
  stf serve --api-key mysecretkey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)

		serverConfig, generated, err := serverConfigFor(cmd, e.cfg)
		if err != nil {
			return err
		}
		if generated {
			fmt.Fprintf(cmd.OutOrStdout(), "Generated API key for this run: %s\n", serverConfig.APIKey)
		}

		c := getContainer()
		backend, err := c.GetStorageFactory().Open(e.cfg, e.logger)
		if err != nil {
			return fmt.Errorf("failed to open backup storage: %w", err)
		}
		defer backend.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e.logger.Info("serving",
			zap.String("addr", serverConfig.Addr()),
			zap.String("storage", e.cfg.Storage.Driver))

		starter := c.GetServerFactory().CreateServerStarter(e.logger)
		return starter.StartServer(ctx, backend, serverConfig)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().String("bind", "", "Address to bind (overrides config)")
	serveCmd.Flags().String("api-key", "", "API key for authentication (overrides config)")
	serveCmd.Flags().Int64("max-body", api.DefaultMaxBodyBytes, "Largest accepted request body in bytes")
}

// serverConfigFor merges flags over cfg. It reports whether the API key was
// generated.
func serverConfigFor(cmd *cobra.Command, cfg *config.Config) (api.ServerConfig, bool, error) {
	port, _ := cmd.Flags().GetInt("port")
	bind, _ := cmd.Flags().GetString("bind")
	apiKey, _ := cmd.Flags().GetString("api-key")
	maxBody, _ := cmd.Flags().GetInt64("max-body")

	sc := api.ServerConfig{
		Bind:         cfg.Server.Bind,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		MaxBodyBytes: maxBody,
	}
	if port != 0 {
		sc.Port = port
	}
	if bind != "" {
		sc.Bind = bind
	}
	if apiKey != "" {
		sc.APIKey = apiKey
	}

	if sc.APIKey == "" || sc.APIKey == "auto" {
		key, err := config.GenerateSecureKey(32)
		if err != nil {
			return api.ServerConfig{}, false, err
		}
		sc.APIKey = key
		return sc, true, nil
	}
	return sc, false, nil
}
