package cmd

import (
	"path/filepath"
	"testing"

	"github.com/ssargent/stfkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "stf", "config.yaml")
	dataDir := filepath.Join(tmpDir, "data")

	t.Run("Successful initialization", func(t *testing.T) {
		cfg, err := initConfig(configPath, dataDir, false)
		require.NoError(t, err)
		assert.FileExists(t, configPath)
		assert.Equal(t, dataDir, cfg.DataDir)
		assert.Len(t, cfg.Server.APIKey, 64)

		loaded, err := config.LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, cfg.Server.APIKey, loaded.Server.APIKey)
	})

	t.Run("Existing config is kept", func(t *testing.T) {
		_, err := initConfig(configPath, dataDir, false)
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("Force reinitialization", func(t *testing.T) {
		before, err := config.LoadConfig(configPath)
		require.NoError(t, err)

		cfg, err := initConfig(configPath, dataDir, true)
		require.NoError(t, err)
		assert.NotEqual(t, before.Server.APIKey, cfg.Server.APIKey)
	})
}

func TestInitCommand(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, configPath, "init", "--data-dir", "./mydata")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+configPath)
	assert.Contains(t, out, "Data directory: ./mydata")

	_, err = execute(t, configPath, "init")
	assert.Error(t, err)
}
