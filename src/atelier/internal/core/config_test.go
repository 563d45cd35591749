package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
	}
	return dir
}

func TestNewConfigFromDir(t *testing.T) {
	t.Run("merges listed files in order", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{
			"meta.yaml":  "files:\n  - base.yaml\n  - local.yaml\n  - missing.yaml\n",
			"base.yaml":  "service:\n  name: atelier-daemon\nlogging:\n  level: info\n",
			"local.yaml": "logging:\n  level: debug\n",
		})

		provider, err := newConfigFromDir(dir)
		require.NoError(t, err)

		cfg := provider.(Config)
		assert.Equal(t, "config", cfg.Name())
		assert.Equal(t, "atelier-daemon", cfg.Get("service.name").String())
		assert.Equal(t, "debug", cfg.Get("logging.level").String())
		assert.False(t, cfg.Get("nonexistent.path").HasValue())
		assert.Equal(t, []string{filepath.Join(dir, "base.yaml"), filepath.Join(dir, "local.yaml")}, cfg.Files())
	})

	t.Run("expands environment variables", func(t *testing.T) {
		t.Setenv("ATELIER_TEST_PORT", "4242")
		dir := writeConfigDir(t, map[string]string{
			"meta.yaml": "files:\n  - base.yaml\n",
			"base.yaml": "jsonrpc:\n  address: \"localhost:${ATELIER_TEST_PORT:1000}\"\n",
		})

		provider, err := newConfigFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "localhost:4242", provider.Get("jsonrpc.address").String())
	})

	t.Run("fails when no listed file exists", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{
			"meta.yaml": "files:\n  - missing.yaml\n",
		})

		_, err := newConfigFromDir(dir)
		assert.Error(t, err)
	})

	t.Run("fails when directory doesn't exist", func(t *testing.T) {
		_, err := newConfigFromDir("/nonexistent/path")
		assert.Error(t, err)
	})
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv(_envConfigDir, "")
	assert.Equal(t, _defaultConfigDir, getConfigDir())

	t.Setenv(_envConfigDir, "/custom/dir")
	assert.Equal(t, "/custom/dir", getConfigDir())
}
