//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp switches into a fresh directory, optionally holding config.yaml,
// and resets cfg so PersistentPreRunE repopulates it.
func chdirTemp(t *testing.T, configContent string) {
	t.Helper()
	tmpDir := t.TempDir()
	if configContent != "" {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(configContent), 0o644))
	}

	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	oldCfg := cfg
	cfg = nil
	t.Cleanup(func() { cfg = oldCfg })
}

func TestRootCmd_PersistentPreRunE_WithValidConfig(t *testing.T) {
	chdirTemp(t, `
solar:
  required_quality: MEDIUM
sizing:
  dedupe_counts: true
log:
  level: info
  format: console
`)

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "MEDIUM", cfg.Solar.RequiredQuality)
	assert.True(t, cfg.Sizing.DedupeCounts)
}

func TestRootCmd_PersistentPreRunE_NoConfigFile(t *testing.T) {
	// In a temp dir with no config.yaml, viper should use defaults + env.
	chdirTemp(t, "")

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	// Defaults should be applied.
	assert.Equal(t, "HIGH", cfg.Solar.RequiredQuality)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestRootCmd_PersistentPreRunE_BadLogLevel(t *testing.T) {
	chdirTemp(t, `
log:
  level: NOT_A_LEVEL
  format: console
`)

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init logger")
}

func TestRootCmd_PersistentPostRun_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		rootCmd.PersistentPostRun(rootCmd, nil)
	})
}

func TestRootCmd_PersistentPreRunE_InvalidYAML(t *testing.T) {
	chdirTemp(t, "invalid: [yaml: bad")

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
