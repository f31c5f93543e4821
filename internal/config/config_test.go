package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hushfs/internal/crypto"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "~/.hush/hush.key", cfg.KeyPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.Equal(t, crypto.InteractiveKDFParams(), cfg.KDFParams())
	assert.True(t, cfg.Password.Mask)
	assert.Equal(t, 2, cfg.Password.MinScore)
	assert.True(t, cfg.Format.RootInode)
	assert.Empty(t, cfg.File)
}

func TestDefaultIgnoresEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HUSH_LOG_LEVEL", "debug")

	cfg := Default()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, crypto.InteractiveKDFParams(), cfg.KDFParams())
	require.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "hush-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
key_path: /srv/keys/volume.key
log_level: debug
kdf:
  iterations: 3
  memory_kib: 1024
password:
  mask: false
format:
  root_inode: false
`), 0o600))

	t.Setenv("HUSH_KDF_PARALLELISM", "2")
	t.Setenv("HUSH_PASSWORD_MIN_SCORE", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/keys/volume.key", cfg.KeyPath)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.Equal(t, crypto.KDFParams{Iterations: 3, MemoryKiB: 1024, Parallelism: 2, MaxMemoryKiB: 1024 * 1024}, cfg.KDFParams())
	assert.False(t, cfg.Password.Mask)
	assert.Equal(t, 3, cfg.Password.MinScore)
	assert.False(t, cfg.Format.RootInode)
	assert.Equal(t, path, cfg.File)

	resolved, err := cfg.ResolvedKeyPath()
	require.NoError(t, err)
	assert.Equal(t, "/srv/keys/volume.key", resolved)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := chdirTemp(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, cfg.Level())

	resolved, err := cfg.ResolvedKeyPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".hush", "hush.key"), resolved)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		errorMsg string
	}{
		{name: "log level", content: "log_level: chatty\n", errorMsg: "invalid log_level"},
		{name: "kdf memory", content: "kdf:\n  memory_kib: 4096\n  max_memory_kib: 1024\n", errorMsg: "invalid kdf settings"},
		{name: "min score", content: "password:\n  min_score: 9\n", errorMsg: "min_score"},
		{name: "malformed yaml", content: "kdf: [unclosed\n", errorMsg: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdirTemp(t)
			path := filepath.Join(dir, "hush-config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
