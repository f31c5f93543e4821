package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hushfs/internal/device"
	"github.com/deploymenttheory/go-hushfs/internal/layout"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("HOME", dir)

	verbose, quiet, outputFormat, configFile = false, false, "table", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("HUSH_KDF_ITERATIONS", "4")

	out, err := run(t, "config", "-o", "json")
	require.NoError(t, err)

	var view configView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, uint32(4), view.KDF.Iterations)
	assert.Equal(t, "~/.hush/hush.key", view.KeyPath)
	assert.True(t, view.Format.RootInode)
}

func TestInspectCommand(t *testing.T) {
	image := filepath.Join(t.TempDir(), "vol.img")
	sb, err := layout.ComputeGeometry(1 << 20)
	require.NoError(t, err)
	dev, err := device.Create(image, nil)
	require.NoError(t, err)
	require.NoError(t, layout.NewFormatter(dev, nil, layout.DefaultFormatOptions()).Format(sb))
	require.NoError(t, dev.Close())

	out, err := run(t, "inspect", image, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "magic: HusH")
	assert.Contains(t, out, "used_blocks: 20")
}

func TestGlobalFlagValidation(t *testing.T) {
	_, err := run(t, "config", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")

	_, err = run(t, "config", "-v", "-q")
	require.Error(t, err)
}

func TestCreateRequiresSize(t *testing.T) {
	_, err := run(t, "create", filepath.Join(t.TempDir(), "vol.img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size")
}
