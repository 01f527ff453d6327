package wizard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8shub/internal/config"
)

func TestWriteConfig_MinimalOutput(t *testing.T) {
	t.Parallel()

	outputPath := filepath.Join(t.TempDir(), "cluster.yaml")
	values := config.Values{"name": "hub", "domain": "example.com", "size": 2}

	require.NoError(t, WriteConfig(ProviderAKS, values, outputPath, false))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# k8shub cluster configuration")
	assert.Contains(t, string(content), "Output mode: minimal")
	assert.Contains(t, string(content), "#   AZURE_CLIENT_SECRET")
	assert.Contains(t, string(content), "k8shub provision aks -c "+outputPath)
	assert.NotContains(t, string(content), "machine_type")

	loaded, err := config.LoadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "hub", loaded["name"])
	assert.Equal(t, 2, loaded["size"])
}

func TestWriteConfig_FullOutput(t *testing.T) {
	t.Parallel()

	outputPath := filepath.Join(t.TempDir(), "cluster.yaml")
	values := config.Values{"name": "hub", "domain": "example.com"}

	require.NoError(t, WriteConfig(ProviderEKS, values, outputPath, true))

	loaded, err := config.LoadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "m5.large", loaded["machine_type"])
	assert.Equal(t, "10.0.0.0/16", loaded["network"])
	assert.Equal(t, "hub", loaded["name"])

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Output mode: full")
	assert.NotContains(t, string(content), "Note: This is a minimal config")
}

func TestWriteConfig_UnknownProvider(t *testing.T) {
	t.Parallel()

	err := WriteConfig("openstack", config.Values{}, filepath.Join(t.TempDir(), "c.yaml"), true)
	require.Error(t, err)
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("name: hub\n"), 0600))
	assert.True(t, FileExists(path))
}

func TestConfirmOverwrite_Injected(t *testing.T) {
	original := confirmOverwrite
	t.Cleanup(func() { confirmOverwrite = original })

	confirmOverwrite = func(string) (bool, error) { return true, nil }
	ok, err := ConfirmOverwrite("cluster.yaml")
	require.NoError(t, err)
	assert.True(t, ok)

	confirmOverwrite = func(string) (bool, error) { return false, errors.New("no tty") }
	_, err = ConfirmOverwrite("cluster.yaml")
	assert.EqualError(t, err, "no tty")
}
