package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openebs-hostpath", cfg.StorageClassName)
	assert.True(t, cfg.EnablePodInjection)
	assert.Equal(t, 60, cfg.UsageWatcherPollInterval)
}

func TestLoadQuotaOverridesMissingFileIsNotAnError(t *testing.T) {
	overrides, err := LoadQuotaOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, overrides)
}

func TestLoadQuotaOverridesParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.yaml")
	content := "- org: acme\n  storage_limit_per_project_bytes: 1073741824\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	overrides, err := LoadQuotaOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "acme", overrides[0].Org)
	assert.Equal(t, int64(1073741824), StorageLimitForOrg(overrides, "acme", 0))
	assert.Equal(t, int64(42), StorageLimitForOrg(overrides, "other-org", 42))
}
