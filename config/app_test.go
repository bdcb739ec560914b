package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
    t.Helper()
    path := filepath.Join(t.TempDir(), "config.yaml")
    require.NoError(t, os.WriteFile(path, []byte(content), 0644))
    return path
}

func TestLoadAppConfigDurationString(t *testing.T) {
    path := writeConfig(t, "progress:\n  pollInterval: 250ms\n")

    cfg, err := loadAppConfig(path)
    require.NoError(t, err)
    assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.Progress.PollInterval))
}

func TestLoadAppConfigDurationNanoseconds(t *testing.T) {
    path := writeConfig(t, "progress:\n  pollInterval: 1000000000\n")

    cfg, err := loadAppConfig(path)
    require.NoError(t, err)
    assert.Equal(t, time.Second, time.Duration(cfg.Progress.PollInterval))
}

func TestLoadAppConfigInvalidDuration(t *testing.T) {
    path := writeConfig(t, "progress:\n  pollInterval: soonish\n")

    _, err := loadAppConfig(path)
    require.Error(t, err)
    assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadAppConfigMissingFileUsesDefaults(t *testing.T) {
    cfg, err := loadAppConfig(filepath.Join(t.TempDir(), "absent.yaml"))
    require.NoError(t, err)
    assert.Equal(t, ":8080", cfg.Server.Addr)
    assert.Equal(t, 2*time.Second, time.Duration(cfg.Progress.PollInterval))
    assert.Equal(t, 10, cfg.Preview.MaxPages)
}

func TestLoadAppConfigOverrides(t *testing.T) {
    path := writeConfig(t, "server:\n  addr: \":9090\"\npreview:\n  maxPages: 3\n")

    cfg, err := loadAppConfig(path)
    require.NoError(t, err)
    assert.Equal(t, ":9090", cfg.Server.Addr)
    assert.Equal(t, 3, cfg.Preview.MaxPages)
    assert.Equal(t, "minio", cfg.Storage.Backend)
}
