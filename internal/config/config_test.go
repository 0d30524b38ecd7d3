package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tap-ir/tapir/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cli := config.CLIOverrides{APIKey: "k"}
	cfg, err := config.Load("", cli, nil)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.Address)
	require.Equal(t, "k", cfg.APIKey)
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	_, err := config.Load("", config.CLIOverrides{}, nil)
	require.Error(t, err)
}

func TestCLIOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tapir.toml")
	require.NoError(t, os.WriteFile(path, []byte("address = \"0.0.0.0:9090\"\napi_key = \"file-key\"\n"), 0o644))

	cfg, err := config.Load(path, config.CLIOverrides{Address: "127.0.0.1:7070"}, nil)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7070", cfg.Address)
	require.Equal(t, "file-key", cfg.APIKey)
}
