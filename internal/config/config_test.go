package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.yaml")
	content := `
storage:
  file: /tmp/schedule.json
report:
  dir: /tmp/reports
  format: csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/schedule.json", cfg.Storage.File)
	assert.Equal(t, "/tmp/reports", cfg.Report.Dir)
	assert.Equal(t, "csv", cfg.Report.Format)
	assert.Equal(t, ":8181", cfg.Server.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644))
	t.Setenv("SCHEDULER_SERVER_ADDR", ":9100")
	t.Setenv("SCHEDULER_STORAGE_BACKEND", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
}

func TestLoad_InvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
