package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultChunkConcurrency, cfg.Settings.ChunkConcurrency)
	assert.Equal(t, []string{"bh3_global"}, cfg.Settings.RegionFilteredBiz)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `settings:
  data_dir: ` + tempDir + `
  log_level: debug
  chunk_concurrency: 4
  region_filtered_biz: [bh3_global, bh3_jp]
  http_timeout: 1m`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, 4, cfg.Settings.ChunkConcurrency)
	assert.Equal(t, time.Minute, cfg.Settings.HTTPTimeout)
	assert.Equal(t, filepath.Join(tempDir, "manifests"), cfg.GetManifestsDir())
	assert.Equal(t, filepath.Join(tempDir, "state", "installs.json"), cfg.GetStorePath())
	assert.Equal(t, filepath.Join(tempDir, "hpatchz"), cfg.GetPatcherDir())
	assert.Equal(t, filepath.Join(tempDir, "fixups"), cfg.GetFixupsDir())
	assert.True(t, cfg.RegionFiltered("bh3_jp"))
	assert.False(t, cfg.RegionFiltered("hk4e_global"))
	assert.Equal(t, DefaultFileConcurrency, cfg.Settings.FileConcurrency)
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Settings.ListenAddress, cfg.Settings.ListenAddress)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestLoadConfigFromReader_Invalid(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("settings: [broken"))
	assert.ErrorIs(t, err, errors.ErrConfigParse)

	_, err = LoadConfigFromReader(strings.NewReader("settings:\n  log_level: loud\n"))
	assert.ErrorIs(t, err, errors.ErrConfigValidation)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.PatcherDir = "/opt/hpatchz"

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))
	assert.NoFileExists(t, configPath+".tmp")

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Settings.LogLevel)
	assert.Equal(t, "/opt/hpatchz", loaded.GetPatcherDir())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid config", func(*Settings) {}, ""},
		{"negative timeout", func(s *Settings) { s.HTTPTimeout = -1 }, "http_timeout"},
		{"zero chunk workers", func(s *Settings) { s.ChunkConcurrency = 0 }, "chunk_concurrency"},
		{"zero file workers", func(s *Settings) { s.FileConcurrency = 0 }, "file_concurrency"},
		{"negative retries", func(s *Settings) { s.ChunkRetries = -2 }, "chunk_retries"},
		{"bad log level", func(s *Settings) { s.LogLevel = "trace" }, "log_level"},
		{"bad log format", func(s *Settings) { s.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.Settings)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetAndGetValue(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetValue("chunk_concurrency", "16"))
	require.NoError(t, cfg.SetValue("http_timeout", "45s"))
	require.NoError(t, cfg.SetValue("region_filtered_biz", "bh3_global, bh3_kr"))
	require.NoError(t, cfg.SetValue("log_level", "warn"))

	v, err := cfg.GetValue("chunk_concurrency")
	require.NoError(t, err)
	assert.Equal(t, "16", v)

	v, err = cfg.GetValue("http_timeout")
	require.NoError(t, err)
	assert.Equal(t, "45s", v)

	v, err = cfg.GetValue("region_filtered_biz")
	require.NoError(t, err)
	assert.Equal(t, "bh3_global,bh3_kr", v)

	assert.Error(t, cfg.SetValue("chunk_concurrency", "many"))
	assert.Error(t, cfg.SetValue("log_level", "loud"))
	assert.Error(t, cfg.SetValue("nope", "x"))
	_, err = cfg.GetValue("nope")
	assert.Error(t, err)

	m := cfg.ToMap()
	assert.Equal(t, "warn", m["log_level"])
	assert.Contains(t, m, "listen_address")
}
