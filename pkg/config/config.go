// Package config provides configuration management for gamekeep.
// It loads, validates and saves the YAML settings that drive the
// orchestration engine: where manifests, patch tools, fixup scripts and
// state live, how transports behave, and which address the UI bridge binds.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Filesystem layout
	DataDir      string `yaml:"data_dir,omitempty"`
	ManifestsDir string `yaml:"manifests_dir,omitempty"`
	StateDir     string `yaml:"state_dir,omitempty"`
	PatcherDir   string `yaml:"patcher_dir,omitempty"` // relative paths resolve against data_dir
	FixupsDir    string `yaml:"fixups_dir,omitempty"`  // relative paths resolve against data_dir

	// Network settings
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	UserAgent        string        `yaml:"user_agent,omitempty"`
	FileConcurrency  int           `yaml:"file_concurrency"`
	ChunkConcurrency int           `yaml:"chunk_concurrency"`
	ChunkRetries     int           `yaml:"chunk_retries"`
	ProgressInterval time.Duration `yaml:"progress_interval"`

	// RegionFilteredBiz lists business ids whose FILE downloads are
	// filtered by the region code of the request.
	RegionFilteredBiz []string `yaml:"region_filtered_biz"`

	// UI bridge
	ListenAddress string `yaml:"listen_address"`

	// Output settings
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default configuration values.
const (
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultFileConcurrency  = 2
	DefaultChunkConcurrency = 8
	DefaultChunkRetries     = 3
	DefaultProgressInterval = 250 * time.Millisecond
	DefaultListenAddress    = "127.0.0.1:8765"
	DefaultUserAgent        = "gamekeep/0.1"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dataDir, err := fsutil.GetDataDir()
	if err != nil {
		dataDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	return &Config{
		Settings: Settings{
			DataDir:           dataDir,
			ManifestsDir:      filepath.Join(dataDir, "manifests"),
			StateDir:          filepath.Join(dataDir, "state"),
			PatcherDir:        "hpatchz",
			FixupsDir:         "fixups",
			HTTPTimeout:       DefaultHTTPTimeout,
			UserAgent:         DefaultUserAgent,
			FileConcurrency:   DefaultFileConcurrency,
			ChunkConcurrency:  DefaultChunkConcurrency,
			ChunkRetries:      DefaultChunkRetries,
			ProgressInterval:  DefaultProgressInterval,
			RegionFilteredBiz: []string{"bh3_global"},
			ListenAddress:     DefaultListenAddress,
			LogLevel:          "info",
			LogFormat:         "text",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	s := c.Settings
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative")
	}
	if s.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval cannot be negative")
	}
	if s.FileConcurrency < 1 {
		return fmt.Errorf("file_concurrency must be at least 1")
	}
	if s.ChunkConcurrency < 1 {
		return fmt.Errorf("chunk_concurrency must be at least 1")
	}
	if s.ChunkRetries < 0 {
		return fmt.Errorf("chunk_retries cannot be negative")
	}
	if _, ok := logger.ParseLevel(s.LogLevel); !ok {
		return fmt.Errorf("invalid log_level '%s', must be one of: debug, info, warn, error", s.LogLevel)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format '%s', must be one of: text, json", s.LogFormat)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetManifestsDir returns the directory game manifests are loaded from.
func (c *Config) GetManifestsDir() string {
	return c.Settings.ManifestsDir
}

// GetStorePath returns the path of the install/manifest record store.
func (c *Config) GetStorePath() string {
	return filepath.Join(c.Settings.StateDir, "installs.json")
}

// GetPatcherDir returns the directory holding the patch tool executables.
func (c *Config) GetPatcherDir() string {
	return c.resolveData(c.Settings.PatcherDir)
}

// GetFixupsDir returns the directory holding per-manifest fixup scripts.
func (c *Config) GetFixupsDir() string {
	return c.resolveData(c.Settings.FixupsDir)
}

// RegionFiltered reports whether FILE downloads for biz are filtered by region.
func (c *Config) RegionFiltered(biz string) bool {
	for _, b := range c.Settings.RegionFilteredBiz {
		if b == biz {
			return true
		}
	}
	return false
}

func (c *Config) resolveData(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Settings.DataDir, p)
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig().Settings
	s := &c.Settings

	if s.DataDir == "" {
		s.DataDir = defaults.DataDir
	}
	if s.ManifestsDir == "" {
		s.ManifestsDir = filepath.Join(s.DataDir, "manifests")
	}
	if s.StateDir == "" {
		s.StateDir = filepath.Join(s.DataDir, "state")
	}
	if s.PatcherDir == "" {
		s.PatcherDir = defaults.PatcherDir
	}
	if s.FixupsDir == "" {
		s.FixupsDir = defaults.FixupsDir
	}
	if s.HTTPTimeout == 0 {
		s.HTTPTimeout = defaults.HTTPTimeout
	}
	if s.UserAgent == "" {
		s.UserAgent = defaults.UserAgent
	}
	if s.FileConcurrency == 0 {
		s.FileConcurrency = defaults.FileConcurrency
	}
	if s.ChunkConcurrency == 0 {
		s.ChunkConcurrency = defaults.ChunkConcurrency
	}
	if s.ChunkRetries == 0 {
		s.ChunkRetries = defaults.ChunkRetries
	}
	if s.ProgressInterval == 0 {
		s.ProgressInterval = defaults.ProgressInterval
	}
	if s.RegionFilteredBiz == nil {
		s.RegionFilteredBiz = defaults.RegionFilteredBiz
	}
	if s.ListenAddress == "" {
		s.ListenAddress = defaults.ListenAddress
	}
	if s.LogLevel == "" {
		s.LogLevel = defaults.LogLevel
	}
	if s.LogFormat == "" {
		s.LogFormat = defaults.LogFormat
	}
}
