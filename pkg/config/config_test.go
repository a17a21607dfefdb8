package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.Fetch.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 8, cfg.Fetch.MaxConcurrentProbes)
	assert.Equal(t, 2, cfg.Fetch.PageRetries)
	assert.True(t, cfg.Scan.MeasureSize)

	assert.Equal(t, "all", cfg.Filter.FileType)
	assert.Equal(t, int64(0), cfg.Filter.MaxByteSize)

	assert.Equal(t, "images.zip", cfg.Archive.Filename)
	assert.True(t, cfg.Archive.SaveAs)
	assert.Equal(t, "en", cfg.UI.Language)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IMGBUNDLE_USER_AGENT", "test-agent")
	t.Setenv("IMGBUNDLE_TIMEOUT", "5s")
	t.Setenv("IMGBUNDLE_MAX_CONCURRENT_PROBES", "3")
	t.Setenv("IMGBUNDLE_MEASURE_SIZE", "false")
	t.Setenv("IMGBUNDLE_OUTPUT_DIR", "/tmp/bundles")
	t.Setenv("IMGBUNDLE_LANG", "ja")
	t.Setenv("IMGBUNDLE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "test-agent", cfg.Fetch.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.MaxConcurrentProbes)
	assert.False(t, cfg.Scan.MeasureSize)
	assert.Equal(t, "/tmp/bundles", cfg.Archive.Directory)
	assert.Equal(t, "ja", cfg.UI.Language)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidDuration(t *testing.T) {
	t.Setenv("IMGBUNDLE_TIMEOUT", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMGBUNDLE_TIMEOUT")
}

func TestLoadFromEnvIgnoresBadNumbers(t *testing.T) {
	t.Setenv("IMGBUNDLE_MAX_CONCURRENT_PROBES", "-4")
	t.Setenv("IMGBUNDLE_REQUESTS_PER_MINUTE", "lots")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 8, cfg.Fetch.MaxConcurrentProbes)
	assert.Equal(t, 600, cfg.Fetch.RequestsPerMinute)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgbundle.yaml")

	content := `
fetch:
  timeout: 10s
  max_concurrent_probes: 4
filter:
  min_width: 200
  min_height: 150
  file_type: png
archive:
  filename: pics.zip
  directory: /tmp/out
ui:
  language: ja
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 4, cfg.Fetch.MaxConcurrentProbes)
	assert.Equal(t, 200, cfg.Filter.MinWidth)
	assert.Equal(t, 150, cfg.Filter.MinHeight)
	assert.Equal(t, "png", cfg.Filter.FileType)
	assert.Equal(t, "pics.zip", cfg.Archive.Filename)
	assert.Equal(t, "/tmp/out", cfg.Archive.Directory)
	assert.Equal(t, "ja", cfg.UI.Language)

	// untouched keys keep their defaults
	assert.True(t, cfg.Scan.MeasureSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fetch: [unclosed"), 0644))
	err = cfg.LoadFromFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch timeout must be positive"},
		{"no probes", func(c *Config) { c.Fetch.MaxConcurrentProbes = 0 }, "max concurrent probes must be positive"},
		{"too many probes", func(c *Config) { c.Fetch.MaxConcurrentProbes = 100 }, "should not exceed 64"},
		{"negative retries", func(c *Config) { c.Fetch.PageRetries = -1 }, "page retries cannot be negative"},
		{"negative width", func(c *Config) { c.Filter.MinWidth = -1 }, "minimum dimensions cannot be negative"},
		{"negative size", func(c *Config) { c.Filter.MaxByteSize = -1 }, "max byte size cannot be negative"},
		{"empty type", func(c *Config) { c.Filter.FileType = "" }, "file type is required"},
		{"empty filename", func(c *Config) { c.Archive.Filename = "" }, "archive filename is required"},
		{"bad compression", func(c *Config) { c.Archive.CompressionLevel = 12 }, "compression level"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.Timeout = 0
	cfg.Archive.Filename = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch timeout")
	assert.Contains(t, err.Error(), "archive filename")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"min-width":    300,
		"type":         "PNG",
		"max-size":     int64(2048),
		"output":       "/tmp/x/shots.zip",
		"save-as":      false,
		"measure-size": false,
		"lang":         "ja",
		"quiet":        true,
		"concurrent":   2,
		"no-cookies":   true,
	})

	assert.Equal(t, 300, cfg.Filter.MinWidth)
	assert.Equal(t, "png", cfg.Filter.FileType)
	assert.Equal(t, int64(2048), cfg.Filter.MaxByteSize)
	assert.Equal(t, "/tmp/x", cfg.Archive.Directory)
	assert.Equal(t, "shots.zip", cfg.Archive.Filename)
	assert.False(t, cfg.Archive.SaveAs)
	assert.False(t, cfg.Scan.MeasureSize)
	assert.Equal(t, "ja", cfg.UI.Language)
	assert.True(t, cfg.Logging.Quiet)
	assert.Equal(t, 2, cfg.Fetch.MaxConcurrentProbes)
	assert.False(t, cfg.Fetch.UseStoredCookies)
}

func TestMergeCommandLineFlagsEmptyMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(nil)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Filter.MinWidth = 640
	cfg.UI.Language = "ja"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "filter")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 640, loaded.Filter.MinWidth)
	assert.Equal(t, "ja", loaded.UI.Language)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filter:\n  min_width: 50\nlogging:\n  level: warn\n"), 0644))

	t.Setenv("IMGBUNDLE_LOG_LEVEL", "error")

	cfg, err := Load(path, map[string]interface{}{"min-width": 75})
	require.NoError(t, err)

	// flag beats file
	assert.Equal(t, 75, cfg.Filter.MinWidth)
	// env beats file
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  max_concurrent_probes: -1\n"), 0644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
