package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable the tool reads
const EnvPrefix = "IMGBUNDLE_"

// Config holds all configuration options for imgbundle
type Config struct {
	// HTTP behaviour for page loads and image fetches
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Page scanning
	Scan ScanConfig `yaml:"scan" json:"scan"`

	// Default filter criteria
	Filter FilterConfig `yaml:"filter" json:"filter"`

	// Archive output
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Terminal UI
	UI UIConfig `yaml:"ui" json:"ui"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FetchConfig holds HTTP client configuration
type FetchConfig struct {
	UserAgent           string        `yaml:"user_agent" json:"user_agent"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	MaxConcurrentProbes int           `yaml:"max_concurrent_probes" json:"max_concurrent_probes"`
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	PageRetries         int           `yaml:"page_retries" json:"page_retries"`
	RetryDelay          time.Duration `yaml:"retry_delay" json:"retry_delay"`
	UseStoredCookies    bool          `yaml:"use_stored_cookies" json:"use_stored_cookies"`
}

// ScanConfig holds page scanner configuration
type ScanConfig struct {
	MeasureSize     bool `yaml:"measure_size" json:"measure_size"`
	IncludeDataURIs bool `yaml:"include_data_uris" json:"include_data_uris"`
}

// FilterConfig holds the default filter criteria
type FilterConfig struct {
	MinWidth    int    `yaml:"min_width" json:"min_width"`
	MinHeight   int    `yaml:"min_height" json:"min_height"`
	FileType    string `yaml:"file_type" json:"file_type"`
	MaxByteSize int64  `yaml:"max_byte_size" json:"max_byte_size"`
}

// ArchiveConfig holds archive output configuration
type ArchiveConfig struct {
	Filename          string `yaml:"filename" json:"filename"`
	Directory         string `yaml:"directory" json:"directory"`
	SaveAs            bool   `yaml:"save_as" json:"save_as"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
	CompressionLevel  int    `yaml:"compression_level" json:"compression_level"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// UIConfig holds terminal presentation settings
type UIConfig struct {
	Language     string `yaml:"language" json:"language"`
	ColorEnabled bool   `yaml:"color_enabled" json:"color_enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
	// Quiet suppresses console output; file output is unaffected
	Quiet bool `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:             30 * time.Second,
			MaxConcurrentProbes: 8,
			RequestsPerMinute:   600,
			PageRetries:         2,
			RetryDelay:          time.Second,
			UseStoredCookies:    true,
		},
		Scan: ScanConfig{
			MeasureSize:     true,
			IncludeDataURIs: true,
		},
		Filter: FilterConfig{
			MinWidth:    0,
			MinHeight:   0,
			FileType:    "all",
			MaxByteSize: 0, // 0 means no limit
		},
		Archive: ArchiveConfig{
			Filename:          "images.zip",
			Directory:         ".",
			SaveAs:            true,
			OverwriteExisting: false,
			CompressionLevel:  6,
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		UI: UIConfig{
			Language:     "en",
			ColorEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "text",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := getenv("USER_AGENT"); v != "" {
		c.Fetch.UserAgent = v
	}
	if v := getenv("TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Fetch.Timeout = d
		}
	}
	if v := getenv("MAX_CONCURRENT_PROBES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Fetch.MaxConcurrentProbes = n
		}
	}
	if v := getenv("REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Fetch.RequestsPerMinute = n
		}
	}
	if v := getenv("MEASURE_SIZE"); v != "" {
		c.Scan.MeasureSize = parseBool(v)
	}
	if v := getenv("OUTPUT_DIR"); v != "" {
		c.Archive.Directory = v
	}
	if v := getenv("ARCHIVE_NAME"); v != "" {
		c.Archive.Filename = v
	}
	if v := getenv("NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = parseBool(v)
	}
	if v := getenv("LANG"); v != "" {
		c.UI.Language = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.ToLower(v))
	return err == nil && b
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"imgbundle.yaml",
		"imgbundle.yml",
		".imgbundle.yaml",
		".imgbundle.yml",
		filepath.Join(home, ".config", "imgbundle", "config.yaml"),
		filepath.Join(home, ".config", "imgbundle", "config.yml"),
		filepath.Join(home, ".imgbundle.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.MaxConcurrentProbes <= 0 {
		errs = append(errs, errors.New("max concurrent probes must be positive"))
	}
	if c.Fetch.MaxConcurrentProbes > 64 {
		errs = append(errs, errors.New("max concurrent probes should not exceed 64"))
	}
	if c.Fetch.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Fetch.PageRetries < 0 {
		errs = append(errs, errors.New("page retries cannot be negative"))
	}

	if c.Filter.MinWidth < 0 || c.Filter.MinHeight < 0 {
		errs = append(errs, errors.New("minimum dimensions cannot be negative"))
	}
	if c.Filter.MaxByteSize < 0 {
		errs = append(errs, errors.New("max byte size cannot be negative"))
	}
	if c.Filter.FileType == "" {
		errs = append(errs, errors.New("file type is required (use \"all\" for no restriction)"))
	}

	if c.Archive.Filename == "" {
		errs = append(errs, errors.New("archive filename is required"))
	}
	if c.Archive.Directory == "" {
		errs = append(errs, errors.New("archive directory is required"))
	}
	if c.Archive.CompressionLevel < -1 || c.Archive.CompressionLevel > 9 {
		errs = append(errs, errors.New("compression level must be between -1 and 9"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Fetch.UserAgent = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Fetch.Timeout = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Fetch.MaxConcurrentProbes = v
	}
	if v, ok := flags["no-cookies"].(bool); ok && v {
		c.Fetch.UseStoredCookies = false
	}
	if v, ok := flags["measure-size"].(bool); ok {
		c.Scan.MeasureSize = v
	}
	if v, ok := flags["min-width"].(int); ok {
		c.Filter.MinWidth = v
	}
	if v, ok := flags["min-height"].(int); ok {
		c.Filter.MinHeight = v
	}
	if v, ok := flags["type"].(string); ok && v != "" {
		c.Filter.FileType = strings.ToLower(v)
	}
	if v, ok := flags["max-size"].(int64); ok {
		c.Filter.MaxByteSize = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Archive.Directory = filepath.Dir(v)
		c.Archive.Filename = filepath.Base(v)
	}
	if v, ok := flags["save-as"].(bool); ok {
		c.Archive.SaveAs = v
	}
	if v, ok := flags["overwrite"].(bool); ok && v {
		c.Archive.OverwriteExisting = true
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["lang"].(string); ok && v != "" {
		c.UI.Language = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["quiet"].(bool); ok && v {
		c.Logging.Quiet = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imgbundle.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
