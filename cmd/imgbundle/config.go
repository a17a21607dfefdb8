package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"imgbundle/pkg/config"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage imgbundle configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IMGBUNDLE_*)
  - .env files (./.env and ~/.imgbundle.env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'imgbundle.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

The User-Agent is shortened for display.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Output and log directories can be created`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# imgbundle configuration file
#
# Every option can also be set with an environment variable prefixed with
# IMGBUNDLE_, for example IMGBUNDLE_OUTPUT_DIR or IMGBUNDLE_LOG_LEVEL.

# HTTP behaviour for page loads and image fetches
fetch:
  # User-Agent sent with every request
  user_agent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

  # Timeout of each request
  timeout: 30s

  # Images measured in parallel during a scan
  # Range: 1-64
  max_concurrent_probes: 8

  # Request budget shared by page loads and image fetches
  requests_per_minute: 600

  # Extra attempts when the page itself fails with a retryable status
  page_retries: 2
  retry_delay: 1s

  # Send cookies stored with 'imgbundle auth login'
  use_stored_cookies: true

# Page scanning
scan:
  # Download every image to learn its width, height and byte size
  measure_size: true

  # Keep inline data: images
  include_data_uris: true

# Default filter, applied right after a scan
filter:
  min_width: 0
  min_height: 0
  # png, jpg, gif, svg, webp, ... or all
  file_type: "all"
  # Bytes; 0 means no limit
  max_byte_size: 0

# Archive output
archive:
  filename: "images.zip"
  directory: "."

  # Ask for the file name before saving
  save_as: true

  # Replace an existing file instead of saving as "images (1).zip"
  overwrite_existing: false

  # Deflate level, 1-9 (0 for the default)
  compression_level: 6

# Desktop notifications when an archive finishes
notifications:
  enabled: false
  on_complete: true
  on_error: true

# Terminal
ui:
  # en or ja
  language: "en"
  color_enabled: true

# Logging
logging:
  # debug, info, warn, error, disabled
  level: "info"

  # text or json
  format: "text"

  # Log file; the interactive panel only logs here
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "imgbundle.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("%s already exists", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err)
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file")
	fmt.Println("2. Run 'imgbundle config validate' to check it")
	fmt.Println("3. Open a page with 'imgbundle <url>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}

	displayCfg := *cfg
	displayCfg.Fetch.UserAgent = ui.TruncateURL(displayCfg.Fetch.UserAgent, 48)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err)
		return err
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Printf("2. Environment variables (%s*)\n", config.EnvPrefix)
	if source != "" {
		fmt.Printf("3. Configuration file: %s\n", source)
	} else {
		fmt.Println("3. Configuration file: (none found)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
		if path == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			return fmt.Errorf("no configuration file found")
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return err
	}

	var warnings, problems []string

	if cfg.Archive.Directory != "" {
		if err := os.MkdirAll(cfg.Archive.Directory, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create archive directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if !supportedLanguage(cfg.UI.Language) {
		warnings = append(warnings, fmt.Sprintf("Language %q is not translated; English will be used", cfg.UI.Language))
	}
	if !cfg.Scan.MeasureSize && (cfg.Filter.MinWidth > 0 || cfg.Filter.MinHeight > 0) {
		warnings = append(warnings, "measure_size is off, so minimum dimensions will reject every image")
	}
	if cfg.Fetch.RequestsPerMinute < cfg.Fetch.MaxConcurrentProbes {
		warnings = append(warnings, "requests_per_minute is lower than max_concurrent_probes")
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Archive: %s\n", filepath.Join(cfg.Archive.Directory, cfg.Archive.Filename))
	fmt.Printf("  Parallel probes: %d\n", cfg.Fetch.MaxConcurrentProbes)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.Fetch.RequestsPerMinute)
	fmt.Printf("  Page retries: %d\n", cfg.Fetch.PageRetries)
	fmt.Printf("  Language: %s\n", cfg.UI.Language)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func supportedLanguage(lang string) bool {
	for _, l := range i18n.Supported() {
		if l == lang {
			return true
		}
	}
	return false
}
