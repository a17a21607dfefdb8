package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"imgbundle/pkg/ui"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	language   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imgbundle [url]",
	Short: "Find the images on a web page and bundle them into a zip",
	Long: `imgbundle scans a web page for <img> elements, measures each image and lets
you filter and select them before downloading the selection as one zip archive.

Features:
  - Intrinsic width, height and byte size for every image
  - Filters by minimum dimensions, file type and maximum size
  - Interactive picker with keyboard selection
  - Sequential archive build with per-item progress
  - Manifest export to JSON, YAML or Parquet
  - Stored per-host cookies for pages behind a login

Run with a single URL to open the interactive picker.`,
	Example: `  # Pick images interactively
  imgbundle https://example.com/gallery

  # List the images larger than 100x100
  imgbundle scan https://example.com/gallery --large

  # Download every PNG into ./out/pngs.zip
  imgbundle bundle https://example.com/gallery --type png --output out/pngs.zip`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runPanel(cmd, args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./imgbundle.yaml or ~/.config/imgbundle/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "message language (en, ja)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print one line per downloaded image")

	addPanelFlags(rootCmd)

	rootCmd.SetVersionTemplate(`imgbundle {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate)
}
