package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"imgbundle/pkg/logger"
	"imgbundle/pkg/manifest"
	"imgbundle/pkg/storage"
	"imgbundle/pkg/ui"
	"imgbundle/pkg/ui/panel"
)

// panelCmd represents the panel command
var panelCmd = &cobra.Command{
	Use:   "panel <url>",
	Short: "Pick images from a page interactively",
	Long: `Open the interactive picker for a web page. The page is scanned on start and
every image is listed with its dimensions, size and type.

Keys:
  ↑/↓ j/k   move            space   toggle image
  a         toggle all      n       select none
  l         select large    f       edit filter
  d         download zip    c       copy selected URLs
  y         copy URL        r       rescan
  q         quit

Log output goes to the configured log file only while the picker is open.`,
	Example: `  imgbundle panel https://example.com/gallery

  # Same as above
  imgbundle https://example.com/gallery

  # Start with the large preset and keep the final selection
  imgbundle panel https://example.com/gallery --large --export picked.json`,
	Args: cobra.ExactArgs(1),
	RunE: runPanel,
}

func init() {
	rootCmd.AddCommand(panelCmd)
	addPanelFlags(panelCmd)
}

func addPanelFlags(cmd *cobra.Command) {
	addFilterFlags(cmd)
	addArchiveFlags(cmd)
	cmd.Flags().String("export", "", "write the final selection to a manifest on quit")
}

func runPanel(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, logger.ModeFileOnly)
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}

	pageURL := strings.TrimSpace(args[0])
	criteria, err := a.criteria(cmd)
	if err != nil {
		ui.PrintError(a.describe(err, pageURL))
		return err
	}

	saver, err := storage.NewSaver(&a.cfg.Archive, a.log)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err)
		return err
	}

	svc := &panel.Service{
		Scanner:          a.scanner,
		Fetcher:          a.client,
		Saver:            saver,
		PageURL:          pageURL,
		MeasureSize:      a.cfg.Scan.MeasureSize,
		CompressionLevel: a.cfg.Archive.CompressionLevel,
		Logger:           a.log,
	}

	st, err := panel.Run(cmd.Context(), svc, panel.Options{
		PageURL:     pageURL,
		Criteria:    criteria,
		ArchiveName: a.cfg.Archive.Filename,
		SaveAs:      a.cfg.Archive.SaveAs,
		Messages:    a.msgs,
		Notifier:    a.notifier,
		Logger:      a.log,
	})
	if err != nil {
		ui.PrintError("Panel failed", err)
		return err
	}

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		if err := manifest.FromState(pageURL, st, &criteria).Save(path); err != nil {
			ui.PrintError("Failed to write manifest", err)
			return err
		}
		ui.PrintSuccess("Manifest written: " + path)
	}
	if n := saver.SavedCount(); n > 0 {
		ui.PrintInfo("Archives saved", fmt.Sprintf("%d in %s", n, saver.Dir()))
	}
	return nil
}
