package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/filter"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/manifest"
	"imgbundle/pkg/scanner"
	"imgbundle/pkg/selection"
	"imgbundle/pkg/ui"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "List the images of a web page",
	Long: `Scan a web page and list every <img> it contains in document order, with
intrinsic dimensions, byte size and file type. Images matching the filter flags
are marked as selected.

The selection can be printed as plain URLs, copied to the clipboard through the
terminal (OSC 52) or exported as a manifest for a later 'imgbundle bundle'.`,
	Example: `  # Table of all images
  imgbundle scan https://example.com/gallery

  # Only PNGs of at least 640 pixels wide, one URL per line
  imgbundle scan https://example.com/gallery --type png --min-width 640 --urls

  # Skip measuring and export a manifest
  imgbundle scan https://example.com/gallery --measure-size=false --export images.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	addFilterFlags(scanCmd)
	scanCmd.Flags().String("export", "", "write a manifest (.json, .yaml or .parquet)")
	scanCmd.Flags().Bool("urls", false, "print only the selected URLs, one per line")
	scanCmd.Flags().Bool("copy", false, "copy the selected URLs to the clipboard")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, logger.ModeConsole)
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}

	pageURL := strings.TrimSpace(args[0])
	criteria, err := a.criteria(cmd)
	if err != nil {
		a.report(err, pageURL)
		return err
	}

	st, resp, err := a.scan(cmd.Context(), pageURL, criteria)
	if err != nil {
		a.report(err, pageURL)
		return err
	}

	urlsOnly, _ := cmd.Flags().GetBool("urls")
	if urlsOnly {
		ui.WriteURLs(os.Stdout, st.SelectedURLs())
	} else {
		printScan(a, st, resp)
	}

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		if err := manifest.FromState(pageURL, st, &criteria).Save(path); err != nil {
			ui.PrintError("Failed to write manifest", err)
			return err
		}
		if !urlsOnly {
			ui.PrintSuccess("Manifest written: " + path)
		}
	}

	if copyURLs, _ := cmd.Flags().GetBool("copy"); copyURLs {
		text, err := st.CopyText()
		if errors.Is(err, errs.ErrEmptySelection) {
			ui.PrintWarning(a.msgs.T(i18n.NoImagesSelected))
			return nil
		}
		if _, err := osc52.New(text).WriteTo(os.Stderr); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		if !urlsOnly {
			ui.PrintSuccess(a.msgs.T(i18n.URLsCopied, st.Count()))
		}
	}
	return nil
}

// scan loads the page and returns its images with the criteria applied
func (a *app) scan(ctx context.Context, pageURL string, criteria filter.Criteria) (selection.State, scanner.Response, error) {
	resp, err := a.scanner.Scan(ctx, scanner.NewRequest(pageURL, a.cfg.Scan.MeasureSize))
	if err != nil {
		return selection.State{}, scanner.Response{}, err
	}
	return selection.New(resp.Images).ApplyFilter(criteria), resp, nil
}

func printScan(a *app, st selection.State, resp scanner.Response) {
	if st.Len() == 0 {
		ui.PrintWarning(a.msgs.T(i18n.NoImagesFound))
		return
	}

	ui.WriteImageTable(ui.Out, st.Images(), st.IsSelected)
	fmt.Fprintln(ui.Out)
	summary := a.msgs.T(i18n.SelectedCount, st.Count(), st.Len())
	if n := selectedBytes(st); n > 0 {
		summary += " • " + humanize.Bytes(uint64(n))
	}
	ui.PrintInfo(a.msgs.T(i18n.ImagesFound, st.Len()), summary)

	if len(resp.Failures) > 0 {
		ui.PrintWarning(fmt.Sprintf("%d images could not be measured", len(resp.Failures)))
		if verbose {
			for _, f := range resp.Failures {
				fmt.Fprintf(ui.Out, "  %s %s\n", ui.Dim("•"), a.msgs.T(i18n.FetchFailed, f.URL))
			}
		}
	}
}

// selectedBytes totals the known sizes of the selected images
func selectedBytes(st selection.State) int64 {
	var total int64
	for _, rec := range st.SelectedImages() {
		total += rec.ByteSize
	}
	return total
}
