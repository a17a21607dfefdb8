package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"imgbundle/pkg/archive"
	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/fetch"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/manifest"
	"imgbundle/pkg/storage"
	"imgbundle/pkg/ui"
)

// bundleCmd represents the bundle command
var bundleCmd = &cobra.Command{
	Use:   "bundle [url]",
	Short: "Download the selected images of a page as one zip",
	Long: `Scan a web page, select the images matching the filter flags and download
them one after another into a single zip archive. Entries are named 0001.png,
0002.jpg, ... in document order. Images that fail to download are skipped and
reported at the end.

With --from-manifest the selection is read from a manifest written by
'imgbundle scan --export' and no scan is made.`,
	Example: `  # Everything on the page
  imgbundle bundle https://example.com/gallery

  # Large JPEGs into a named archive
  imgbundle bundle https://example.com/gallery --large --type jpg -o photos.zip

  # Re-download an exported selection
  imgbundle bundle --from-manifest images.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBundle,
}

func init() {
	rootCmd.AddCommand(bundleCmd)

	addFilterFlags(bundleCmd)
	addArchiveFlags(bundleCmd)
	bundleCmd.Flags().String("from-manifest", "", "read the selection from a manifest instead of scanning")
}

func runBundle(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, logger.ModeConsole)
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}

	var pageURL string
	if len(args) > 0 {
		pageURL = strings.TrimSpace(args[0])
	}

	urls, pageURL, err := a.selectURLs(cmd, pageURL)
	if err != nil {
		a.report(err, pageURL)
		return err
	}
	if len(urls) == 0 {
		ui.PrintWarning(a.msgs.T(i18n.NoImagesSelected))
		return errs.ErrEmptySelection
	}

	saver, err := storage.NewSaver(&a.cfg.Archive, a.log)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err)
		return err
	}

	ctx := cmd.Context()
	if pageURL != "" {
		ctx = fetch.WithReferer(ctx, pageURL)
	}
	_, err = a.bundle(ctx, urls, saver)
	return err
}

// selectURLs returns the URLs to download and the page they came from
func (a *app) selectURLs(cmd *cobra.Command, pageURL string) ([]string, string, error) {
	path, _ := cmd.Flags().GetString("from-manifest")
	if path == "" {
		if pageURL == "" {
			return nil, "", errs.ErrNoTarget
		}
		criteria, err := a.criteria(cmd)
		if err != nil {
			return nil, pageURL, err
		}
		st, _, err := a.scan(cmd.Context(), pageURL, criteria)
		if err != nil {
			return nil, pageURL, err
		}
		return st.SelectedURLs(), pageURL, nil
	}

	m, err := manifest.Load(path)
	if err != nil {
		return nil, pageURL, errs.Wrap(errs.KindInvalidRequest, "failed to read manifest", err)
	}
	if pageURL == "" {
		pageURL = m.PageURL
	}
	if !filtersChanged(cmd) {
		return m.SelectedURLs(), pageURL, nil
	}
	criteria, err := a.criteria(cmd)
	if err != nil {
		return nil, pageURL, err
	}
	return m.State().ApplyFilter(criteria).SelectedURLs(), pageURL, nil
}

// bundle builds the archive with a progress line and saves it
func (a *app) bundle(ctx context.Context, urls []string, saver *storage.Saver) (string, error) {
	display := ui.NewProgressDisplay(os.Stderr, len(urls), verbose)

	res, err := archive.Build(ctx, urls, archive.Options{
		Fetcher: a.client,
		OnProgress: func(p archive.Progress) {
			display.Update(p.Completed, p.URL, int64(p.Size), p.Err)
		},
		CompressionLevel: a.cfg.Archive.CompressionLevel,
		Logger:           a.log,
	})
	if err != nil {
		msg := a.msgs.T(i18n.ArchiveFailed, err)
		ui.PrintError(msg)
		a.notifier.Error(msg)
		return "", err
	}

	// an archive with no entries is still saved
	path, err := archive.Deliver(ctx, res, saver, a.cfg.Archive.Filename, a.cfg.Archive.SaveAs)
	if err != nil {
		msg := a.describe(err, "")
		ui.PrintError(msg)
		a.notifier.Error(msg)
		return "", err
	}
	display.Complete(path)

	if res.Empty() {
		msg := a.msgs.T(i18n.NothingDownloaded)
		ui.PrintWarning(msg)
		a.notifier.Error(msg)
		return path, nil
	}

	text := a.msgs.T(i18n.ArchiveSaved, len(res.Entries), path)
	if n := len(res.Failures); n > 0 {
		text += " • " + a.msgs.T(i18n.ItemsSkipped, n)
	}
	ui.PrintSuccess(text)
	a.notifier.Complete(text)
	return path, nil
}
