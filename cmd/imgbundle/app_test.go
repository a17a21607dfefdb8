package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgbundle/pkg/config"
	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/fetch"
	"imgbundle/pkg/filter"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/manifest"
	"imgbundle/pkg/models"
	"imgbundle/pkg/scanner"
	"imgbundle/pkg/selection"
	"imgbundle/pkg/storage"
	"imgbundle/pkg/ui"
)

func newTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addPanelFlags(cmd)
	cmd.Flags().String("from-manifest", "", "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Archive.Directory = t.TempDir()
	cfg.Archive.SaveAs = false
	cfg.Scan.MeasureSize = false

	log := logger.NewNopLogger()
	client := fetch.NewClient(&cfg.Fetch, log)
	return &app{
		cfg:      cfg,
		log:      log,
		msgs:     i18n.New("en"),
		client:   client,
		scanner:  scanner.New(cfg, client, log),
		notifier: ui.NewNotifier(nil),
	}
}

func silenceUI(t *testing.T) {
	t.Helper()
	prev := ui.Out
	ui.Out = io.Discard
	t.Cleanup(func() { ui.Out = prev })
}

func TestCollectFlagsOnlyChanged(t *testing.T) {
	cmd := newTestCmd(t, "--min-width", "200", "--max-size", "2KB", "--output", "out/pics.zip", "--timeout", "5s")

	flags, err := collectFlags(cmd)
	require.NoError(t, err)

	assert.Equal(t, 200, flags["min-width"])
	assert.Equal(t, int64(2000), flags["max-size"])
	assert.Equal(t, "out/pics.zip", flags["output"])
	assert.Equal(t, 5*time.Second, flags["timeout"])

	// defaults must not override file or environment values
	assert.NotContains(t, flags, "measure-size")
	assert.NotContains(t, flags, "min-height")
	assert.NotContains(t, flags, "save-as")
}

func TestCollectFlagsMeasureSizeOff(t *testing.T) {
	cmd := newTestCmd(t, "--measure-size=false")

	flags, err := collectFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, false, flags["measure-size"])

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.False(t, cfg.Scan.MeasureSize)
}

func TestCollectFlagsBadSize(t *testing.T) {
	cmd := newTestCmd(t, "--max-size", "lots")
	_, err := collectFlags(cmd)
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	n, err := parseSize("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = parseSize("1 MiB")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), n)
}

func TestCriteriaLarge(t *testing.T) {
	a := testApp(t)
	a.cfg.Filter.FileType = "png"

	c, err := a.criteria(newTestCmd(t, "--large"))
	require.NoError(t, err)
	assert.Equal(t, 100, c.MinWidth)
	assert.Equal(t, 100, c.MinHeight)
	assert.Equal(t, "png", c.FileType)

	c, err = a.criteria(newTestCmd(t))
	require.NoError(t, err)
	assert.Equal(t, 0, c.MinWidth)
}

func TestFiltersChanged(t *testing.T) {
	assert.False(t, filtersChanged(newTestCmd(t, "--output", "x.zip")))
	assert.True(t, filtersChanged(newTestCmd(t, "--type", "gif")))
	assert.True(t, filtersChanged(newTestCmd(t, "--large")))
}

func TestDescribe(t *testing.T) {
	a := testApp(t)

	assert.Equal(t, "No images selected", a.describe(errs.ErrEmptySelection, ""))
	assert.Equal(t, "No page to scan: give an http or https URL", a.describe(errs.ErrNoTarget, ""))
	assert.Equal(t, "Could not load https://example.com/",
		a.describe(errs.Wrap(errs.KindScanUnreachable, "page load failed", nil), "https://example.com/"))
}

func TestReport(t *testing.T) {
	var buf strings.Builder
	prev := ui.Out
	ui.Out = &buf
	t.Cleanup(func() { ui.Out = prev })

	a := testApp(t)
	a.report(errs.ErrNoTarget, "")
	a.report(errs.Wrap(errs.KindArchivePacking, "zip failed", nil), "")

	assert.Contains(t, buf.String(), "No page to scan")
	assert.Contains(t, buf.String(), "Archive could not be created")
}

func TestSelectedBytes(t *testing.T) {
	st := selection.New([]models.ImageRecord{
		{SourceURL: "https://e.com/a.png", ByteSize: 1000},
		{SourceURL: "https://e.com/b.png", ByteSize: 0},
		{SourceURL: "https://e.com/c.png", ByteSize: 500},
	}).SelectAll().Toggle("https://e.com/c.png")

	assert.Equal(t, int64(1000), selectedBytes(st))
	assert.Equal(t, int64(0), selectedBytes(st.SelectNone()))
}

func TestScanAppliesCriteria(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><body>
			<img src="/a.png"><img src="/b.jpg"><img src="/a.png">
		</body></html>`)
	}))
	defer srv.Close()

	a := testApp(t)
	st, resp, err := a.scan(context.Background(), srv.URL+"/", filter.Criteria{FileType: "png"})
	require.NoError(t, err)

	require.Len(t, resp.Images, 2)
	assert.Equal(t, srv.URL+"/a.png", resp.Images[0].SourceURL)
	assert.Equal(t, srv.URL+"/b.jpg", resp.Images[1].SourceURL)
	assert.Equal(t, []string{srv.URL + "/a.png"}, st.SelectedURLs())
}

func TestSelectURLsNeedsTarget(t *testing.T) {
	a := testApp(t)
	_, _, err := a.selectURLs(newTestCmd(t), "")
	assert.ErrorIs(t, err, errs.ErrNoTarget)
}

func TestSelectURLsFromManifest(t *testing.T) {
	records := []models.ImageRecord{
		{SourceURL: "https://example.com/a.png", Width: 300, Height: 200, ByteSize: 1000},
		{SourceURL: "https://example.com/b.jpg", Width: 50, Height: 50, ByteSize: 500},
	}
	st := selection.New(records).Toggle("https://example.com/b.jpg")
	path := filepath.Join(t.TempDir(), "picked.json")
	require.NoError(t, manifest.FromState("https://example.com/", st, nil).Save(path))

	a := testApp(t)

	urls, pageURL, err := a.selectURLs(newTestCmd(t, "--from-manifest", path), "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", pageURL)
	assert.Equal(t, []string{"https://example.com/b.jpg"}, urls)

	cmd := newTestCmd(t, "--from-manifest", path, "--type", "png")
	flags, err := collectFlags(cmd)
	require.NoError(t, err)
	a.cfg.MergeCommandLineFlags(flags)

	urls, _, err = a.selectURLs(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a.png"}, urls)
}

func imageServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.png":
			w.Header().Set("Content-Type", "image/png")
			io.WriteString(w, "png-bytes")
		case "/b.gif":
			w.Header().Set("Content-Type", "image/gif")
			io.WriteString(w, "gif-bytes")
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestBundleWritesArchive(t *testing.T) {
	silenceUI(t)
	srv := imageServer()
	defer srv.Close()

	a := testApp(t)
	saver, err := storage.NewSaver(&a.cfg.Archive, a.log)
	require.NoError(t, err)

	path, err := a.bundle(context.Background(), []string{
		srv.URL + "/a.png",
		srv.URL + "/missing.png",
		srv.URL + "/b.gif",
	}, saver)
	require.NoError(t, err)
	assert.Equal(t, "images.zip", filepath.Base(path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"0001.png", "0002.gif"}, names)
}

func TestBundleNothingDownloadedStillSaves(t *testing.T) {
	silenceUI(t)
	srv := imageServer()
	defer srv.Close()

	a := testApp(t)
	saver, err := storage.NewSaver(&a.cfg.Archive, a.log)
	require.NoError(t, err)

	path, err := a.bundle(context.Background(), []string{srv.URL + "/gone.png"}, saver)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Empty(t, zr.File)

	entries, err := os.ReadDir(a.cfg.Archive.Directory)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
