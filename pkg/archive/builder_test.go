package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgbundle/pkg/config"
	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/fetch"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/storage"
)

func newFetcher() *fetch.Client {
	cfg := config.DefaultConfig().Fetch
	cfg.Timeout = 5 * time.Second
	return fetch.NewClient(&cfg, logger.NewNopLogger())
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/one":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("first"))
		case "/two":
			w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
			_, _ = w.Write([]byte("<svg/>"))
		case "/three":
			_, _ = w.Write([]byte("no type"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func TestExtensionForContentType(t *testing.T) {
	tests := map[string]string{
		"image/png":                "png",
		"IMAGE/PNG":                "png",
		"image/jpeg":               "jpg",
		"image/gif":                "gif",
		"image/svg+xml":            "svg",
		"image/svg+xml; charset=x": "svg",
		"image/webp":               "webp",
		"image/bmp":                "bmp",
		"image/avif":               "jpg",
		"text/html":                "jpg",
		"":                         "jpg",
	}
	for ct, want := range tests {
		assert.Equal(t, want, ExtensionForContentType(ct), ct)
	}
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "0001.png", EntryName(1, "png"))
	assert.Equal(t, "9999.jpg", EntryName(9999, "jpg"))
	assert.Equal(t, "10000.gif", EntryName(10000, "gif"))
}

func TestBuildNumbersSuccessfulItems(t *testing.T) {
	srv := imageServer(t)
	urls := []string{srv.URL + "/one", srv.URL + "/missing", srv.URL + "/two"}

	var progress []Progress
	res, err := Build(context.Background(), urls, Options{
		Fetcher:    newFetcher(),
		OnProgress: func(p Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.False(t, res.Empty())
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "0001.png", res.Entries[0].Name)
	assert.Equal(t, "0002.svg", res.Entries[1].Name)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, srv.URL+"/missing", res.Failures[0].URL)
	assert.ErrorIs(t, res.Failures[0].Err, errs.ErrFetchFailed)

	files := readZip(t, res.Data)
	assert.Equal(t, map[string]string{"0001.png": "first", "0002.svg": "<svg/>"}, files)

	require.Len(t, progress, 3)
	assert.InDelta(t, 1.0/3, progress[0].Fraction, 1e-9)
	assert.InDelta(t, 2.0/3, progress[1].Fraction, 1e-9)
	assert.Equal(t, 1.0, progress[2].Fraction)
	assert.Error(t, progress[1].Err)
	assert.Equal(t, "0002.svg", progress[2].Entry)
	for _, p := range progress {
		assert.Equal(t, res.JobID, p.JobID)
	}
}

func TestBuildDefaultsToJPG(t *testing.T) {
	srv := imageServer(t)
	res, err := Build(context.Background(), []string{srv.URL + "/three"}, Options{Fetcher: newFetcher()})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "0001.jpg", res.Entries[0].Name)
}

func TestBuildEmptySelection(t *testing.T) {
	_, err := Build(context.Background(), nil, Options{Fetcher: newFetcher()})
	assert.ErrorIs(t, err, errs.ErrEmptySelection)
}

func TestBuildAllFailed(t *testing.T) {
	srv := imageServer(t)
	res, err := Build(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"}, Options{Fetcher: newFetcher()})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Len(t, res.Failures, 2)
	assert.Empty(t, readZip(t, res.Data))
}

func TestBuildDataURI(t *testing.T) {
	res, err := Build(context.Background(), []string{"data:image/gif;base64,R0lGODlhAQABAAAAACw="}, Options{Fetcher: newFetcher()})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "0001.gif", res.Entries[0].Name)
}

func TestBuildCancelledBetweenItems(t *testing.T) {
	srv := imageServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Build(ctx, []string{srv.URL + "/one", srv.URL + "/two"}, Options{
		Fetcher: newFetcher(),
		OnProgress: func(p Progress) {
			if p.Completed == 1 {
				cancel()
			}
		},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildUniqueJobIDs(t *testing.T) {
	srv := imageServer(t)
	a, err := Build(context.Background(), []string{srv.URL + "/one"}, Options{Fetcher: newFetcher()})
	require.NoError(t, err)
	b, err := Build(context.Background(), []string{srv.URL + "/one"}, Options{Fetcher: newFetcher()})
	require.NoError(t, err)
	assert.NotEqual(t, a.JobID, b.JobID)
}

type failingSaver struct{}

func (failingSaver) Save(ctx context.Context, req storage.SaveRequest) (string, error) {
	return "", errors.New("disk full")
}

func TestDeliver(t *testing.T) {
	srv := imageServer(t)
	res, err := Build(context.Background(), []string{srv.URL + "/one"}, Options{Fetcher: newFetcher()})
	require.NoError(t, err)

	dir := t.TempDir()
	saver, err := storage.NewSaver(&config.ArchiveConfig{Directory: dir}, logger.NewNopLogger())
	require.NoError(t, err)

	path, err := Deliver(context.Background(), res, saver, "", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "images.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Data, data)
}

func TestDeliverSaveFailure(t *testing.T) {
	res := &Result{Data: []byte("zip")}
	_, err := Deliver(context.Background(), res, failingSaver{}, "images.zip", false)
	assert.ErrorIs(t, err, errs.ErrArchivePacking)

	_, err = Deliver(context.Background(), &Result{}, failingSaver{}, "images.zip", false)
	assert.ErrorIs(t, err, errs.ErrArchivePacking)
}
