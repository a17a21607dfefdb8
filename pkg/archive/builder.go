// Package archive fetches the selected images one at a time and packs them
// into a single zip.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/fetch"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/storage"
)

// Fetcher downloads one image; *fetch.Client implements it
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Saver persists the packed archive; *storage.Saver implements it
type Saver interface {
	Save(ctx context.Context, req storage.SaveRequest) (string, error)
}

// Progress is reported after each item settles
type Progress struct {
	JobID     string
	Completed int
	Total     int
	Fraction  float64
	URL       string
	// Entry is the archive name given to URL, empty when it failed
	Entry string
	Size  int
	Err   error
}

// Options controls one build
type Options struct {
	Fetcher Fetcher
	// OnProgress, if set, is called from the building goroutine
	OnProgress func(Progress)
	// CompressionLevel is a flate level; 0 uses the default
	CompressionLevel int
	Logger           logger.Logger
}

// Entry is one file inside the archive
type Entry struct {
	Name string
	URL  string
	Size int
}

// Failure is an item that could not be fetched
type Failure struct {
	URL string
	Err error
}

// Result is a finished archive held in memory
type Result struct {
	JobID    string
	Data     []byte
	Entries  []Entry
	Failures []Failure
	Total    int
}

// Empty reports whether no item made it into the archive
func (r *Result) Empty() bool {
	return len(r.Entries) == 0
}

var contentTypeExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/svg+xml": "svg",
	"image/webp":    "webp",
	"image/bmp":     "bmp",
}

// ExtensionForContentType maps a Content-Type to a file extension.
// Parameters are ignored; unknown or missing types map to jpg.
func ExtensionForContentType(contentType string) string {
	if ext, ok := contentTypeExtensions[fetch.MediaType(contentType)]; ok {
		return ext
	}
	return "jpg"
}

// EntryName is the archive name of the n-th successful item (1-based).
// Numbers are padded to four digits; from 10000 on they take as many digits
// as they need, so names past 9999 no longer sort lexically.
func EntryName(n int, ext string) string {
	return fmt.Sprintf("%04d.%s", n, ext)
}

// Build fetches urls sequentially in order and packs the successful ones.
// A failed item is recorded and skipped. An empty urls slice fails before
// any work with ErrEmptySelection.
func Build(ctx context.Context, urls []string, opts Options) (*Result, error) {
	if len(urls) == 0 {
		return nil, errs.ErrEmptySelection
	}
	if opts.Fetcher == nil {
		return nil, errs.New(errs.KindInvalidRequest, "archive build needs a fetcher")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	jobID := uuid.New().String()
	log = log.WithFields(map[string]interface{}{
		"component": "archive",
		"job_id":    jobID,
	})
	log.InfoWithFields("Archive build started", map[string]interface{}{"items": len(urls)})

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	level := opts.CompressionLevel
	if level == 0 {
		level = flate.DefaultCompression
	}
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	res := &Result{JobID: jobID, Total: len(urls)}
	modified := time.Now()

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return nil, err
		}

		entry, size, err := addItem(ctx, zw, opts.Fetcher, u, len(res.Entries)+1, modified)
		var packErr *packingError
		if errors.As(err, &packErr) {
			zw.Close()
			return nil, errs.Wrap(errs.KindArchivePacking, "failed to write archive entry", packErr.err)
		}
		if err != nil {
			res.Failures = append(res.Failures, Failure{URL: u, Err: err})
		} else {
			res.Entries = append(res.Entries, Entry{Name: entry, URL: u, Size: size})
		}
		logger.LogArchiveItem(log, jobID, u, entry, err)

		if opts.OnProgress != nil {
			opts.OnProgress(Progress{
				JobID:     jobID,
				Completed: i + 1,
				Total:     len(urls),
				Fraction:  float64(i+1) / float64(len(urls)),
				URL:       u,
				Entry:     entry,
				Size:      size,
				Err:       err,
			})
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errs.Wrap(errs.KindArchivePacking, "failed to finalize archive", err)
	}
	res.Data = buf.Bytes()

	log.InfoWithFields("Archive build finished", map[string]interface{}{
		"entries":  len(res.Entries),
		"failures": len(res.Failures),
		"bytes":    len(res.Data),
	})
	return res, nil
}

type packingError struct{ err error }

func (p *packingError) Error() string { return p.err.Error() }

func addItem(ctx context.Context, zw *zip.Writer, f Fetcher, url string, n int, modified time.Time) (string, int, error) {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return "", 0, err
	}

	name := EntryName(n, ExtensionForContentType(resp.ContentType))
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return "", 0, &packingError{err}
	}
	if _, err := w.Write(resp.Body); err != nil {
		return "", 0, &packingError{err}
	}
	return name, len(resp.Body), nil
}

// Deliver hands the archive to saver and returns the saved path. A save
// failure is reported as ErrArchivePacking.
func Deliver(ctx context.Context, res *Result, saver Saver, name string, saveAs bool) (string, error) {
	if res == nil || res.Data == nil {
		return "", errs.New(errs.KindArchivePacking, "no archive to save")
	}
	if strings.TrimSpace(name) == "" {
		name = storage.DefaultName
	}
	path, err := saver.Save(ctx, storage.SaveRequest{
		Data:          res.Data,
		SuggestedName: name,
		SaveAs:        saveAs,
	})
	if err != nil {
		return "", errs.Wrap(errs.KindArchivePacking, "failed to save archive", err)
	}
	return path, nil
}
