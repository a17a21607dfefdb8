package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"imgbundle/pkg/filter"
	"imgbundle/pkg/models"
)

const maxURLWidth = 72

// WriteImageTable lists images with their size and a selection mark
func WriteImageTable(w io.Writer, images []models.ImageRecord, selected func(string) bool) {
	fmt.Fprintf(w, "%-3s %-4s %-11s %-9s %s\n", "", "TYPE", "SIZE", "BYTES", "URL")
	for _, rec := range images {
		mark := " "
		if selected != nil && selected(rec.SourceURL) {
			mark = Green("✓")
		}
		fmt.Fprintf(w, " %s  %-4s %-11s %-9s %s\n",
			mark,
			ShortType(rec.SourceURL),
			rec.Dimensions(),
			FormatBytes(rec.ByteSize),
			Dim(TruncateURL(rec.SourceURL, maxURLWidth)),
		)
	}
}

// FormatBytes renders a byte count, "-" when unknown
func FormatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// ShortType is the extension shown in lists, capped at four characters
func ShortType(url string) string {
	ext := filter.Extension(url)
	if len(ext) > 4 {
		return ext[:4]
	}
	return ext
}

// TruncateURL shortens long URLs in the middle
func TruncateURL(url string, max int) string {
	if max < 5 || len(url) <= max {
		return url
	}
	keep := (max - 1) / 2
	return url[:keep] + "…" + url[len(url)-(max-1-keep):]
}

// WriteURLs prints one URL per line
func WriteURLs(w io.Writer, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Join(urls, "\n"))
}
