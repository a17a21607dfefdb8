// Package models holds the records shared by the scanner, filter, selection
// and manifest packages.
package models

import "fmt"

// ImageRecord describes one image discovered on a page. SourceURL is
// absolute and unique within a scan. Width and Height are the intrinsic
// pixel dimensions; ByteSize is 0 when the size is unknown or the image
// could not be fetched.
type ImageRecord struct {
	SourceURL string `json:"source_url" yaml:"source_url"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	ByteSize  int64  `json:"byte_size" yaml:"byte_size"`
}

// Dimensions formats the record as "WxH", or "?" when unknown
func (r ImageRecord) Dimensions() string {
	if r.Width == 0 && r.Height == 0 {
		return "?"
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ProbeFailure records why an image's metadata could not be read
type ProbeFailure struct {
	URL string `json:"url" yaml:"url"`
	Err string `json:"error" yaml:"error"`
}
