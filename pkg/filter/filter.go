// Package filter decides which scanned images match the user's criteria.
//
// Every function here is pure: applying the same criteria to the same
// images always yields the same set, and applying it twice is the same as
// applying it once.
package filter

import (
	"errors"
	"strings"

	"imgbundle/pkg/config"
	"imgbundle/pkg/models"
)

// AllTypes matches every extension
const AllTypes = "all"

// Criteria holds the thresholds an image must meet
type Criteria struct {
	MinWidth  int    `json:"min_width" yaml:"min_width"`
	MinHeight int    `json:"min_height" yaml:"min_height"`
	FileType  string `json:"file_type" yaml:"file_type"`
	// MaxByteSize of 0 means no limit
	MaxByteSize int64 `json:"max_byte_size" yaml:"max_byte_size"`
}

// Default matches everything
func Default() Criteria {
	return Criteria{FileType: AllTypes}
}

// Large is the preset behind "select large": 100x100 of any type and size
func Large() Criteria {
	return Criteria{MinWidth: 100, MinHeight: 100, FileType: AllTypes}
}

// FromConfig builds criteria from the filter configuration
func FromConfig(cfg *config.FilterConfig) Criteria {
	return Criteria{
		MinWidth:    cfg.MinWidth,
		MinHeight:   cfg.MinHeight,
		FileType:    cfg.FileType,
		MaxByteSize: cfg.MaxByteSize,
	}
}

// Validate rejects negative thresholds
func (c Criteria) Validate() error {
	var errs []error
	if c.MinWidth < 0 {
		errs = append(errs, errors.New("min width cannot be negative"))
	}
	if c.MinHeight < 0 {
		errs = append(errs, errors.New("min height cannot be negative"))
	}
	if c.MaxByteSize < 0 {
		errs = append(errs, errors.New("max size cannot be negative"))
	}
	return errors.Join(errs...)
}

// MatchesAll reports whether c lets every image through
func (c Criteria) MatchesAll() bool {
	return c.MinWidth <= 0 && c.MinHeight <= 0 && c.fileType() == AllTypes && c.MaxByteSize <= 0
}

func (c Criteria) fileType() string {
	t := strings.ToLower(strings.TrimSpace(c.FileType))
	t = strings.TrimPrefix(t, ".")
	if t == "" {
		return AllTypes
	}
	return t
}

// Extension returns what follows the last "." of url with any query or
// fragment removed, lowercased. A URL without a "." yields the whole URL
// treated the same way.
func Extension(url string) string {
	ext := url
	if i := strings.LastIndex(url, "."); i >= 0 {
		ext = url[i+1:]
	}
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	return strings.ToLower(ext)
}

// Matches reports whether rec satisfies every threshold of c
func Matches(rec models.ImageRecord, c Criteria) bool {
	if rec.Width < c.MinWidth || rec.Height < c.MinHeight {
		return false
	}
	if t := c.fileType(); t != AllTypes && Extension(rec.SourceURL) != t {
		return false
	}
	if c.MaxByteSize > 0 && rec.ByteSize > c.MaxByteSize {
		return false
	}
	return true
}

// Apply returns the URLs of the matching images in input order
func Apply(images []models.ImageRecord, c Criteria) []string {
	out := make([]string, 0, len(images))
	for _, rec := range images {
		if Matches(rec, c) {
			out = append(out, rec.SourceURL)
		}
	}
	return out
}

// Filter returns the matching records themselves, in input order
func Filter(images []models.ImageRecord, c Criteria) []models.ImageRecord {
	out := make([]models.ImageRecord, 0, len(images))
	for _, rec := range images {
		if Matches(rec, c) {
			out = append(out, rec)
		}
	}
	return out
}

// SelectLarge replaces only the dimension thresholds of current with the
// Large preset, keeping the type and size limits the user chose
func SelectLarge(current Criteria) Criteria {
	large := Large()
	current.MinWidth = large.MinWidth
	current.MinHeight = large.MinHeight
	return current
}

// Types lists the distinct extensions among images, in first-seen order
func Types(images []models.ImageRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range images {
		ext := Extension(rec.SourceURL)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
