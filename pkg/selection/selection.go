// Package selection holds the scanned images and which of them are checked.
//
// State is an immutable value: every operation returns a new State and
// leaves the receiver untouched, so the UI can keep it in its model and
// replace it wholesale on each key press.
package selection

import (
	"strings"

	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/filter"
	"imgbundle/pkg/models"
)

// State is the current image list plus the selected subset
type State struct {
	images   []models.ImageRecord
	selected map[string]bool
}

// New creates a State over images with nothing selected
func New(images []models.ImageRecord) State {
	return State{
		images:   append([]models.ImageRecord(nil), images...),
		selected: map[string]bool{},
	}
}

// Replace swaps in a new image list. Selections whose URL is not in the
// new list are dropped.
func (s State) Replace(images []models.ImageRecord) State {
	next := New(images)
	for _, rec := range next.images {
		if s.selected[rec.SourceURL] {
			next.selected[rec.SourceURL] = true
		}
	}
	return next
}

// ApplyFilter recomputes the selection from scratch: exactly the images
// matching c are selected afterwards
func (s State) ApplyFilter(c filter.Criteria) State {
	return s.with(filter.Apply(s.images, c))
}

// SelectLarge applies the large-image preset on top of current, keeping its
// type and size limits
func (s State) SelectLarge(current filter.Criteria) State {
	return s.ApplyFilter(filter.SelectLarge(current))
}

// SelectAll selects every image
func (s State) SelectAll() State {
	urls := make([]string, len(s.images))
	for i, rec := range s.images {
		urls[i] = rec.SourceURL
	}
	return s.with(urls)
}

// SelectNone clears the selection
func (s State) SelectNone() State {
	return s.with(nil)
}

// ToggleAll selects nothing when everything is selected, otherwise everything
func (s State) ToggleAll() State {
	if len(s.images) > 0 && s.Count() == len(s.images) {
		return s.SelectNone()
	}
	return s.SelectAll()
}

// Toggle flips one image. Unknown URLs are ignored.
func (s State) Toggle(url string) State {
	if !s.contains(url) {
		return s
	}
	next := s.clone()
	if next.selected[url] {
		delete(next.selected, url)
	} else {
		next.selected[url] = true
	}
	return next
}

// IsSelected reports whether url is checked
func (s State) IsSelected(url string) bool {
	return s.selected[url]
}

// SelectedURLs returns the checked URLs in document order
func (s State) SelectedURLs() []string {
	out := make([]string, 0, len(s.selected))
	for _, rec := range s.images {
		if s.selected[rec.SourceURL] {
			out = append(out, rec.SourceURL)
		}
	}
	return out
}

// SelectedImages returns the checked records in document order
func (s State) SelectedImages() []models.ImageRecord {
	out := make([]models.ImageRecord, 0, len(s.selected))
	for _, rec := range s.images {
		if s.selected[rec.SourceURL] {
			out = append(out, rec)
		}
	}
	return out
}

// Count is the number of selected images
func (s State) Count() int {
	return len(s.selected)
}

// Len is the number of images
func (s State) Len() int {
	return len(s.images)
}

// Images returns a copy of the image list
func (s State) Images() []models.ImageRecord {
	return append([]models.ImageRecord(nil), s.images...)
}

// CopyText is the selected URLs, one per line
func (s State) CopyText() (string, error) {
	urls := s.SelectedURLs()
	if len(urls) == 0 {
		return "", errs.ErrEmptySelection
	}
	return strings.Join(urls, "\n"), nil
}

func (s State) contains(url string) bool {
	for _, rec := range s.images {
		if rec.SourceURL == url {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	next := State{images: s.images, selected: make(map[string]bool, len(s.selected))}
	for k := range s.selected {
		next.selected[k] = true
	}
	return next
}

func (s State) with(urls []string) State {
	next := State{images: s.images, selected: make(map[string]bool, len(urls))}
	for _, u := range urls {
		next.selected[u] = true
	}
	return next
}
