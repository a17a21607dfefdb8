// Package manifest records a scan result and its selection in a file that
// can be inspected elsewhere or fed back into a later bundle run.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"imgbundle/pkg/filter"
	"imgbundle/pkg/models"
	"imgbundle/pkg/selection"
)

// Supported formats, chosen by file extension
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatParquet = "parquet"
)

// Manifest describes one scanned page
type Manifest struct {
	PageURL   string           `json:"page_url" yaml:"page_url"`
	ScannedAt time.Time        `json:"scanned_at" yaml:"scanned_at"`
	Criteria  *filter.Criteria `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Images    []Entry          `json:"images" yaml:"images"`
}

// Entry is one image of the page
type Entry struct {
	URL         string `json:"url" yaml:"url"`
	Width       int    `json:"width" yaml:"width"`
	Height      int    `json:"height" yaml:"height"`
	ByteSize    int64  `json:"byte_size,omitempty" yaml:"byte_size,omitempty"`
	Extension   string `json:"extension" yaml:"extension"`
	AspectRatio string `json:"aspect_ratio" yaml:"aspect_ratio"`
	Selected    bool   `json:"selected" yaml:"selected"`
}

// parquetRow flattens the manifest; page fields repeat on every row
type parquetRow struct {
	PageURL     string `parquet:"page_url"`
	ScannedAt   int64  `parquet:"scanned_at_ms"`
	URL         string `parquet:"url"`
	Width       int64  `parquet:"width"`
	Height      int64  `parquet:"height"`
	ByteSize    int64  `parquet:"byte_size"`
	Extension   string `parquet:"extension"`
	AspectRatio string `parquet:"aspect_ratio"`
	Selected    bool   `parquet:"selected"`
}

// FromState builds a manifest of every image in st with its selection flag
func FromState(pageURL string, st selection.State, criteria *filter.Criteria) *Manifest {
	m := &Manifest{
		PageURL:   pageURL,
		ScannedAt: time.Now().UTC().Truncate(time.Millisecond),
		Criteria:  criteria,
	}
	for _, rec := range st.Images() {
		m.Images = append(m.Images, Entry{
			URL:         rec.SourceURL,
			Width:       rec.Width,
			Height:      rec.Height,
			ByteSize:    rec.ByteSize,
			Extension:   filter.Extension(rec.SourceURL),
			AspectRatio: AspectRatio(rec.Width, rec.Height),
			Selected:    st.IsSelected(rec.SourceURL),
		})
	}
	return m
}

// Records returns the image records in manifest order
func (m *Manifest) Records() []models.ImageRecord {
	out := make([]models.ImageRecord, len(m.Images))
	for i, e := range m.Images {
		out[i] = models.ImageRecord{SourceURL: e.URL, Width: e.Width, Height: e.Height, ByteSize: e.ByteSize}
	}
	return out
}

// SelectedURLs returns the URLs flagged as selected, in manifest order
func (m *Manifest) SelectedURLs() []string {
	var out []string
	for _, e := range m.Images {
		if e.Selected {
			out = append(out, e.URL)
		}
	}
	return out
}

// State rebuilds the selection the manifest was written from
func (m *Manifest) State() selection.State {
	st := selection.New(m.Records())
	for _, u := range m.SelectedURLs() {
		st = st.Toggle(u)
	}
	return st
}

// FormatFor returns the format implied by path's extension
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported manifest format: %s (supported: .json, .yaml, .yml, .parquet)", filepath.Ext(path))
	}
}

// Save writes the manifest in the format implied by path
func (m *Manifest) Save(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	data, err := m.Encode(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// Encode renders the manifest in format
func (m *Manifest) Encode(format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal manifest: %w", err)
		}
		return data, nil
	case FormatYAML:
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal manifest: %w", err)
		}
		return data, nil
	case FormatParquet:
		return m.encodeParquet()
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", format)
	}
}

func (m *Manifest) encodeParquet() ([]byte, error) {
	rows := make([]parquetRow, len(m.Images))
	for i, e := range m.Images {
		rows[i] = parquetRow{
			PageURL:     m.PageURL,
			ScannedAt:   m.ScannedAt.UnixMilli(),
			URL:         e.URL,
			Width:       int64(e.Width),
			Height:      int64(e.Height),
			ByteSize:    e.ByteSize,
			Extension:   e.Extension,
			AspectRatio: e.AspectRatio,
			Selected:    e.Selected,
		}
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[parquetRow](&buf)
	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads a manifest written by Save
func Load(path string) (*Manifest, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return Decode(data, format)
}

// Decode parses data in format
func Decode(data []byte, format string) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
		}
	case FormatParquet:
		return decodeParquet(data)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", format)
	}
	return &m, nil
}

func decodeParquet(data []byte) (*Manifest, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	m := &Manifest{}
	rows := make([]parquetRow, 128)
	for {
		n, err := reader.Read(rows)
		for _, r := range rows[:n] {
			if m.PageURL == "" {
				m.PageURL = r.PageURL
				m.ScannedAt = time.UnixMilli(r.ScannedAt).UTC()
			}
			m.Images = append(m.Images, Entry{
				URL:         r.URL,
				Width:       int(r.Width),
				Height:      int(r.Height),
				ByteSize:    r.ByteSize,
				Extension:   r.Extension,
				AspectRatio: r.AspectRatio,
				Selected:    r.Selected,
			})
		}
		if err != nil {
			break
		}
	}
	return m, nil
}

// AspectRatio names common ratios and formats the rest as "x.xx:1"
func AspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "unknown"
	}

	ratio := float64(width) / float64(height)

	switch {
	case ratio > 1.7 && ratio < 1.8:
		return "16:9"
	case ratio > 1.3 && ratio < 1.4:
		return "4:3"
	case ratio > 0.9 && ratio < 1.1:
		return "1:1"
	case ratio > 0.55 && ratio < 0.57:
		return "9:16"
	case ratio > 0.74 && ratio < 0.76:
		return "3:4"
	default:
		return fmt.Sprintf("%.2f:1", ratio)
	}
}
