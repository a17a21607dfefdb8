package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"imgbundle/pkg/config"
	"imgbundle/pkg/logger"
)

// DefaultName is used when a request carries no suggested name
const DefaultName = "images.zip"

// SaveRequest describes one file to write
type SaveRequest struct {
	Data          []byte
	SuggestedName string
	// SaveAs asks the user for a name when a prompter is interactive
	SaveAs bool
}

// Saver writes files into a directory
type Saver struct {
	dir       string
	overwrite bool
	prompter  Prompter
	logger    logger.Logger
	mu        sync.Mutex
	saved     int
}

// Option configures a Saver
type Option func(*Saver)

// WithPrompter replaces the terminal prompter
func WithPrompter(p Prompter) Option {
	return func(s *Saver) { s.prompter = p }
}

// NewSaver creates a Saver for the configured directory, creating it if needed
func NewSaver(cfg *config.ArchiveConfig, log logger.Logger, opts ...Option) (*Saver, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Saver{
		dir:       dir,
		overwrite: cfg.OverwriteExisting,
		prompter:  NewTerminalPrompter(),
		logger:    log.WithField("component", "storage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save writes req.Data and returns the final path. Nothing is left on disk
// when it fails.
func (s *Saver) Save(ctx context.Context, req SaveRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.TrimSpace(req.SuggestedName)
	if name == "" {
		name = DefaultName
	}

	if req.SaveAs && s.prompter != nil && s.prompter.Interactive() {
		answer, err := s.prompter.Prompt(name)
		if err != nil {
			return "", fmt.Errorf("failed to read file name: %w", err)
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			name = answer
		}
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.overwrite {
		path = uniquePath(path)
	}
	if err := writeAtomic(path, req.Data); err != nil {
		return "", err
	}
	s.saved++

	s.logger.InfoWithFields("File saved", map[string]interface{}{
		"path":  path,
		"bytes": len(req.Data),
	})
	return path, nil
}

// Dir returns the output directory
func (s *Saver) Dir() string {
	return s.dir
}

// SavedCount returns how many files this Saver has written
func (s *Saver) SavedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// uniquePath returns path, or "name (n).ext" for the first n that is free
func uniquePath(path string) string {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
