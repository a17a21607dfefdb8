package panel

import (
	"context"

	"imgbundle/pkg/archive"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/scanner"
)

// Service is the Backend used by the CLI: real scans, real builds and the
// configured saver
type Service struct {
	Scanner          *scanner.Scanner
	Fetcher          archive.Fetcher
	Saver            archive.Saver
	PageURL          string
	MeasureSize      bool
	CompressionLevel int
	Logger           logger.Logger
}

func (s *Service) Scan(ctx context.Context) (scanner.Response, error) {
	return s.Scanner.Scan(ctx, scanner.NewRequest(s.PageURL, s.MeasureSize))
}

func (s *Service) Build(ctx context.Context, urls []string, onProgress func(archive.Progress)) (*archive.Result, error) {
	return archive.Build(ctx, urls, archive.Options{
		Fetcher:          s.Fetcher,
		OnProgress:       onProgress,
		CompressionLevel: s.CompressionLevel,
		Logger:           s.Logger,
	})
}

// Save never prompts: the panel asks for the name itself
func (s *Service) Save(ctx context.Context, res *archive.Result, name string) (string, error) {
	return archive.Deliver(ctx, res, s.Saver, name, false)
}
