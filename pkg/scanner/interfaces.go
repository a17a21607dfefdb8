package scanner

import (
	"context"

	"imgbundle/internal/probe"
	"imgbundle/pkg/fetch"
)

// PageFetcher loads pages and opens images; *fetch.Client implements it
type PageFetcher interface {
	GetPage(ctx context.Context, url string) (*fetch.Response, error)
	probe.Opener
}
