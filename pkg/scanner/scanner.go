package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"imgbundle/internal/probe"
	"imgbundle/pkg/config"
	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/fetch"
	"imgbundle/pkg/filter"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/models"
	"imgbundle/pkg/retry"
)

// ActionGetImages is the only action a scan request may carry
const ActionGetImages = "getImages"

// Request asks for the images of one page
type Request struct {
	Action  string
	PageURL string
	// Criteria, when set, is applied before the response is returned
	Criteria    *filter.Criteria
	MeasureSize bool
}

// Response lists the page's images in document order
type Response struct {
	PageURL  string
	Images   []models.ImageRecord
	Failures []models.ProbeFailure
}

// Scanner runs page scans
type Scanner struct {
	fetcher PageFetcher
	cfg     *config.Config
	logger  logger.Logger
}

// New creates a Scanner
func New(cfg *config.Config, fetcher PageFetcher, log logger.Logger) *Scanner {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Scanner{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  log.WithField("component", "scanner"),
	}
}

// NewRequest builds a getImages request for pageURL
func NewRequest(pageURL string, measureSize bool) Request {
	return Request{Action: ActionGetImages, PageURL: pageURL, MeasureSize: measureSize}
}

// Validate checks the request before any network activity
func (r Request) Validate() error {
	if r.Action != ActionGetImages {
		return errs.New(errs.KindInvalidRequest, fmt.Sprintf("unknown action %q", r.Action))
	}
	target := strings.TrimSpace(r.PageURL)
	if target == "" {
		return errs.New(errs.KindNoTarget, "no page URL given")
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &errs.Error{Kind: errs.KindNoTarget, Message: "page URL must be http or https", URL: target}
	}
	if r.Criteria != nil {
		if err := r.Criteria.Validate(); err != nil {
			return errs.Wrap(errs.KindInvalidRequest, "invalid filter criteria", err)
		}
	}
	return nil
}

// Scan loads the page, enumerates its images and probes each of them
func (s *Scanner) Scan(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	pageURL := strings.TrimSpace(req.PageURL)
	start := time.Now()

	log := s.logger.WithField("page", pageURL)
	log.Info("Scanning page")

	page, err := s.loadPage(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, &errs.Error{
			Kind:    errs.KindScanUnreachable,
			Message: "could not load page",
			URL:     pageURL,
			Err:     err,
		}
	}

	urls, err := ExtractImageURLs(page.URL, bytes.NewReader(page.Body), s.cfg.Scan.IncludeDataURIs)
	if err != nil {
		return Response{}, &errs.Error{
			Kind:    errs.KindScanUnreachable,
			Message: "could not parse page",
			URL:     pageURL,
			Err:     err,
		}
	}
	log.DebugWithFields("Images found", map[string]interface{}{"count": len(urls)})

	prober := probe.NewProber(s.fetcher, req.MeasureSize)
	probeCtx := fetch.WithReferer(ctx, page.URL)
	images, failures, err := probe.Run(probeCtx, urls, s.cfg.Fetch.MaxConcurrentProbes, prober, log)
	if err != nil {
		return Response{}, err
	}

	for _, f := range failures {
		log.WithField("url", f.URL).DebugWithFields("Probe failed", map[string]interface{}{"error": f.Err})
	}

	if req.Criteria != nil {
		images = filter.Filter(images, *req.Criteria)
	}

	logger.LogScanSummary(log, pageURL, len(images), len(failures), time.Since(start))

	return Response{PageURL: page.URL, Images: images, Failures: failures}, nil
}

func (s *Scanner) loadPage(ctx context.Context, pageURL string) (*fetch.Response, error) {
	delay := s.cfg.Fetch.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	rc := &retry.Config{
		MaxAttempts: s.cfg.Fetch.PageRetries + 1,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    delay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Logger:  s.logger,
	}
	return retry.DoWithResult(ctx, func(ctx context.Context) (*fetch.Response, error) {
		return s.fetcher.GetPage(ctx, pageURL)
	}, rc)
}

// ExtractImageURLs returns the resolved source of every <img> element in
// document order, each URL once. The src attribute wins over data-src.
// Sources that do not resolve to http(s) are dropped, as are data: URIs
// unless includeDataURIs is set.
func ExtractImageURLs(pageURL string, body io.Reader, includeDataURIs bool) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	seen := make(map[string]bool)
	urls := make([]string, 0)
	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(sel.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}

		resolved, ok := resolve(base, src, includeDataURIs)
		if !ok || seen[resolved] {
			return
		}
		seen[resolved] = true
		urls = append(urls, resolved)
	})

	return urls, nil
}

func resolve(base *url.URL, src string, includeDataURIs bool) (string, bool) {
	if fetch.IsDataURI(src) {
		return src, includeDataURIs
	}
	u, err := base.Parse(src)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}
