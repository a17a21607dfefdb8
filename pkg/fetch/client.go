package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"imgbundle/pkg/config"
	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/ratelimit"
)

const (
	acceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptImage = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
)

// CookieSource supplies the Cookie header for a host; auth.Manager implements it
type CookieSource interface {
	CookieFor(host string) string
}

// Response is a fully read HTTP response
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// MediaType returns the Content-Type without parameters, lowercased
func (r *Response) MediaType() string {
	return MediaType(r.ContentType)
}

// Stream is an open response body. Callers must Close it.
type Stream struct {
	URL           string
	StatusCode    int
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

func (s *Stream) Close() error {
	return s.Body.Close()
}

// Client performs the HTTP requests of a scan or archive build
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	cookies    CookieSource
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter paces every network request through l
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithCookies attaches per-host cookies to requests
func WithCookies(src CookieSource) Option {
	return func(c *Client) { c.cookies = src }
}

// WithHeader sets a default request header
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient creates a fetch client from the fetch configuration
func NewClient(cfg *config.FetchConfig, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		limiter: ratelimit.Unlimited{},
		logger:  log,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type refererKey struct{}

// WithReferer returns a context whose requests carry the given Referer,
// matching what a browser sends for images embedded in a page
func WithReferer(ctx context.Context, referer string) context.Context {
	return context.WithValue(ctx, refererKey{}, referer)
}

// GetPage fetches an HTML document. Non-2xx statuses and non-HTML content
// types are reported as fetch errors.
func (c *Client) GetPage(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := c.get(ctx, rawURL, acceptHTML)
	if err != nil {
		return nil, err
	}

	mt := resp.MediaType()
	if mt != "" && mt != "text/html" && mt != "application/xhtml+xml" {
		return nil, &errs.Error{
			Kind:    errs.KindFetchFailed,
			Message: fmt.Sprintf("not an HTML document (%s)", mt),
			URL:     rawURL,
			Code:    resp.StatusCode,
		}
	}
	return resp, nil
}

// Get fetches a resource and reads its whole body
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.get(ctx, rawURL, acceptImage)
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (*Response, error) {
	s, err := c.open(ctx, rawURL, accept)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	body, err := io.ReadAll(s.Body)
	if err != nil {
		return nil, errs.FetchError(rawURL, 0, fmt.Errorf("failed to read response body: %w", err))
	}

	return &Response{
		URL:         s.URL,
		StatusCode:  s.StatusCode,
		ContentType: s.ContentType,
		Body:        body,
	}, nil
}

// Open starts a request and returns the body unread, so probes can stop
// after the image header
func (c *Client) Open(ctx context.Context, rawURL string) (*Stream, error) {
	return c.open(ctx, rawURL, acceptImage)
}

func (c *Client) open(ctx context.Context, rawURL, accept string) (*Stream, error) {
	if IsDataURI(rawURL) {
		mediaType, data, err := ParseDataURI(rawURL)
		if err != nil {
			return nil, errs.FetchError(truncate(rawURL), 0, err)
		}
		return &Stream{
			URL:           rawURL,
			StatusCode:    http.StatusOK,
			ContentType:   mediaType,
			ContentLength: int64(len(data)),
			Body:          io.NopCloser(bytes.NewReader(data)),
		}, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.FetchError(rawURL, 0, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errs.FetchError(rawURL, 0, fmt.Errorf("unsupported URL scheme %q", u.Scheme))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.FetchError(rawURL, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.FetchError(rawURL, 0, fmt.Errorf("failed to create request: %w", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", accept)
	if ref, ok := ctx.Value(refererKey{}).(string); ok && ref != "" {
		req.Header.Set("Referer", ref)
	}
	if c.cookies != nil {
		if cookie := c.cookies.CookieFor(u.Hostname()); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      rawURL,
			"duration": time.Since(start),
		})
		return nil, errs.FetchError(rawURL, 0, err)
	}
	logger.LogRequest(c.logger, req.Method, rawURL, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		resp.Body.Close()
		return nil, errs.FetchError(rawURL, resp.StatusCode, nil)
	}

	return &Stream{
		URL:           resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

// MediaType returns a Content-Type value without parameters, lowercased
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
