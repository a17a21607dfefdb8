// Package ratelimit paces the HTTP requests imgbundle makes against a site.
//
// The TokenBucket holds a fixed number of tokens that refill all at once
// after each period. Page loads and image probes share one bucket so a scan
// of an image-heavy page does not exceed fetch.requests_per_minute.
//
//	limiter := ratelimit.PerMinute(cfg.Fetch.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
