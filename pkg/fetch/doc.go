// Package fetch is the HTTP client behind page scans, image probes and
// archive builds.
//
// Every request carries the configured User-Agent, the Cookie stored for the
// target host (mirroring a browser's credentialed same-site request) and,
// when set on the context, a Referer. Requests are paced by a shared
// ratelimit.Limiter. data: URIs never touch the network; they are decoded
// in-process and reported with their declared media type.
//
// Failures are returned as *errors.Error of kind fetch_failed carrying the URL
// and, for HTTP failures, the status code.
package fetch
