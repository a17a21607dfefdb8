// Package retry provides exponential backoff and retry logic for transient
// network failures, used when loading the target page.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		resp, err := client.Get(ctx, pageURL)
//		...
//	}, &retry.Config{
//		MaxAttempts: cfg.Fetch.PageRetries + 1,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      log,
//	})
//
// DefaultRetryIf retries transport errors, 408, 429 and 5xx responses and
// never retries 401/403/404/410 or a cancelled context.
package retry
