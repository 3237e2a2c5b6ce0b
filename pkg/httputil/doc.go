// Package httputil provides HTTP helpers shared by the catalog client.
//
// [Retry] wraps a remote call with automatic retry for transient failures.
// Only errors wrapped in [RetryableError] are retried:
//
//   - Network errors
//   - 5xx server errors
//
// 4xx responses and decode failures are returned immediately. The delay
// doubles after each failed attempt and every wait honours context
// cancellation, so a superseded search stops retrying at once:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.fetch(ctx, url, &v)
//	})
package httputil
