// Package ratelimit provides request pacing for the arXiv collector.
//
// Two policies are available behind the Limiter interface:
//
// Interval:
//   - Enforces a minimum gap between successive requests
//   - Matches arXiv's guidance of a fixed delay between API calls
//   - Default policy used by the collector
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for requests-per-minute style budgets
//
// Usage:
//
//	limiter := ratelimit.NewInterval(3 * time.Second)
//
//	// Block until the gap has elapsed (or ctx is cancelled)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
package ratelimit
