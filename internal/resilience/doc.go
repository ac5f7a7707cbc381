// Package resilience groups the fault tolerance helpers used around outbound
// HTTP calls: per-host circuit breakers (circuitbreaker) and bounded retry
// with exponential backoff and jitter (retry).
//
//	reg := circuitbreaker.NewRegistry(circuitbreaker.FeedFetchConfig())
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    _, err := reg.Get(host).Execute(fetch)
//	    return err
//	})
package resilience
