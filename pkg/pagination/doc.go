// Package pagination fetches every page of a paginated course catalog in
// parallel.
//
// The catalog does not announce its page count up front, so the page queue
// cannot be filled ahead of time. Instead a fixed number of coordinators share
// a Counter: each one claims the next page number, fetches and decodes it,
// appends its courses to a shared Sink and keeps going until the catalog says
// there is nothing left.
//
// Example usage:
//
//	pool := pagination.NewPool(catalogClient, pagination.NewCounter(), pagination.NewSink(), pagination.DefaultConfig())
//	stats := pool.Run(ctx)
//	courses, err := pool.Sink().Courses(ctx)
//
// Each coordinator stops on its own when:
//   - a page reports has_next=false
//   - a page has no pagination metadata (hard stop)
//   - MaxConsecutiveFailures fetches in a row failed
//   - the context is cancelled
//
// A failed fetch is logged and its page is skipped, it is never retried.
// Run returns only after every coordinator has stopped, and the Sink must not
// be read before that.
package pagination
