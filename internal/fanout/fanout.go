// Package fanout runs a set of named, independent calls concurrently and
// collects every branch's outcome behind a join barrier. One branch failing
// never cancels its siblings and never aborts the overall call.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Call is one independent branch of work.
type Call func(ctx context.Context) (map[string]any, error)

// Result is the captured outcome of one branch: a value or an error,
// never both.
type Result struct {
	Value map[string]any
	Err   error
}

// Run executes all calls concurrently and waits for every branch to finish.
// The returned map has an entry for each input name. Branch panics are not
// recovered; branches are expected to return errors, not panic.
func Run(ctx context.Context, calls map[string]Call) map[string]Result {
	results := make(map[string]Result, len(calls))

	var mu sync.Mutex
	var g errgroup.Group
	for name, call := range calls {
		name, call := name, call
		g.Go(func() error {
			value, err := call(ctx)
			mu.Lock()
			results[name] = Result{Value: value, Err: err}
			mu.Unlock()
			// Errors are captured per branch; returning nil keeps the
			// group from short-circuiting the rest.
			return nil
		})
	}
	_ = g.Wait()

	return results
}
