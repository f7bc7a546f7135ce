// Package testutil holds helpers shared by package tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"syncauth/pkg/platform/sentinel"
)

// ConcurrentResult counts how the calls made by RunConcurrent ended.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	NotFounds int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.NotFounds
}

// RunConcurrent calls fn from n goroutines that start on the same signal, so
// they contend on shared state. fn receives its goroutine index.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                         sync.WaitGroup
		successes, errs, notFounds atomic.Int32
	)
	gate := make(chan struct{})

	for i := range n {
		wg.Go(func() {
			<-gate
			switch err := fn(i); {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		})
	}
	close(gate)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		NotFounds: notFounds.Load(),
	}
}
