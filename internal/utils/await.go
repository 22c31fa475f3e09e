package utils

import (
	"context"
	"sync"
	"time"
)

// FirstOf races op against a deadline. It returns op's error if op
// settles first, or nil once the timeout elapses; op keeps running in
// the background after the deadline (best-effort semantics).
func FirstOf(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AllSettledWithin runs ops concurrently and waits until every op has
// settled or the timeout elapses, whichever comes first. It reports
// whether all ops settled in time. Op errors are swallowed: late or
// failed ops must not block the caller, which is the point of the
// bound.
func AllSettledWithin(ctx context.Context, timeout time.Duration, ops ...func(context.Context) error) bool {
	var wg sync.WaitGroup
	for _, op := range ops {
		wg.Add(1)
		go func(fn func(context.Context) error) {
			defer wg.Done()
			_ = fn(ctx)
		}(op)
	}

	settled := make(chan struct{})
	go func() {
		wg.Wait()
		close(settled)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-settled:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
