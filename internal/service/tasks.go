package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Sequentially runs fn for each item in order, one at a time. A failing item does
// not stop the ones after it; all failures are joined into the returned error.
// Cancellation stops before the next item starts.
func Sequentially[T any](ctx context.Context, items []T, fn func(ctx context.Context, i int, item T) error) error {
	var errs []error
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := fn(ctx, i, item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Concurrently runs fn for each item with at most limit goroutines in flight
// (limit <= 0 means unbounded). Unlike a plain errgroup, one failure does not
// cancel its siblings; every item runs and failures are joined.
func Concurrently[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, i int, item T) error) error {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	errs := make([]error, len(items))
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, i, item)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
