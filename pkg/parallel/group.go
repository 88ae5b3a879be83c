// Package parallel fans work out to goroutines and collects the first error.
package parallel

import (
	"context"
	"time"

	"github.com/go-arcade/squadio/pkg/safe"
	"golang.org/x/sync/errgroup"
)

// Group runs functions concurrently. The first error, or panic, cancels the
// context shared by the others and is returned by Wait.
type Group struct {
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

func GoGroup(ctx context.Context, opts ...RunOption) *Group {
	rOpts := &runOptions{}
	for _, opt := range opts {
		opt(rOpts)
	}

	var cancel context.CancelFunc
	if rOpts.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, rOpts.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	g, gctx := errgroup.WithContext(ctx)
	if rOpts.limit > 0 {
		g.SetLimit(rOpts.limit)
	}
	return &Group{g: g, ctx: gctx, cancel: cancel}
}

// Go calls fn in a new goroutine.
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.g.Go(func() error {
		return safe.Do(func() error { return fn(g.ctx) })
	})
}

// Wait blocks until every function has returned and releases the group's
// context.
func (g *Group) Wait() error {
	defer g.cancel()
	return g.g.Wait()
}

type RunOption func(opts *runOptions)

type runOptions struct {
	timeout time.Duration
	limit   int
}

// WithTimeout bounds the whole group.
func WithTimeout(timeout time.Duration) RunOption {
	return func(opts *runOptions) {
		opts.timeout = timeout
	}
}

// WithLimit caps the number of functions running at once.
func WithLimit(n int) RunOption {
	return func(opts *runOptions) {
		opts.limit = n
	}
}
