package svcctl

import (
	"context"
	"sync"
	"time"
)

// Group runs facade operations across multiple services concurrently.
// It provides bulk operations with configurable concurrency and per-operation
// timeouts over a single bound Manager. Operations on distinct names are
// independent, so failures are collected into a MultiError rather than
// aborting the batch.
type Group struct {
	mgr *Manager

	// Concurrency is the maximum number of concurrent operations
	Concurrency int
	// Timeout is the per-operation timeout
	Timeout time.Duration
}

// GroupOption configures a Group
type GroupOption func(*Group)

// WithConcurrency sets the maximum number of concurrent operations
func WithConcurrency(n int) GroupOption {
	return func(g *Group) {
		g.Concurrency = n
	}
}

// WithTimeout sets the per-operation timeout
func WithTimeout(d time.Duration) GroupOption {
	return func(g *Group) {
		g.Timeout = d
	}
}

// NewGroup creates a Group over a bound manager with default settings
func NewGroup(mgr *Manager, opts ...GroupOption) *Group {
	g := &Group{
		mgr:         mgr,
		Concurrency: 10,
		Timeout:     DefaultGroupTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.Concurrency < 1 {
		g.Concurrency = 1
	}

	return g
}

func (g *Group) run(ctx context.Context, n int, op func(context.Context, int) error) error {
	if n == 0 {
		return nil
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, g.Concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	merr := &MultiError{}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			// Acquire semaphore slot
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				merr.Add(ctx.Err())
				mu.Unlock()
				return
			}

			opCtx := ctx
			if g.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, g.Timeout)
				defer cancel()
			}

			if err := op(opCtx, i); err != nil {
				mu.Lock()
				merr.Add(err)
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	return merr.Err()
}

// InstallAll installs the given descriptors
func (g *Group) InstallAll(ctx context.Context, descs ...Descriptor) error {
	return g.run(ctx, len(descs), func(ctx context.Context, i int) error {
		return g.mgr.Install(ctx, descs[i])
	})
}

// UninstallAll uninstalls the named services
func (g *Group) UninstallAll(ctx context.Context, level Level, names ...string) error {
	return g.run(ctx, len(names), func(ctx context.Context, i int) error {
		return g.mgr.Uninstall(ctx, names[i], level)
	})
}

// StartAll starts the named services
func (g *Group) StartAll(ctx context.Context, level Level, names ...string) error {
	return g.run(ctx, len(names), func(ctx context.Context, i int) error {
		return g.mgr.Start(ctx, names[i], level)
	})
}

// StopAll stops the named services
func (g *Group) StopAll(ctx context.Context, level Level, names ...string) error {
	return g.run(ctx, len(names), func(ctx context.Context, i int) error {
		return g.mgr.Stop(ctx, names[i], level)
	})
}

// RestartAll restarts the named services
func (g *Group) RestartAll(ctx context.Context, level Level, names ...string) error {
	return g.run(ctx, len(names), func(ctx context.Context, i int) error {
		return g.mgr.Restart(ctx, names[i], level)
	})
}

// StatusAll retrieves the status of the named services. Services whose query
// failed are absent from the result map and reported in the returned error.
func (g *Group) StatusAll(ctx context.Context, level Level, names ...string) (map[string]State, error) {
	results := make(map[string]State, len(names))
	var mu sync.Mutex

	err := g.run(ctx, len(names), func(ctx context.Context, i int) error {
		state, err := g.mgr.Status(ctx, names[i], level)
		if err != nil {
			return err
		}

		mu.Lock()
		results[names[i]] = state
		mu.Unlock()
		return nil
	})

	return results, err
}
