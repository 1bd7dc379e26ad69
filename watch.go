package svcctl

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// ArtifactEvent reports a change to a service's installed artifact
type ArtifactEvent struct {
	// Path is the watched artifact path
	Path string
	// Op is the union of filesystem operations observed in one debounce
	// window
	Op fsnotify.Op
	// Err reports a watcher failure; events carrying Err have no Op
	Err error
}

// WatchCleanupFunc stops a watch and releases its resources
type WatchCleanupFunc func() error

// WatchArtifact watches the installed artifact for (name, level) and emits an
// event when it is created, modified, replaced, or removed. Events are
// debounced so an atomic write-then-rename install shows up as one event. The
// parent directory is watched rather than the file itself, since a rename
// replacing the file would silently drop a direct file watch.
//
// The watch runs until the context is canceled or the cleanup function is
// called. Backends without a file artifact fail with ErrUnsupported.
func (m *Manager) WatchArtifact(ctx context.Context, name string, level Level) (<-chan ArtifactEvent, WatchCleanupFunc, error) {
	path, err := m.enc.artifactPath(name, level)
	if err != nil {
		return nil, nil, &OpError{Op: OpStatus, Name: name, Err: err}
	}
	if path == "" {
		return nil, nil, &OpError{Op: OpStatus, Name: name, Err: fmt.Errorf("%w: %s has no file artifact to watch", ErrUnsupported, m.cfg.Kind)}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &OpError{Op: OpStatus, Name: name, Err: err}
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, nil, &OpError{Op: OpStatus, Name: name, Err: err}
	}

	ch := make(chan ArtifactEvent, 10)

	// Stopper context manages the watcher goroutine lifecycle
	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond) // Graceful stop with 100ms grace period
		return sctx.Wait()
	}

	base := filepath.Base(path)

	sctx.Go(func(sctx *stopper.Context) error {
		var mu sync.Mutex
		var debouncer *time.Timer
		var pending fsnotify.Op

		sctx.Defer(func() {
			mu.Lock()
			if debouncer != nil {
				debouncer.Stop()
			}
			mu.Unlock()
		})

		emit := func() {
			mu.Lock()
			op := pending
			pending = 0
			mu.Unlock()

			if sctx.IsStopping() {
				return
			}
			select {
			case ch <- ArtifactEvent{Path: path, Op: op}:
			case <-sctx.Stopping():
			}
		}

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != base {
					continue
				}

				mu.Lock()
				pending |= event.Op
				if debouncer != nil {
					debouncer.Stop()
				}
				debouncer = time.AfterFunc(DefaultWatchDebounce, emit)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil && !sctx.IsStopping() {
					select {
					case ch <- ArtifactEvent{Path: path, Err: err}:
					case <-sctx.Stopping():
						return nil
					}
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}
