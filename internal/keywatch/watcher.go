// Package keywatch watches a service-account key file and invalidates the
// credential cache when the file is replaced, so a rotated key is picked
// up without restarting the agent.
package keywatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/pubship/internal/ports"
)

// DefaultDebounceDelay coalesces the burst of events an editor or a
// secret-mount update produces.
const DefaultDebounceDelay = 250 * time.Millisecond

// Invalidator discards cached credentials.
type Invalidator interface {
	Invalidate()
}

// Watcher monitors one key file.
type Watcher struct {
	path     string
	target   Invalidator
	logger   ports.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

// New creates a watcher for path. A non-positive delay uses
// DefaultDebounceDelay.
func New(path string, target Invalidator, logger ports.Logger, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Watcher{
		path:     filepath.Clean(path),
		target:   target,
		logger:   logger,
		debounce: delay,
	}
}

// Start begins watching the key file's directory. Watching the directory
// rather than the file survives atomic renames and Kubernetes secret
// symlink swaps. The watcher stops when ctx is done; use Wait to block
// until it has.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("watching private key for rotation", ports.String("path", w.path))

	w.wg.Add(1)
	go w.loop(ctx, fw)
	return nil
}

// Wait blocks until the watch loop has exited.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.schedule()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("key watcher error", ports.Err(err))
		}
	}
}

// relevant accepts changes to the key file itself and to the "..data"
// symlink that Kubernetes swaps when a mounted secret is updated.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.path || filepath.Base(name) == "..data"
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("private key changed, invalidating credentials", ports.String("path", w.path))
		w.target.Invalidate()
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
