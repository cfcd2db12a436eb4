package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits after the last change.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce coalesces bursts of events. Zero means DefaultDebounce.
	Debounce time.Duration

	// Loader reads the manifest on every change. Nil uses a zero Loader.
	Loader *Loader

	Logger *slog.Logger
}

// Watch reloads the local manifest at path whenever it is written, created
// or renamed into place, and passes every successfully parsed version to fn.
// A version that fails to load is logged and skipped.
//
// The directory is watched rather than the file so editors that replace the
// file keep triggering reloads. Watch blocks until ctx is cancelled and
// returns nil then.
func Watch(ctx context.Context, path string, fn func(*Manifest), opts WatchOptions) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	loader := opts.Loader
	if loader == nil {
		loader = &Loader{Logger: opts.Logger}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("manifest: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("manifest: watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching manifest", "path", abs)

	var (
		mu    sync.Mutex
		timer *time.Timer
		wg    sync.WaitGroup
	)
	reload := func() {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		m, err := loader.Load(ctx, abs)
		if err != nil {
			logger.Warn("manifest reload failed", "path", abs, "error", err)
			return
		}
		logger.Info("manifest reloaded", "path", abs, "pages", len(m.Pages))
		fn(m)
	}
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("manifest: watcher closed")
			}
			if filepath.Clean(evt.Name) != abs {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}

			mu.Lock()
			if timer == nil || !timer.Stop() {
				// No reload pending: schedule one.
				wg.Add(1)
				timer = time.AfterFunc(debounce, reload)
			} else {
				timer.Reset(debounce)
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("manifest: watcher closed")
			}
			logger.Warn("manifest watcher error", "error", err)
		}
	}
}
