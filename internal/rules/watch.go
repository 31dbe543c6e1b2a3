package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 300 * time.Millisecond

// Watch reloads the catalog at path whenever the file changes and hands each
// successfully parsed catalog to apply. A document that fails to parse is
// logged, passed to reject (may be nil) and otherwise ignored, so the previous
// catalog stays active. Watch blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file so that editors which
// save through rename keep triggering reloads.
func Watch(ctx context.Context, path string, log *zap.SugaredLogger, apply func(*Catalog), reject func(error)) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rules watch init: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("rules watch path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("rules watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			c, err := Load(abs)
			if err != nil {
				log.Errorw("rule catalog reload rejected, keeping previous catalog", "path", abs, "error", err)
				if reject != nil {
					reject(err)
				}
				continue
			}
			log.Infow("rule catalog reloaded", "path", abs, "version", c.Version(), "rules", c.Len())
			apply(c)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("rules watcher error", "error", err)
		}
	}
}
