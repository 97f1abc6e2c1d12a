package suite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

// DefaultDebounce is the quiet period Watch waits for after a change.
const DefaultDebounce = 200 * time.Millisecond

// Watch calls onChange whenever one of the suite files changes, once changes have stopped for
// the debounce interval. A directory path covers the suite files directly inside it. Watch
// blocks until ctx is done; onChange is never called concurrently with itself.
func Watch(ctx context.Context, paths []string, debounce time.Duration, loggers ldlog.Loggers, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	watched := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return err
		}
		dir := abs
		if info.IsDir() {
			dirs[abs] = true
		} else {
			files[abs] = true
			dir = filepath.Dir(abs)
		}
		// The parent directory is watched so that replaced files keep being seen.
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watched[dir] = true
		}
	}

	relevant := func(event fsnotify.Event) bool {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
			!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
			return false
		}
		name := filepath.Clean(event.Name)
		return files[name] || (dirs[filepath.Dir(name)] && isSuiteFile(name))
	}

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if !relevant(event) {
				continue
			}
			loggers.Debugf("Suite file %s changed (%s)", event.Name, event.Op)
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}
		case <-fire:
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			loggers.Warnf("File watcher error: %s", err)
		}
	}
}
