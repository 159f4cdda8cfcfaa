package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for events to settle before
// triggering a reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a reload when any corpus source changes on disk.
type Watcher struct {
	sources  []string
	debounce time.Duration
	reload   func(context.Context) error
}

// NewWatcher creates a watcher over sources. reload is called after a burst of
// changes settles; its error is logged and the watcher keeps running.
func NewWatcher(sources []string, debounce time.Duration, reload func(context.Context) error) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{sources: sources, debounce: debounce, reload: reload}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	// Files are watched through their parent directory so that editors that
	// replace files on save are still observed.
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, source := range w.sources {
		abs, err := filepath.Abs(source)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", source, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", source, err)
		}
		dir := abs
		if info.IsDir() {
			dirs[abs] = true
		} else {
			files[abs] = true
			dir = filepath.Dir(abs)
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	relevant := func(name string) bool {
		abs, err := filepath.Abs(name)
		if err != nil {
			return false
		}
		if files[abs] {
			return true
		}
		return dirs[filepath.Dir(abs)] && IsSupportedFile(abs)
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	slog.Info("Watching corpus sources", "count", len(w.sources))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || !relevant(ev.Name) {
				continue
			}
			slog.Debug("Corpus source changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Corpus watcher error", "error", err)
		case <-timer.C:
			slog.Info("Corpus sources changed, reloading")
			if err := w.reload(ctx); err != nil {
				slog.Error("Corpus reload failed, keeping previous index", "error", err)
			}
		}
	}
}
