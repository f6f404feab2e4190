package mockstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultSettleDelay is how long a fixture directory must stay quiet before
// a reload fires. Editors and sync tools write files in several steps, so a
// single save can produce a burst of events.
const defaultSettleDelay = 500 * time.Millisecond

// Watcher watches a fixture directory and coalesces change bursts into
// reload signals. Every event only re-arms a timer; the signal fires once
// writes settle, so a whole-directory sync still causes one reload.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	settle time.Duration

	reloads chan struct{}
}

// NewWatcher starts watching dir and its products subdirectory. Stop it with
// Close; the reload channel closes when the watcher does.
func NewWatcher(dir string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fixture watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	// fsnotify does not recurse; the products subdirectory is watched
	// separately when it exists.
	productsDir := filepath.Join(dir, "products")
	if info, err := os.Stat(productsDir); err == nil && info.IsDir() {
		if err := fsw.Add(productsDir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", productsDir, err)
		}
	}

	w := &Watcher{
		fsw:     fsw,
		logger:  logger.With("component", "watcher"),
		settle:  settle,
		reloads: make(chan struct{}, 1),
	}
	go w.loop()

	w.logger.Info("Watching fixtures", "dir", dir, "settle", settle)
	return w, nil
}

// Reloads delivers one signal per settled burst of fixture changes.
func (w *Watcher) Reloads() <-chan struct{} {
	return w.reloads
}

// Close stops the watcher and closes the reload channel.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.reloads)

	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("Fixture change", "file", ev.Name, "op", ev.Op.String())
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.settle)

		case <-timer.C:
			select {
			case w.reloads <- struct{}{}:
			default:
				// A reload is already pending; the pending one will pick
				// up these changes too.
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Fixture watch error", "error", err)
		}
	}
}

// relevant filters events down to fixture content changes. A directory
// created under the watch root is added to the watch so products dropped in
// later are seen.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
				w.logger.Warn("Failed to watch new directory", "dir", ev.Name, "error", err)
			}
			return true
		}
	}
	return strings.HasSuffix(ev.Name, ".json")
}
