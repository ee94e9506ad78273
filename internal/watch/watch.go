// Package watch reloads result archives when a renew marker appears next
// to them.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/drew/jobreport/internal/metrics"
)

// LoadFunc loads the archive at path
type LoadFunc func(path string) error

// Watcher watches one directory for "<archive><suffix>" markers
type Watcher struct {
	dir    string
	suffix string
	load   LoadFunc
	log    *slog.Logger
	fw     *fsnotify.Watcher
}

// New starts watching dir. Call Run to process events and Close when done.
func New(dir, suffix string, load LoadFunc, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{dir: filepath.Clean(dir), suffix: suffix, load: load, log: log, fw: fw}, nil
}

// Run processes events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	target, ok := w.target(event.Name)
	if !ok {
		return
	}
	if _, err := os.Stat(target); err != nil {
		w.log.Error("renew marker without archive", "marker", event.Name, "error", err)
		return
	}

	w.log.Info("reloading archive", "path", target)
	if err := w.load(target); err != nil {
		w.log.Error("failed to reload archive", "path", target, "error", err)
	} else {
		metrics.Reloads.Inc()
	}
	if err := os.Remove(event.Name); err != nil {
		w.log.Error("failed to remove renew marker", "marker", event.Name, "error", err)
	}
}

// target maps a marker path to the archive it renews. Markers outside the
// watched directory are ignored.
func (w *Watcher) target(marker string) (string, bool) {
	name := strings.TrimSuffix(marker, w.suffix)
	if name == marker {
		return "", false
	}
	if filepath.Dir(name) != w.dir {
		return "", false
	}
	return name, true
}
